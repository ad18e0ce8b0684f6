package web

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/igor04091968/tunnel-panel/api"
	"github.com/igor04091968/tunnel-panel/config"
	"github.com/igor04091968/tunnel-panel/logger"
	"github.com/igor04091968/tunnel-panel/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	listener   net.Listener
	cfg        *config.Config
	services   *service.ServicesBundle
	limiter    *api.RateLimiter

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(cfg *config.Config, services *service.ServicesBundle) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		services: services,
		limiter:  api.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Server) sessionSecret() ([]byte, error) {
	if s.cfg.SessionSecret != "" {
		return []byte(s.cfg.SessionSecret), nil
	}
	return s.services.SettingService.GetSecret()
}

// NewRouter builds the gin engine. It is exported so the HTTP surface can be
// exercised without a listener.
func (s *Server) NewRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	secret, err := s.sessionSecret()
	if err != nil {
		return nil, err
	}
	store := cookie.NewStore(secret)

	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic while serving ", c.Request.URL.Path, ": ", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.Msg{Msg: "internal server error"})
	}))
	engine.Use(api.SecurityHeaders())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(sessions.Sessions(config.GetName(), store))
	engine.Use(s.limiter.Middleware())

	g := engine.Group(s.cfg.BasePath + "api")
	api.NewAPIHandler(g, s.services, s.cfg)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.Msg{Msg: "not found"})
	})
	return engine, nil
}

func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			s.Stop()
		}
	}()

	engine, err := s.NewRouter()
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	logger.Info("web server run http on ", listener.Addr())
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := s.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped: ", err)
		}
	}()

	return nil
}

func (s *Server) Stop() error {
	s.cancel()
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) GetCtx() context.Context {
	return s.ctx
}

func (s *Server) Limiter() *api.RateLimiter {
	return s.limiter
}
