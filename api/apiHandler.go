package api

import (
	"github.com/igor04091968/tunnel-panel/config"
	"github.com/igor04091968/tunnel-panel/service"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	ApiService
}

func NewAPIHandler(g *gin.RouterGroup, services *service.ServicesBundle, cfg *config.Config) {
	a := &APIHandler{
		ApiService: ApiService{
			TunnelService: services.TunnelService,
			UserService:   services.UserService,
			ChangeService: services.ChangeService,
			ServerService: services.ServerService,
			allowRegister: cfg.AllowRegister,
			sessionMaxAge: cfg.SessionMaxAge,
		},
	}
	a.initRouter(g)
}

func (a *APIHandler) initRouter(g *gin.RouterGroup) {
	g.GET("/health", a.Health)
	g.POST("/login", a.Login)
	g.POST("/register", a.Register)
	g.GET("/logout", a.Logout)

	authed := g.Group("", checkLogin)
	authed.GET("/me", a.Me)
	authed.POST("/changePass", a.ChangePass)
	authed.GET("/status", a.GetStatus)
	authed.GET("/logs", a.GetLogs)
	authed.GET("/changes", a.GetChanges)
	authed.GET("/defaults", a.GetDefaults)
	authed.POST("/terminal", a.Terminal)

	tunnels := authed.Group("/tunnels")
	tunnels.GET("", a.ListTunnels)
	tunnels.POST("", a.CreateTunnel)
	tunnels.GET("/:id", a.GetTunnel)
	tunnels.PUT("/:id", a.UpdateTunnel)
	tunnels.DELETE("/:id", a.DeleteTunnel)
	tunnels.GET("/:id/commands", a.GetCommands)
}
