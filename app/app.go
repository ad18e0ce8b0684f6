package app

import (
	"context"
	"log"
	"time"

	"github.com/igor04091968/tunnel-panel/config"
	"github.com/igor04091968/tunnel-panel/cronjob"
	"github.com/igor04091968/tunnel-panel/database"
	"github.com/igor04091968/tunnel-panel/logger"
	"github.com/igor04091968/tunnel-panel/service"
	"github.com/igor04091968/tunnel-panel/telegram"
	"github.com/igor04091968/tunnel-panel/web"

	"github.com/op/go-logging"
)

type APP struct {
	configPath string
	cfg        *config.Config
	services   *service.ServicesBundle
	webServer  *web.Server
	cronJob    *cronjob.CronJob
	bot        *telegram.Bot
}

// NewApp returns an app that reads its configuration from configPath. An
// empty path uses defaults and the environment only.
func NewApp(configPath string) *APP {
	return &APP{configPath: configPath}
}

func (a *APP) Init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log.Printf("%v %v", config.GetName(), config.GetVersion())
	a.initLog()

	err = database.InitDB(cfg.Database)
	if err != nil {
		return err
	}

	a.services = service.NewServicesBundle(database.GetDB())
	a.cronJob = cronjob.NewCronJob()
	a.webServer = web.NewServer(cfg, a.services)
	a.bot = telegram.NewBot(cfg.Telegram, a.services.TunnelService, a.services.UserService)
	return nil
}

func (a *APP) Start() error {
	err := a.cronJob.Start(time.Local, a.services.ChangeService, a.cfg.ChangeRetentionDays, a.webServer.Limiter())
	if err != nil {
		return err
	}

	err = a.webServer.Start()
	if err != nil {
		return err
	}

	if a.cfg.Telegram.Enabled {
		go func() {
			if err := a.bot.Start(context.Background()); err != nil {
				logger.Error(err)
			}
		}()
	}
	return nil
}

func (a *APP) Stop() {
	if a.bot != nil {
		a.bot.Stop()
	}
	if a.cronJob != nil {
		a.cronJob.Stop()
	}
	if a.webServer != nil {
		err := a.webServer.Stop()
		if err != nil {
			logger.Warning("stop Web Server err:", err)
		}
	}
	err := database.CloseDB()
	if err != nil {
		logger.Warning("close database err:", err)
	}
}

func (a *APP) initLog() {
	switch a.cfg.LogLevel {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	}
}

// RestartApp reloads the configuration and brings every component back up.
func (a *APP) RestartApp() error {
	a.Stop()
	if err := a.Init(); err != nil {
		return err
	}
	return a.Start()
}

func (a *APP) Config() *config.Config {
	return a.cfg
}
