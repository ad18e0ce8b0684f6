package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/igor04091968/tunnel-panel/app"
	"github.com/igor04091968/tunnel-panel/logger"

	"github.com/spf13/cobra"
)

type serveCmd struct {
	configPath *string
}

func (c *serveCmd) run() error {
	a := app.NewApp(*c.configPath)
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		a.Stop()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	for {
		sig := <-sigCh
		switch sig {
		case syscall.SIGHUP:
			logger.Info("Received SIGHUP signal. Restarting servers...")
			if err := a.RestartApp(); err != nil {
				a.Stop()
				return err
			}
		default:
			logger.Info("Received ", sig, " signal. Shutting down...")
			a.Stop()
			return nil
		}
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	c := &serveCmd{configPath: configPath}
	return &cobra.Command{
		Use:   "serve",
		Short: "run the panel API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run()
		},
	}
}
