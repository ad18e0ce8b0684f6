package cmd

import (
	"fmt"

	"github.com/igor04091968/tunnel-panel/config"

	"github.com/spf13/cobra"
)

const panelDesc = `
tunnel-panel keeps a per-user registry of Cloudflare tunnel definitions and
renders the cloudflared commands that create and run each of them. It serves
a JSON API with session login, an optional Telegram bot and a few admin
helpers.
Detailed help for each command is available with 'tunnel-panel help <command>'.
`

func NewCmdPanel() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          config.GetName(),
		Short:        "registry of cloudflared tunnel definitions",
		Long:         panelDesc,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newAdminCmd(&configPath))
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetName(), config.GetVersion())
		},
	}
}
