package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/igor04091968/tunnel-panel/database/model"
	"github.com/igor04091968/tunnel-panel/util"

	"github.com/spf13/cobra"
)

// generateCmd prints the cloudflared commands for a tunnel without storing
// it anywhere.
type generateCmd struct {
	name        string
	hostname    string
	serviceType string
	port        int
	host        string
	protocol    string
}

func (c *generateCmd) validate() error {
	if c.name == "" || c.hostname == "" {
		return errors.New("--name and --hostname are required")
	}
	if c.port < 0 || c.port > 65535 {
		return fmt.Errorf("invalid port: %d", c.port)
	}
	return nil
}

func (c *generateCmd) tunnel() *model.Tunnel {
	defaults := util.DefaultsFor(c.serviceType)
	t := &model.Tunnel{
		Name:        c.name,
		ServiceType: c.serviceType,
		Hostname:    c.hostname,
		LocalPort:   defaults.Port,
		LocalHost:   c.host,
		Protocol:    defaults.Protocol,
	}
	if c.port != 0 {
		t.LocalPort = c.port
	}
	if c.protocol != "" {
		t.Protocol = c.protocol
	}
	return t
}

func (c *generateCmd) run(out io.Writer) error {
	commands := util.GenerateCommands(c.tunnel())
	fmt.Fprintln(out, commands.ConfigCommand)
	fmt.Fprintln(out, commands.RunCommand)
	return nil
}

func newGenerateCmd() *cobra.Command {
	c := &generateCmd{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "print cloudflared commands for a tunnel without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.validate(); err != nil {
				return err
			}
			return c.run(cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&c.name, "name", "", "Tunnel name")
	flags.StringVar(&c.hostname, "hostname", "", "Public hostname")
	flags.StringVar(&c.serviceType, "type", "http", "Service type (rdp, ssh, http, https, tcp, udp)")
	flags.IntVar(&c.port, "port", 0, "Local port, defaults by service type")
	flags.StringVar(&c.host, "host", util.DefaultLocalHost, "Local host")
	flags.StringVar(&c.protocol, "protocol", "", "Protocol override")
	return cmd
}
