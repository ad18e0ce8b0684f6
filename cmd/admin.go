package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/igor04091968/tunnel-panel/config"
	"github.com/igor04091968/tunnel-panel/database"
	"github.com/igor04091968/tunnel-panel/service"

	"github.com/spf13/cobra"
)

type adminCmd struct {
	configPath *string
	show       bool
	reset      bool
	username   string
	password   string
}

func (c *adminCmd) validate() error {
	if !c.show && !c.reset && c.username == "" && c.password == "" {
		return errors.New("nothing to do: use --show, --reset, --username or --password")
	}
	if c.reset && (c.username != "" || c.password != "") {
		return errors.New("--reset cannot be combined with --username or --password")
	}
	return nil
}

func (c *adminCmd) userService() (*service.UserService, error) {
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	if err := database.InitDB(cfg.Database); err != nil {
		return nil, err
	}
	return service.NewUserService(database.GetDB()), nil
}

func (c *adminCmd) run(out io.Writer) error {
	userService, err := c.userService()
	if err != nil {
		return err
	}
	defer database.CloseDB()

	if c.reset {
		if err := resetAdmin(userService); err != nil {
			return err
		}
		fmt.Fprintln(out, "reset admin credentials success")
	} else if c.username != "" || c.password != "" {
		if err := userService.UpdateFirstUser(c.username, c.password); err != nil {
			return fmt.Errorf("reset admin credentials failed: %w", err)
		}
		fmt.Fprintln(out, "reset admin credentials success")
	}
	if c.show {
		return showAdmin(userService, out)
	}
	return nil
}

func resetAdmin(userService *service.UserService) error {
	err := userService.UpdateFirstUser("admin", "admin")
	if err != nil {
		return fmt.Errorf("reset admin credentials failed: %w", err)
	}
	return nil
}

func showAdmin(userService *service.UserService, out io.Writer) error {
	userModel, err := userService.GetFirstUser()
	if err != nil {
		return fmt.Errorf("get current user info failed: %w", err)
	}
	fmt.Fprintln(out, "First admin credentials:")
	fmt.Fprintln(out, "\tUsername:\t", userModel.Username)
	if userModel.Password == "" {
		fmt.Fprintln(out, "\tPassword:\t (empty)")
	} else {
		fmt.Fprintln(out, "\tPassword:\t (bcrypt hash, use --password to change)")
	}
	return nil
}

func newAdminCmd(configPath *string) *cobra.Command {
	c := &adminCmd{configPath: configPath}
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "show or reset the first admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.validate(); err != nil {
				return err
			}
			return c.run(cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&c.show, "show", "s", false, "Show the first admin username")
	flags.BoolVarP(&c.reset, "reset", "r", false, "Reset the first admin to admin/admin")
	flags.StringVarP(&c.username, "username", "u", "", "New username for the first admin")
	flags.StringVarP(&c.password, "password", "p", "", "New password for the first admin")
	return cmd
}
