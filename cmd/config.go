package cmd

import (
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/priyxstudio/burrow/config"
)

var configInitArgs struct {
	Force bool
}

func newConfigCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Manage the burrow configuration file.",
	}

	initCommand := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values.",
		Args:  cobra.NoArgs,
		RunE:  configInitCmdRun,
	}
	initCommand.Flags().BoolVarP(&configInitArgs.Force, "force", "f", false, "overwrite an existing configuration file without asking")

	command.AddCommand(initCommand)
	return command
}

func configInitCmdRun(cmd *cobra.Command, _ []string) error {
	resolveConfigPath()
	if _, err := os.Stat(configPath); err == nil && !configInitArgs.Force {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return errors.Errorf("a configuration file already exists at %s, pass --force to overwrite it", configPath)
		}
		overwrite := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("A configuration file already exists at %s. Overwrite it?", configPath)).
			Value(&overwrite).
			Run()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
		if !overwrite {
			return nil
		}
	}

	c, err := config.NewAtPath(configPath)
	if err != nil {
		return err
	}
	if err := config.WriteToDisk(c); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote configuration to %s\n", configPath)
	return nil
}
