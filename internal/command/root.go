// Package command contains the CLI command constructors.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stolasapp/gather/internal/config"
	"github.com/stolasapp/gather/internal/observability"
)

// RootCommand instantiates the root command, with all sub-commands bound.
func RootCommand() *cobra.Command {
	configFilePath := config.DefaultPath()
	var envFiles []string
	cmd := &cobra.Command{
		Use:          "gather [command] [flags]",
		Short:        "The event planning web app",
		Version:      version(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) (err error) {
			if len(envFiles) > 0 {
				if err = godotenv.Load(envFiles...); err != nil {
					return fmt.Errorf("failed to load env file: %w", err)
				}
			}
			cfg, err := loadOrInitConfig(configFilePath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := observability.InitSlog(cfg)
			logger.DebugContext(cmd.Context(), "configuration loaded",
				slog.String("path", configFilePath),
				slog.String("web_address", cfg.WebAddress),
				slog.String("database_driver", cfg.Database.Driver),
				slog.String("session_store", cfg.Session.Store),
				slog.Bool("dev_mode", cfg.DevMode),
			)
			slog.SetDefault(logger)
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(
		&configFilePath,
		"config", "c",
		configFilePath,
		"path to the configuration file",
	)
	cmd.PersistentFlags().StringSliceVar(
		&envFiles,
		"env-file",
		nil,
		"dotenv files to load into the environment before resolving configuration",
	)

	cmd.AddCommand(
		serveCommand(),
		userCommand(),
		eventsCommand(),
	)

	return cmd
}

// loadOrInitConfig resolves the configuration, offering to write a default
// config file first if none exists and stdin is interactive.
func loadOrInitConfig(configFilePath string) (*config.Config, error) {
	_, err := os.Stat(configFilePath)
	if err == nil || !errors.Is(err, fs.ErrNotExist) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return config.Load(configFilePath, os.Environ())
	}

	resp, err := prompt(fmt.Sprintf("Config not found at %s. Create one? [y|N] ", configFilePath), false)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(resp, []byte("y")) {
		return config.Load(configFilePath, os.Environ())
	}

	cfg := config.Default()
	resp, err = prompt(fmt.Sprintf("Enter the web address to listen on [%s]: ", cfg.WebAddress), false)
	if err != nil {
		return nil, err
	}
	if len(resp) > 0 {
		cfg.WebAddress = string(resp)
	}
	if err = config.Validate(cfg); err != nil {
		return nil, err
	}
	if err = config.Write(configFilePath, cfg); err != nil {
		return nil, err
	}
	return config.Load(configFilePath, os.Environ())
}
