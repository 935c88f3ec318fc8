package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/lanpaste/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and LANPASTE_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → LANPASTE_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("lanpaste")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/lanpaste/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "lanpaste"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	// LANPASTE_BACKLOG_SIZE → backlog-size
	v.SetEnvPrefix("LANPASTE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// setupLogging builds the daemon logger from the logging flags.
func setupLogging(v *viper.Viper) *slog.Logger {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	return newLogger(interactive, v.GetString("log-format"), v.GetString("log-level"))
}

func newLogger(interactive bool, formatStr, levelStr string) *slog.Logger {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = slog.LevelDebug
		} else {
			level = slog.LevelInfo
		}
	}
	return logging.New(os.Stderr, format, level)
}
