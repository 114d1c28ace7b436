// Package cli implements the realip command line: one-shot resolution and an
// HTTP echo service.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app carries state shared by the subcommands of one root command.
type app struct {
	v          *viper.Viper
	configFile string
	settings   Settings
	logger     *logrus.Logger
}

// NewRootCommand builds the realip command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: newViper()}

	cmd := &cobra.Command{
		Use:   "realip",
		Short: "Resolve the real client IP address of HTTP requests behind trusted proxies",
		Long: `realip decides which address an HTTP request really came from.

Forwarding headers such as X-Forwarded-For are only honored when the direct
peer is a trusted proxy. Configuration is read from flags, REALIP_*
environment variables and an optional config file, in that order of
precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "Path to config file. Supports .json, .yaml, .yml, .toml.")
	flags.StringSlice("proxy-ips", nil, "Trusted proxies as addresses or CIDR subnets. \"*\" trusts every peer.")
	flags.Bool("proxy-mode", false, "Trust forwarding headers from any peer.")
	flags.StringSlice("header-keys", nil, "Header priority list, replacing the default list.")
	flags.Bool("disable-cache", false, "Recompute the result on every lookup within a request.")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error).")
	flags.String("log-format", "text", "Log format (text, json, json_pretty).")

	bindFlags(a.v, flags, map[string]string{
		keyProxyIPs:     "proxy-ips",
		keyProxyMode:    "proxy-mode",
		keyHeaderKeys:   "header-keys",
		keyDisableCache: "disable-cache",
		keyLogLevel:     "log-level",
		keyLogFormat:    "log-format",
	})

	cmd.AddCommand(
		newResolveCommand(a),
		newServeCommand(a),
	)

	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	settings, err := loadSettings(a.v, a.configFile)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), settings.LogLevel, settings.LogFormat)
	if err != nil {
		return err
	}

	a.settings = settings
	a.logger = logger

	if used := a.v.ConfigFileUsed(); used != "" {
		logger.WithField("path", used).Debug("Config file loaded successfully.")
	}
	return nil
}

// bindFlags maps configuration keys to the flags that override them.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		// Only fails for a nil flag, which would be a programming error.
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}
