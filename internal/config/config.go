// Package config defines the server's command line and environment surface.
// Every flag can also be set through a TAGOPOLY_-prefixed environment
// variable; flags win when both are present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const ReleaseVersion = "0.3.0"

type Config struct {
	Bind         string
	Port         int
	DBPath       string
	AutoEndDelay time.Duration
	Verbose      bool
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.AutoEndDelay < 0 {
		return fmt.Errorf("invalid auto-end delay: %s", c.AutoEndDelay)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// NewCommand builds the root command. The run callback receives the resolved
// configuration after validation.
func NewCommand(cfg *Config, run func(cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TAGOPOLY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "tagopoly",
		Short:         "Realtime multiplayer board game server.",
		Args:          cobra.ExactArgs(0),
		Version:       ReleaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: TAGOPOLY_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: TAGOPOLY_PORT)")
	fs.StringVar(&cfg.DBPath, "db-path", "tagopoly.db", "path to the results database (env: TAGOPOLY_DB_PATH)")
	fs.DurationVar(&cfg.AutoEndDelay, "auto-end-delay", 750*time.Millisecond, "delay before penalized turns auto-advance (env: TAGOPOLY_AUTO_END_DELAY)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug logging (env: TAGOPOLY_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("tagopoly v{{.Version}}\n")

	return cmd
}
