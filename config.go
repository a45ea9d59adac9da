package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	chatCooldown   time.Duration
	kickThreshold  int
	port           int
	prefix         string
	profile        bool
	skipRatio      float64
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
	wordAPIKey     string
	wordAPITimeout time.Duration
	wordAPIURL     string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.chatCooldown <= 0 {
		return fmt.Errorf("invalid chat cooldown (must be positive): %s", c.chatCooldown)
	}
	if c.kickThreshold < 1 {
		return fmt.Errorf("invalid kick threshold (must be at least 1): %d", c.kickThreshold)
	}
	if c.skipRatio <= 0 || c.skipRatio > 1 {
		return fmt.Errorf("invalid skip ratio (must be in (0,1]): %f", c.skipRatio)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WATCHBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "watchbox",
		Short:         "A shared watch party with chat, a video queue, and democratic moderation.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WATCHBOX_BIND)")
	fs.DurationVar(&cfg.chatCooldown, "chat-cooldown", 3*time.Second, "minimum delay between chat messages per connection (env: WATCHBOX_CHAT_COOLDOWN)")
	fs.IntVar(&cfg.kickThreshold, "kick-threshold", 3, "votes required to kick a user (env: WATCHBOX_KICK_THRESHOLD)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WATCHBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: WATCHBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: WATCHBOX_PROFILE)")
	fs.Float64Var(&cfg.skipRatio, "skip-ratio", 0.3, "fraction of connected users required to skip a video (env: WATCHBOX_SKIP_RATIO)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: WATCHBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: WATCHBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: WATCHBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: WATCHBOX_VERSION)")
	fs.StringVar(&cfg.wordAPIKey, "word-api-key", "", "api key for the random word service (env: WATCHBOX_WORD_API_KEY)")
	fs.DurationVar(&cfg.wordAPITimeout, "word-api-timeout", 2*time.Second, "timeout for random word service calls (env: WATCHBOX_WORD_API_TIMEOUT)")
	fs.StringVar(&cfg.wordAPIURL, "word-api-url", "https://api.api-ninjas.com/v1/randomword", "url of the random word service (env: WATCHBOX_WORD_API_URL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("watchbox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
