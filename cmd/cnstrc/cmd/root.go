// Package cmd implements the cnstrc CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/constructorio-go/internal/config"
)

// drainTimeout bounds how long a command waits for queued beacons on exit.
const drainTimeout = 10 * time.Second

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "cnstrc",
		Short: "CLI client for the search and recommendations API",
		Long: "cnstrc is a command-line client for the hosted search API.\n" +
			"It runs autocomplete, search, browse and recommendations queries,\n" +
			"sends behavioral tracking events, and inspects the stored identity.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML)")
	flags.String("api-key", "", "API key (overrides client.api_key)")
	flags.String("service-url", "", "API host (overrides client.service_url)")
	flags.String("identity-backend", "", "identity backend: memory, file, redis, postgres")
	flags.String("user-id", "", "logged-in user id sent with every request")
	flags.String("output", "table", "output format (table, json)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	for _, name := range []string{"api-key", "service-url", "identity-backend", "user-id", "output", "log-level"} {
		cobra.CheckErr(viper.BindPFlag(name, flags.Lookup(name)))
	}

	rootCmd.AddCommand(autocompleteCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(recommendationsCmd())
	rootCmd.AddCommand(trackCmd())
	rootCmd.AddCommand(identityCmd())
	rootCmd.AddCommand(versionCmd())
}

func initConfig() {
	viper.SetEnvPrefix("CIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads the YAML config, or the defaults when no file is given,
// and applies flag and CIO_* environment overrides on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if v := viper.GetString("api-key"); v != "" {
		cfg.Client.APIKey = v
	}
	if v := viper.GetString("service-url"); v != "" {
		cfg.Client.ServiceURL = v
	}
	if v := viper.GetString("identity-backend"); v != "" {
		cfg.Identity.Backend = v
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}

	if err := cfg.ValidateSDK(); err != nil {
		return nil, fmt.Errorf("validating client config: %w", err)
	}
	return cfg, nil
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}

// withClient loads config, opens the client for one command and always
// drains queued beacons afterwards.
func withClient(cmd *cobra.Command, run func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	if uid := viper.GetString("user-id"); uid != "" {
		a.client.SetUserID(uid)
	}

	runErr := run(ctx, a)

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	closeErr := a.Close(drainCtx)

	if runErr != nil {
		return runErr
	}
	return closeErr
}
