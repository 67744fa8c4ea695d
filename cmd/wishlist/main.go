package main

import (
	"fmt"
	"os"

	"wishlist/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    = config.Default()
	envErr error
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "wishlist",
	Short:         "wishlist - keep track of the things you want to buy",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envErr != nil {
			return envErr
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		l, err := newLogger(cfg.LogJSON)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func newLogger(json bool) (*zap.Logger, error) {
	if json {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func init() {
	// flags are registered with env-adjusted defaults, so flags beat env
	envErr = cfg.FromEnv(os.LookupEnv)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.ServerURL, "url", cfg.ServerURL, "Base URL of the wishlist server")
	pf.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "Timeout for a single request")
	pf.DurationVar(&cfg.ErrorTTL, "error-ttl", cfg.ErrorTTL, "How long an error message stays visible")
	pf.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Log as JSON instead of console text")

	sf := serverCmd.Flags()
	sf.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	sf.StringVar(&cfg.Backend, "backend", cfg.Backend, "Storage backend (file, memory, badger, redis, sqlite)")
	sf.StringVar(&cfg.DataPath, "data", cfg.DataPath, "Path of the data file or directory")
	sf.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Address of Redis server")

	rootCmd.AddCommand(serverCmd, listCmd, addCmd, editCmd, toggleCmd, rmCmd, tuiCmd)
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
