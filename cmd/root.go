package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"recipecost"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string

// Config is the resolved CLI configuration: flags, then RECIPECOST_* env,
// then the config file.
type Config struct {
	DB         string `mapstructure:"db"`
	Listen     string `mapstructure:"listen"`
	LogLevel   string `mapstructure:"log-level"`
	Restaurant string `mapstructure:"restaurant"`
}

var rootCmd = &cobra.Command{
	Use:   "recipecost",
	Short: "Ingredient costing for restaurant dishes",
	Long: `recipecost keeps a restaurant's unit conversion table, ingredient prices and
recipes in SQLite, and costs dishes from them. It can also serve the same
operations over a msgpack TCP protocol.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.recipecost.yaml)")

	rootCmd.PersistentFlags().String("db", "recipecost.db", "SQLite database path")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("restaurant", "local", "owner subject of the restaurant to work on")

	viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(seedCmd, factorCmd, costCmd, serveCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".recipecost")
	}

	viper.SetEnvPrefix("recipecost")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func loadConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// newLogger returns a development logger at debug level and a production
// logger otherwise.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if lvl == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// env is what every subcommand runs against.
type env struct {
	cfg    *Config
	logger *zap.Logger
	db     *sql.DB
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	recipecost.SetLogger(logger)

	db, err := recipecost.OpenDB(ctx, cfg.DB)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("open %s: %w", cfg.DB, err)
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) Close() {
	e.db.Close()
	e.logger.Sync()
}

func (e *env) restaurant(ctx context.Context) (*recipecost.Restaurant, error) {
	return recipecost.EnsureRestaurant(ctx, e.db, e.cfg.Restaurant, "")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
