package main

import (
	"github.com/Laisky/errors/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/fitpress"
	"github.com/eringen/fitpress/log"
)

// version is set at build time via ldflags.
var version = "dev"

var configPath string

var rootCMD = &cobra.Command{
	Use:           "fitpress",
	Short:         "fitpress",
	Long:          `fitpress is a fitness blog engine with AI-assisted post generation`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCMD.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
}

// loadConfig reads the config file and environment and sets up logging.
func loadConfig() (fitpress.SiteConfig, error) {
	cfg, err := fitpress.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if err := log.Init(orDefault(cfg.LogLevel, "info"), orDefault(cfg.LogFormat, "console")); err != nil {
		return cfg, errors.Wrap(err, "init logger")
	}
	log.Logger.Debug("config loaded", zap.String("path", configPath))
	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
