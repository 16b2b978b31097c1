package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"StationFM/config"
	"StationFM/logger"
	"StationFM/server"
)

var rootCmd = &cobra.Command{
	Use:   "stationfm",
	Short: "StationFM media metadata synchronization service.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		initLogging(cfg)
		if err := server.Start(cfg); err != nil {
			logger.Fatal("server exited", logger.ErrorField(err))
		}
	},
}

func initLogging(cfg *config.Config) {
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutput,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
