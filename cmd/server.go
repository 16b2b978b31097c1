package cmd

import (
	"github.com/spf13/cobra"

	"StationFM/config"
	"StationFM/logger"
	"StationFM/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动StationFM服务器",
	Long:  `启动StationFM的HTTP服务器和分档同步调度器`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		initLogging(cfg)
		if err := server.Start(cfg); err != nil {
			logger.Fatal("server exited", logger.ErrorField(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
