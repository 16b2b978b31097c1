package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"StationFM/config"
	"StationFM/logger"
	"StationFM/server"
	"StationFM/syncer"
)

var (
	syncTier  string
	syncForce bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "手动执行一轮同步任务",
	Long:  `装配完整管线后按档位执行一轮同步任务，执行完退出。适合cron或调试场景。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		initLogging(cfg)

		app, err := server.Bootstrap(cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		tier := syncer.Tier(syncTier)
		logger.Info("running sync tier",
			logger.String("tier", syncTier),
			logger.Bool("force", syncForce))
		return app.Runner.RunTier(context.Background(), tier, syncForce)
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncTier, "tier", string(syncer.TierMedium), "sync tier to run (nowplaying, short, medium, long)")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "bypass mtime checks and re-entrancy guards")
	rootCmd.AddCommand(syncCmd)
}
