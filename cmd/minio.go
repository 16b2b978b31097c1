package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"StationFM/config"
	"StationFM/storage"
)

var (
	minioPrefix string
	minioDelete bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看和管理MinIO存储桶中的媒体对象，支持按前缀列出和删除。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		fmt.Println("MinIO连接成功！")

		fs := storage.NewMinioFilesystem(storage.GetMinioClient(), cfg.MinioBucket, "", cfg.TempDir)
		ctx := context.Background()

		entries, err := fs.List(ctx, minioPrefix)
		if err != nil {
			log.Fatalf("列出对象失败: %v", err)
		}

		if minioDelete {
			if minioPrefix == "" {
				log.Fatal("删除操作需要指定前缀")
			}
			for _, entry := range entries {
				if err := fs.Delete(ctx, entry.Path); err != nil {
					log.Fatalf("删除对象失败 %s: %v", entry.Path, err)
				}
				fmt.Printf("已删除: %s\n", entry.Path)
			}
			fmt.Printf("共删除 %d 个对象\n", len(entries))
			return
		}

		for _, entry := range entries {
			fmt.Printf("%12d  %s\n", entry.Size, entry.Path)
		}
		fmt.Printf("共 %d 个对象\n", len(entries))
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤对象")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "删除前缀下的所有对象")
}
