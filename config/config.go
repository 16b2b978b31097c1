package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally via a .env file) with defaults.
type Config struct {
	ListenAddr  string
	FFprobePath string

	// 存储配置：driver 为 local 或 minio
	StorageDriver string
	MediaRoot     string // Base directory for station media when using local storage
	TempDir       string // Scratch space for temp copies of remote files

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO配置
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// 同步任务配置
	SyncEnabled    bool
	MediaWorkers   int    // Worker pool size for the media check task
	WatchLocalDirs bool   // fsnotify watcher on local media directories
	BackupEnabled  bool
	BackupTimecode string // "HHMM" in UTC; empty means any time of day
	BackupPath     string // Storage path for automatic backups
	MysqldumpPath  string

	LogLevel  string
	LogOutput string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() 不会覆盖已设置的环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),

		StorageDriver: getEnv("STORAGE_DRIVER", "local"),
		MediaRoot:     getEnv("MEDIA_ROOT", filepath.Join("data", "media")),
		TempDir:       getEnv("TEMP_DIR", os.TempDir()),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:     getEnv("DB_NAME", "stationfm"),

		// Redis配置，使用默认值
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "stationfm"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		SyncEnabled:    getEnvBool("SYNC_ENABLED", true),
		MediaWorkers:   getEnvInt("MEDIA_WORKERS", 4),
		WatchLocalDirs: getEnvBool("WATCH_LOCAL_DIRS", false),
		BackupEnabled:  getEnvBool("BACKUP_ENABLED", false),
		BackupTimecode: getEnv("BACKUP_TIMECODE", ""),
		BackupPath:     getEnv("BACKUP_PATH", "backups/automatic_backup.sql.gz"),
		MysqldumpPath:  getEnv("MYSQLDUMP_PATH", "mysqldump"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogOutput: getEnv("LOG_OUTPUT", ""),
	}
}
