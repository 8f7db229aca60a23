package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	SQLite  SQLiteConfig
	Redis   RedisConfig
	Crawler CrawlerConfig
	Chunker ChunkerConfig
	Ingest  IngestConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PageTTL  int
}

type CrawlerConfig struct {
	DefaultMaxPages    int
	MaxPagesUpperBound int
	DefaultDelaySec    float64
	PreviewMaxPages    int
	PreviewDelaySec    float64
	FetchTimeoutSec    int
	FetchRetries       int
	MinWordCount       int
	DensityThreshold   float64
	UserAgent          string
}

type ChunkerConfig struct {
	TargetSize int
	Overlap    int
	MinSize    int
}

type IngestConfig struct {
	MaxFileSizeMB int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/hotelchat")

	viper.SetEnvPrefix("HOTEL_KB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 300)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/hotelkb.db")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pageTTL", 3600)

	viper.SetDefault("crawler.defaultMaxPages", 20)
	viper.SetDefault("crawler.maxPagesUpperBound", 50)
	viper.SetDefault("crawler.defaultDelaySec", 2.0)
	viper.SetDefault("crawler.previewMaxPages", 3)
	viper.SetDefault("crawler.previewDelaySec", 1.0)
	viper.SetDefault("crawler.fetchTimeoutSec", 15)
	viper.SetDefault("crawler.fetchRetries", 2)
	viper.SetDefault("crawler.minWordCount", 50)
	viper.SetDefault("crawler.densityThreshold", 0.004)
	viper.SetDefault("crawler.userAgent", "HotelChatBot/1.0 (+https://hotelchat.com/bot)")

	viper.SetDefault("chunker.targetSize", 1000)
	viper.SetDefault("chunker.overlap", 150)
	viper.SetDefault("chunker.minSize", 100)

	viper.SetDefault("ingest.maxFileSizeMB", 10)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
