// README: Config loader with env defaults for HTTP, Redis, SQS, and consumer settings.
package config

import (
	"os"
	"strconv"
)

type ConsumerConfig struct {
	Workers     int
	WaitSeconds int
	BatchSize   int
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Redis struct {
		Addr string
	}
	SQS struct {
		Region         string
		StatusQueueURL string
		ChatQueueURL   string
	}
	Consumer ConsumerConfig
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("COURIER_HTTP_ADDR", ":8080")
	cfg.Redis.Addr = envOrDefault("COURIER_REDIS_ADDR", "localhost:6379")
	cfg.SQS.Region = envOrDefault("AWS_REGION", "us-east-1")
	cfg.SQS.StatusQueueURL = envOrError("COURIER_SQS_STATUS_QUEUE_URL")
	cfg.SQS.ChatQueueURL = envOrError("COURIER_SQS_CHAT_QUEUE_URL")
	cfg.Consumer.Workers = envOrDefaultInt("COURIER_CONSUMER_WORKERS", 4)
	cfg.Consumer.WaitSeconds = envOrDefaultInt("COURIER_CONSUMER_WAIT_SECONDS", 20)
	cfg.Consumer.BatchSize = envOrDefaultInt("COURIER_CONSUMER_BATCH_SIZE", 10)
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrError(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	panic("environment variable " + key + " is required")
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
