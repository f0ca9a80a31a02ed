package main

import "time"

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=3000"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	// direct: this process holds websocket transports.
	// relay: events go out through the managed broadcast service.
	BroadcastMode string `env:"BROADCAST_MODE,default=direct"`

	QuotaSweepInterval time.Duration `env:"QUOTA_SWEEP_INTERVAL,default=1h"`

	PusherAppID   string `env:"PUSHER_APP_ID"`
	PusherKey     string `env:"PUSHER_KEY"`
	PusherSecret  string `env:"PUSHER_SECRET"`
	PusherCluster string `env:"PUSHER_CLUSTER"`

	AIProvider        string `env:"AI_PROVIDER,default=openai"`
	AIModel           string `env:"AI_MODEL"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL,default=https://openrouter.ai/api/v1"`
}
