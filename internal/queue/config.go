package queue

import "time"

const (
	BackendRedis = "redis"
	BackendSQS   = "sqs"
)

type Config struct {
	Backend         string
	Workers         int
	ProcessTimeout  time.Duration
	ShutdownTimeout time.Duration

	Redis RedisConfig
	SQS   SQSConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	// Block bounds each XREADGROUP call so consumers notice shutdown.
	Block time.Duration
	// MaxLen caps the stream (approximate trim) on every XADD. Zero disables.
	MaxLen int64
}

type SQSConfig struct {
	QueueURL          string
	Region            string
	WaitSeconds       int32 // long poll
	VisibilitySeconds int32
}

func DefaultConfig() Config {
	return Config{
		Backend:         BackendRedis,
		Workers:         4,
		ProcessTimeout:  30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Stream: "leadqueue:deliveries",
			Group:  "delivery-workers",
			Block:  5 * time.Second,
			MaxLen: 100000,
		},
		SQS: SQSConfig{
			WaitSeconds:       20,
			VisibilitySeconds: 30,
		},
	}
}
