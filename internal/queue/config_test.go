package queue

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	checks := map[string][2]any{
		"Backend":         {cfg.Backend, BackendRedis},
		"Workers":         {cfg.Workers, 4},
		"ProcessTimeout":  {cfg.ProcessTimeout, 30 * time.Second},
		"ShutdownTimeout": {cfg.ShutdownTimeout, 30 * time.Second},
		"Redis.Addr":      {cfg.Redis.Addr, "localhost:6379"},
		"Redis.Stream":    {cfg.Redis.Stream, "leadqueue:deliveries"},
		"Redis.Group":     {cfg.Redis.Group, "delivery-workers"},
		"Redis.Block":     {cfg.Redis.Block, 5 * time.Second},
		"Redis.MaxLen":    {cfg.Redis.MaxLen, int64(100000)},
		"SQS.WaitSeconds": {cfg.SQS.WaitSeconds, int32(20)},
		"SQS.Visibility":  {cfg.SQS.VisibilitySeconds, int32(30)},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %v, want %v", name, c[0], c[1])
		}
	}
}
