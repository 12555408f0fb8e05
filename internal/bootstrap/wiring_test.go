package bootstrap

import (
	"testing"
	"time"

	"github.com/mudancasja/leadqueue/internal/config"
	"github.com/mudancasja/leadqueue/internal/queue"
)

func TestQueueConfig_KeepsDefaultsForUnsetValues(t *testing.T) {
	q := QueueConfig(config.QueueConfig{RedisAddr: "redis:6379"})

	if q.Backend != queue.BackendRedis {
		t.Errorf("expected default backend redis, got %s", q.Backend)
	}
	if q.Redis.Addr != "redis:6379" {
		t.Errorf("expected redis:6379, got %s", q.Redis.Addr)
	}
	if q.Workers != 4 {
		t.Errorf("expected default worker count 4, got %d", q.Workers)
	}
	if q.Redis.Block != 5*time.Second {
		t.Errorf("expected default block timeout, got %v", q.Redis.Block)
	}
	if q.SQS.WaitSeconds != 20 {
		t.Errorf("expected default long poll 20s, got %d", q.SQS.WaitSeconds)
	}
}

func TestQueueConfig_Overrides(t *testing.T) {
	q := QueueConfig(config.QueueConfig{
		Type:          "sqs",
		Workers:       8,
		StreamName:    "custom",
		StreamMaxLen:  5000,
		SQSQueueURL:   "https://sqs.sa-east-1.amazonaws.com/1/deliveries",
		SQSRegion:     "sa-east-1",
		SQSWaitTime:   10,
		SQSVisTimeout: 45,
	})

	if q.Backend != queue.BackendSQS || q.Workers != 8 || q.Redis.Stream != "custom" {
		t.Errorf("unexpected config %+v", q)
	}
	if q.Redis.MaxLen != 5000 {
		t.Errorf("expected stream cap 5000, got %d", q.Redis.MaxLen)
	}
	if q.SQS.QueueURL == "" || q.SQS.Region != "sa-east-1" || q.SQS.WaitSeconds != 10 || q.SQS.VisibilitySeconds != 45 {
		t.Errorf("sqs fields not copied: %+v", q.SQS)
	}
}
