package worker

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestPoolStop_ReturnsPromptly(t *testing.T) {
	// No redis server behind this address; the workers' blocking pops fail
	// and retry until the pool context is cancelled.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	pool := NewPool(client, nil, 3)
	pool.Start()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected Stop to return well before the 30s pop timeout")
	}
}
