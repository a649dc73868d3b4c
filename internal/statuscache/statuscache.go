// Package statuscache keeps a Redis hash of currently running timers so the
// frequently polled timer-status endpoint can skip the database.
package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const runningKey = "running_timers"

type RunningTimer struct {
	TimerID   string    `json:"timer_id"`
	StartedAt time.Time `json:"started_at"`
}

type Cache struct {
	client *redis.Client
	ctx    context.Context
}

func New(redisAddr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client: client,
		ctx:    ctx,
	}, nil
}

func (c *Cache) SetRunning(taskID string, rt RunningTimer) error {
	data, err := json.Marshal(rt)
	if err != nil {
		return err
	}

	return c.client.HSet(c.ctx, runningKey, taskID, data).Err()
}

// GetRunning returns the cached running timer for a task, or nil on a miss.
func (c *Cache) GetRunning(taskID string) (*RunningTimer, error) {
	data, err := c.client.HGet(c.ctx, runningKey, taskID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rt RunningTimer
	if err := json.Unmarshal([]byte(data), &rt); err != nil {
		return nil, err
	}

	return &rt, nil
}

func (c *Cache) ClearRunning(taskID string) error {
	return c.client.HDel(c.ctx, runningKey, taskID).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
