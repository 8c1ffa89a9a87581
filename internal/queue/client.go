package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bankinworks/crmrag/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueIngestBulk(payload IngestBulkPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeIngestBulk, data)
	_, err = c.client.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(15*time.Minute))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeIngestBulk, err)
	}
	return nil
}
