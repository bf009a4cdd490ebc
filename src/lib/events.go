package lib

import (
	"context"
	"encoding/json"
	"log"
)

// LogPublisher writes lifecycle events to the process log. Used when no
// broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	log.Printf("[Events] %s %s\n", topic, string(b))
	return nil
}
