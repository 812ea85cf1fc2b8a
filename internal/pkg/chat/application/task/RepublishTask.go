package task

import (
	"context"
	"encoding/json"
	"time"

	bport "github.com/jayant810/chatSphere/internal/infrastructure/broker/port"
	qport "github.com/jayant810/chatSphere/internal/infrastructure/queue/port"
)

// RepublishTaskType is the queue task name for retrying a failed broker publish.
const RepublishTaskType = "chat:republish"

// RepublishPayload is the JSON payload transported via the queue.
type RepublishPayload struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// EnqueueRepublish schedules a failed publish for retry with backoff. The
// payload is the already-serialized event, republished verbatim.
func EnqueueRepublish(ctx context.Context, client qport.Client, channel string, payload []byte) error {
	body, err := json.Marshal(RepublishPayload{Channel: channel, Payload: payload})
	if err != nil {
		return err
	}
	_, err = client.Enqueue(ctx, qport.Task{Type: RepublishTaskType, Payload: body}, qport.EnqueueOption{
		Queue:     "chat",
		ProcessIn: 2 * time.Second,
		MaxRetry:  8,
	})
	return err
}

// RegisterRepublishTask binds the retry handler to the worker server.
func RegisterRepublishTask(srv qport.Server, broker bport.Broker) {
	srv.Register(RepublishTaskType, func(ctx context.Context, t qport.Task) error {
		var p RepublishPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying cannot help
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		// A non-nil error triggers asynq's backoff schedule.
		return broker.Publish(ctx, p.Channel, p.Payload)
	})
}
