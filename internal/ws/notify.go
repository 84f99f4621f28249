package ws

import (
	"context"
	"encoding/json"

	"skill-radar/internal/pipeline"

	"go.uber.org/zap"
)

// Notifier publishes pipeline events to the hub as JSON.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) Notify(_ context.Context, e pipeline.Event) {
	if n == nil || n.hub == nil {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		n.hub.log.Warn("ws event encode failed", zap.Error(err))
		return
	}
	n.hub.Publish(e.SubjectID, b)
}

var _ pipeline.Notifier = (*Notifier)(nil)
