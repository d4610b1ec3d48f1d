package usecase

import (
	"context"
	"encoding/json"

	applogger "HomeCast/pkg/logger"
)

// ReloadCommand is the payload accepted on the reload topic. All fields are
// optional; an empty message triggers a plain reload.
type ReloadCommand struct {
	Reason string `json:"reason,omitempty"`
}

// KafkaReloadHandler triggers a dataset reload when a command arrives on the
// reload topic. Consumer retry and DLQ handling come from the consumer
// infrastructure.
type KafkaReloadHandler struct {
	topic    string
	reloader *Reloader
	logger   *applogger.Logger
}

// NewKafkaReloadHandler registers the handler for the given topic.
func NewKafkaReloadHandler(topic string, reloader *Reloader, logger *applogger.Logger) *KafkaReloadHandler {
	return &KafkaReloadHandler{topic: topic, reloader: reloader, logger: logger}
}

// Topic returns the subscribed topic.
func (h *KafkaReloadHandler) Topic() string { return h.topic }

// Handle processes one reload command.
func (h *KafkaReloadHandler) Handle(ctx context.Context, data []byte) error {
	var cmd ReloadCommand
	if len(data) > 0 {
		// Malformed payloads still trigger a reload; the command body is
		// informational only.
		_ = json.Unmarshal(data, &cmd)
	}

	if h.logger != nil {
		h.logger.Info("reload command received", applogger.String("reason", cmd.Reason))
	}
	return h.reloader.Reload(ctx)
}
