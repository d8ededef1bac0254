package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/recipebox/webapp/config"
	"go.uber.org/zap"
)

const (
	// EventImageReleased is published when a recipe no longer references an
	// uploaded image, either because it was replaced or the recipe was deleted.
	EventImageReleased = "image_released"
)

// NewFromConfig builds the broker selected by cfg.Backend.
// It returns nil, nil when no backend is configured.
func NewFromConfig(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return New(backend), nil
}

// ImageReleasedEvent is the JSON body of an image_released message.
type ImageReleasedEvent struct {
	Type      string `json:"type"`
	RecipeID  int    `json:"recipe_id"`
	ObjectKey string `json:"object_key"`
}

// ImageEvents publishes image lifecycle events to a single channel.
type ImageEvents struct {
	mq      *MQ
	channel string
}

func NewImageEvents(mq *MQ, channel string) *ImageEvents {
	return &ImageEvents{mq: mq, channel: channel}
}

// Release queues the object stored under key for deletion.
func (e *ImageEvents) Release(ctx context.Context, recipeID int, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}

	_, err := e.mq.PublishEvent(ctx, e.channel, EventImageReleased, ImageReleasedEvent{
		Type:      EventImageReleased,
		RecipeID:  recipeID,
		ObjectKey: key,
	})
	return err
}

// ObjectDeleter removes stored objects by key.
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// ImageJanitor returns a Handler that deletes released images.
// Malformed or unknown messages are logged and acknowledged.
func ImageJanitor(deleter ObjectDeleter, logger *zap.Logger) Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, msg Message) error {
		if t := msg.EventType(); t != "" && t != EventImageReleased {
			logger.Debug("ignoring event", zap.String("type", t))
			return nil
		}
		var event ImageReleasedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Warn("discarding malformed image event", zap.String("message_id", msg.ID), zap.Error(err))
			return nil
		}
		if event.Type != EventImageReleased {
			logger.Debug("ignoring image event", zap.String("type", event.Type))
			return nil
		}
		if strings.TrimSpace(event.ObjectKey) == "" {
			return nil
		}

		if err := deleter.Delete(ctx, event.ObjectKey); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error("failed to delete released image",
				zap.Int("recipe_id", event.RecipeID),
				zap.String("object_key", event.ObjectKey),
				zap.Error(err),
			)
			return err
		}
		logger.Info("deleted released image",
			zap.Int("recipe_id", event.RecipeID),
			zap.String("object_key", event.ObjectKey),
		)
		return nil
	}
}
