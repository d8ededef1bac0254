package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	attrContentType = "content-type"
	attrEventType   = "event-type"

	contentTypeJSON = "application/json"
)

// Message is a broker-agnostic delivery handed to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// EventType returns the event-type attribute, if the publisher set one.
func (m Message) EventType() string {
	return m.Attributes[attrEventType]
}

// Handler processes a message. Returning an error nacks the delivery.
type Handler func(ctx context.Context, msg Message) error

// Backend is implemented by the RabbitMQ and Pub/Sub clients.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with the operations the application uses.
type MQ struct {
	backend Backend
}

func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Publish sends raw bytes to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// PublishEvent encodes event as JSON and tags it with eventType so
// consumers can route without decoding the body.
func (m *MQ) PublishEvent(ctx context.Context, channel, eventType string, event any) (string, error) {
	if eventType == "" {
		return "", errors.New("event type is required")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return m.backend.Publish(ctx, channel, body, map[string]string{
		attrContentType: contentTypeJSON,
		attrEventType:   eventType,
	})
}

// Subscribe blocks consuming the named channel until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

func (m *MQ) Close() error {
	if m == nil {
		return nil
	}
	return m.backend.Close()
}
