// Package utils provides watermill message helpers shared by handlers and
// routers.
package utils

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Helpers is the message construction and payload handling contract used by
// every handler layer.
type Helpers interface {
	CreateResultMessage(original *message.Message, payload any, topic string) (*message.Message, error)
	CreateNewMessage(payload any, topic string) (*message.Message, error)
	UnmarshalPayload(msg *message.Message, out any) error
}

// HelperImpl is the default Helpers implementation.
type HelperImpl struct{}

// NewHelpers returns the default Helpers implementation.
func NewHelpers() Helpers {
	return &HelperImpl{}
}

// CreateResultMessage builds a message for the given topic, propagating the
// correlation ID from the original message.
func (h *HelperImpl) CreateResultMessage(original *message.Message, payload any, topic string) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result payload for %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	if original != nil {
		middleware.SetCorrelationID(middleware.MessageCorrelationID(original), msg)
	}
	return msg, nil
}

// CreateNewMessage builds a message for the given topic with a fresh
// correlation ID.
func (h *HelperImpl) CreateNewMessage(payload any, topic string) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	middleware.SetCorrelationID(watermill.NewUUID(), msg)
	return msg, nil
}

// UnmarshalPayload decodes a message payload into out.
func (h *HelperImpl) UnmarshalPayload(msg *message.Message, out any) error {
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
