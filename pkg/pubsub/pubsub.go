// Package pubsub fans generation events out to web subscribers.
package pubsub

import (
	"context"
	"encoding/json"
)

// Topics
const (
	TopicGenerationStatus = "generation_status" // Progress of the current run
	TopicClassModel       = "class_model"       // A new model is available
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // e.g. "generation_status", "class_model"
	Type    string          `json:"type"`    // e.g. "parsing", "emitting", "ready", "updated"
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Per-topic sequence number
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation will close the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	Close() error
}

// GenerationStatus is the payload of generation_status events
type GenerationStatus struct {
	State   string `json:"state"`   // parsing, indexing, building, checking, emitting, ready, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
}

// ModelSummary is the payload of class_model events
type ModelSummary struct {
	Model         string `json:"model"`
	Classes       int    `json:"classes"`
	Fields        int    `json:"fields"`
	Relationships int    `json:"relationships"`
	Unresolved    int    `json:"unresolved"`
}

// DefaultTopics configures replay for the topics the web UI subscribes to:
// late subscribers see the latest status and the latest model.
func DefaultTopics(p *SSEPublisher) {
	p.ConfigureTopic(TopicGenerationStatus, TopicConfig{BufferSize: 10, ReplayAll: false})
	p.ConfigureTopic(TopicClassModel, TopicConfig{BufferSize: 1, ReplayAll: false})
}
