package messaging

import (
	"context"
	"errors"
	"time"
)

// Vendor represents the name of a messaging vendor
type Vendor string

const (
	// VendorMemory keeps messages in process; they are lost on restart.
	VendorMemory Vendor = "memory"
	// VendorFS keeps messages as JSON files under a base URL (local path or any afs scheme).
	VendorFS Vendor = "fs"
)

// ErrSettled is returned when a message is acked or nacked twice.
var ErrSettled = errors.New("message already settled")

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or ctx is done
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// ID returns the queue assigned message id
	ID() string

	// T returns the payload of this message
	T() *T

	// Attempt returns the 1-based delivery attempt
	Attempt() int

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure; the message is redelivered until retries run out
	Nack(err error) error
}

// Config defines queue settings shared by all vendors
type Config struct {
	Vendor       Vendor        `json:"vendor" yaml:"vendor"`
	BaseURL      string        `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Buffer       int           `json:"buffer,omitempty" yaml:"buffer,omitempty"`
	MaxRetries   int           `json:"maxRetries" yaml:"maxRetries"`
	RetryDelay   time.Duration `json:"retryDelay" yaml:"retryDelay"`
	PollInterval time.Duration `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
}

// DefaultConfig returns an in-memory queue configuration
func DefaultConfig() Config {
	return Config{
		Vendor:       VendorMemory,
		Buffer:       256,
		MaxRetries:   3,
		RetryDelay:   500 * time.Millisecond,
		PollInterval: 200 * time.Millisecond,
	}
}
