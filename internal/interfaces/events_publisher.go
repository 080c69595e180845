package interfaces

import "context"

// EventPublisher sends domain events to a topic. key groups events that must stay ordered.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
