// Package events mirrors RealtimeContainer lifecycle events onto Redis,
// using a hash-write-plus-publish pattern so dashboards can either poll
// the hash or subscribe to field changes. EventSink is optional: a nil
// *EventSink is a documented no-op, so pkg/realtime carries no Redis
// import of its own.
package events

import (
	"context"
	"fmt"
	"log"

	"github.com/daviswx/vantage-driver/pkg/realtime"
	"github.com/daviswx/vantage-driver/pkg/redis"
)

// HashKey is the Redis hash RealtimeContainer readings are mirrored into,
// with field-name changes published on the channel of the same name.
const HashKey = "weather:live"

// EventSink mirrors realtime.Event values onto Redis.
type EventSink struct {
	client *redis.Client
}

// NewEventSink wraps an already-connected Redis client.
func NewEventSink(client *redis.Client) *EventSink {
	return &EventSink{client: client}
}

// Publish mirrors ev onto Redis. A nil EventSink is a no-op, so callers can
// construct a RealtimeContainer with or without Redis wiring identically.
func (s *EventSink) Publish(ctx context.Context, ev realtime.Event) error {
	if s == nil {
		return nil
	}

	switch typed := ev.(type) {
	case realtime.EventValidUpdate:
		return s.publishReading(typed.Data)
	case realtime.EventUpdate:
		if typed.Err != nil {
			log.Printf("vantage-driver: fetch cycle failed: %v", typed.Err)
		}
		return nil
	case realtime.EventOpen, realtime.EventClose:
		return nil
	default:
		return nil
	}
}

// publishReading flattens the handful of fields downstream consumers
// (dashboards, automations) care about onto the weather:live hash.
func (s *EventSink) publishReading(data map[string]any) error {
	if temp, ok := data["temperature"].(map[string]any); ok {
		if out, ok := temp["out"].(float64); ok {
			if err := s.client.WriteAndPublishString(HashKey, "outTemp", fmt.Sprintf("%.1f", out)); err != nil {
				return err
			}
		}
	}
	if baro, ok := data["barometer"].(map[string]any); ok {
		if v, ok := baro["value"].(float64); ok {
			if err := s.client.WriteAndPublishString(HashKey, "barometer", fmt.Sprintf("%.3f", v)); err != nil {
				return err
			}
		}
	}
	if wind, ok := data["wind"].(map[string]any); ok {
		if speed, ok := wind["speed"].(uint8); ok {
			if err := s.client.WriteAndPublishInt(HashKey, "windSpeed", int(speed)); err != nil {
				return err
			}
		}
	}
	return nil
}
