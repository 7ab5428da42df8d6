package messaging

import (
	"fmt"

	"github.com/kmush12/PineLock/internal/infrastructure/mqtt"
)

// Subscriber is the slice of the MQTT client the bridge needs.
// Satisfied by *mqtt.Client; narrowed for tests.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Topics() mqtt.Topics
}

var _ Subscriber = (*mqtt.Client)(nil)

// Bridge connects the MQTT subscription side to the dispatcher.
//
// It subscribes to the five inbound device wildcards and feeds every
// received frame into the dispatcher keyed by device ID. Frames on
// topics that do not follow the device topic shape are dropped.
type Bridge struct {
	dispatcher *Dispatcher
	logger     Logger
}

// NewBridge creates a bridge feeding the given dispatcher.
func NewBridge(d *Dispatcher, logger Logger) *Bridge {
	return &Bridge{
		dispatcher: d,
		logger:     logger,
	}
}

// Attach subscribes to all inbound device topics on the client.
// After Attach returns, device frames flow into the dispatcher. The
// client restores these subscriptions itself on reconnect.
func (b *Bridge) Attach(sub Subscriber, qos byte) error {
	topics := sub.Topics()

	filters := []string{
		topics.AllStatus(),
		topics.AllAccess(),
		topics.AllHeartbeat(),
		topics.AllSync(),
		topics.AllAlert(),
	}

	for _, filter := range filters {
		if err := sub.Subscribe(filter, qos, b.route(topics)); err != nil {
			return fmt.Errorf("subscribe %s: %w", filter, err)
		}
	}

	if b.logger != nil {
		b.logger.Info("device subscriptions attached",
			"prefix", topics.Prefix(),
			"filters", len(filters))
	}

	return nil
}

// route builds the subscription callback. Parsing happens here so the
// dispatcher only ever sees well-formed device frames.
func (b *Bridge) route(topics mqtt.Topics) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		deviceID, messageType, ok := topics.Parse(topic)
		if !ok {
			if b.logger != nil {
				b.logger.Debug("dropping frame on malformed topic", "topic", topic)
			}
			return nil
		}

		b.dispatcher.Submit(deviceID, messageType, payload)
		return nil
	}
}
