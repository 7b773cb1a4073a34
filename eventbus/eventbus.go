// Package eventbus provides the NATS JetStream-backed watermill publisher and
// subscriber shared by every module.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nkeys"
)

// EventBus is the publish/subscribe contract handed to routers and modules.
// It satisfies both watermill interfaces so it can be wired directly into a
// message.Router.
type EventBus interface {
	message.Publisher
	message.Subscriber
	CreateStream(ctx context.Context, streamName string, subjects ...string) error
	Close() error
}

// Config holds the connection settings for the bus.
type Config struct {
	URL string
	// NKeySeed optionally authenticates the connection with an nkey seed.
	NKeySeed string
	// AppName is used as the NATS connection name.
	AppName string
}

type eventBus struct {
	publisher      message.Publisher
	subscriber     message.Subscriber
	js             jetstream.JetStream
	natsConn       *nc.Conn
	logger         *slog.Logger
	createdStreams map[string]bool
	streamMutex    sync.Mutex
}

// New connects to NATS JetStream and builds the watermill publisher and
// subscriber on top of it.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (EventBus, error) {
	opts := []nc.Option{
		nc.Name(cfg.AppName),
		nc.RetryOnFailedConnect(true),
	}

	if cfg.NKeySeed != "" {
		kp, err := nkeys.FromSeed([]byte(cfg.NKeySeed))
		if err != nil {
			return nil, fmt.Errorf("failed to parse nkey seed: %w", err)
		}
		pub, err := kp.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
		}
		opts = append(opts, nc.Nkey(pub, kp.Sign))
	}

	natsConn, err := nc.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	watermillLogger := watermill.NewSlogLogger(logger)
	marshaller := &wmnats.NATSMarshaler{}

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:         cfg.URL,
			Marshaler:   marshaller,
			NatsOptions: opts,
		},
		watermillLogger,
	)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to create watermill publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(
		wmnats.SubscriberConfig{
			URL:         cfg.URL,
			Unmarshaler: marshaller,
			NatsOptions: opts,
		},
		watermillLogger,
	)
	if err != nil {
		natsConn.Close()
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create watermill subscriber: %w", err)
	}

	return &eventBus{
		publisher:      publisher,
		subscriber:     subscriber,
		js:             js,
		natsConn:       natsConn,
		logger:         logger,
		createdStreams: make(map[string]bool),
	}, nil
}

// Publish sends messages to the given topic. When topic is empty, the topic
// is read from each message's "topic" metadata so routers can fan out to
// handler-chosen destinations.
func (eb *eventBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		target := topic
		if target == "" {
			target = msg.Metadata.Get("topic")
		}
		if target == "" {
			return errors.New("message has no topic: neither argument nor metadata set")
		}

		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}

		if err := eb.publisher.Publish(target, msg); err != nil {
			eb.logger.Error("Failed to publish message",
				slog.String("topic", target),
				slog.Any("error", err),
			)
			return fmt.Errorf("failed to publish to %s: %w", target, err)
		}

		eb.logger.Debug("Message published",
			slog.String("topic", target),
			slog.String("message_id", msg.UUID),
		)
	}
	return nil
}

// Subscribe returns a channel of messages for the given topic.
func (eb *eventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	eb.logger.Info("Subscribing to topic", slog.String("topic", topic))
	return eb.subscriber.Subscribe(ctx, topic)
}

// CreateStream provisions a JetStream stream covering the given subjects,
// updating the subject list of an existing stream when needed. Safe to call
// repeatedly.
func (eb *eventBus) CreateStream(ctx context.Context, streamName string, subjects ...string) error {
	eb.streamMutex.Lock()
	defer eb.streamMutex.Unlock()

	if eb.createdStreams[streamName] {
		return nil
	}

	stream, err := eb.js.Stream(ctx, streamName)
	if err != nil && !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to check stream %s: %w", streamName, err)
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := eb.js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     streamName,
			Subjects: subjects,
		}); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", streamName, err)
		}
		eb.logger.Info("Stream created", slog.String("stream", streamName))
	} else {
		info, err := stream.Info(ctx)
		if err != nil {
			return fmt.Errorf("failed to get stream info for %s: %w", streamName, err)
		}

		missing := missingSubjects(info.Config.Subjects, subjects)
		if len(missing) > 0 {
			info.Config.Subjects = append(info.Config.Subjects, missing...)
			if _, err := eb.js.UpdateStream(ctx, info.Config); err != nil {
				return fmt.Errorf("failed to update stream %s subjects: %w", streamName, err)
			}
			eb.logger.Info("Stream subjects updated",
				slog.String("stream", streamName),
				slog.Any("added", missing),
			)
		}
	}

	eb.createdStreams[streamName] = true
	return nil
}

func missingSubjects(existing, wanted []string) []string {
	have := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		have[s] = struct{}{}
	}
	var missing []string
	for _, s := range wanted {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// Close releases all watermill and NATS resources.
func (eb *eventBus) Close() error {
	if eb.publisher != nil {
		if err := eb.publisher.Close(); err != nil {
			eb.logger.Error("Error closing publisher", slog.Any("error", err))
		}
	}
	if eb.subscriber != nil {
		if err := eb.subscriber.Close(); err != nil {
			eb.logger.Error("Error closing subscriber", slog.Any("error", err))
		}
	}
	if eb.natsConn != nil {
		eb.natsConn.Close()
	}
	return nil
}
