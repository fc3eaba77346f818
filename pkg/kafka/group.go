package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// GroupConfig configures the consumers of one service.
type GroupConfig struct {
	Brokers   []string
	Service   string
	EnableDLQ bool
}

// Group runs one Consumer per topic, all feeding the same handler. Each topic
// gets its own consumer group, "<service>-<topic>", so topics rebalance
// independently.
type Group struct {
	consumers []*Consumer
	topics    []string
	logger    *slog.Logger
}

// NewGroup creates a consumer for every topic.
func NewGroup(cfg GroupConfig, topics []string, handler Handler, logger *slog.Logger) *Group {
	g := &Group{topics: topics, logger: logger}
	for _, topic := range topics {
		g.consumers = append(g.consumers, NewConsumer(ConsumerConfig{
			Brokers:   cfg.Brokers,
			GroupID:   cfg.Service + "-" + topic,
			Topic:     topic,
			MinBytes:  1,
			MaxBytes:  10e6,
			EnableDLQ: cfg.EnableDLQ,
		}, handler, logger))
	}
	return g
}

// Topics returns the subscribed topics.
func (g *Group) Topics() []string { return g.topics }

// Start runs every consumer until ctx is cancelled. It returns the first
// consumer error, after which the remaining consumers keep running until ctx
// ends or Close is called.
func (g *Group) Start(ctx context.Context) error {
	errCh := make(chan error, len(g.consumers))
	for i, c := range g.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("consumer %s: %w", g.topics[i], err)
				return
			}
			errCh <- nil
		}()
	}

	for range g.consumers {
		if err := <-errCh; err != nil {
			return err
		}
	}
	return nil
}

// Close closes every consumer.
func (g *Group) Close() error {
	var errs []error
	for _, c := range g.consumers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
