package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Broadcaster is the local delivery leg of the gateway, implemented by the
// websocket hub.
type Broadcaster interface {
	Broadcast(roomID string, message []byte)
}

// BroadcastConsumer subscribes to every room topic and hands incoming
// messages to the hub for delivery to connected clients.
type BroadcastConsumer struct {
	rmq *RabbitMQ
	hub Broadcaster
}

func NewBroadcastConsumer(rmq *RabbitMQ, hub Broadcaster) *BroadcastConsumer {
	return &BroadcastConsumer{
		rmq: rmq,
		hub: hub,
	}
}

// Start binds an auto-named queue to room.# on the messages exchange and
// pumps deliveries into the hub until ctx is cancelled.
func (c *BroadcastConsumer) Start(ctx context.Context) error {
	queue, err := c.rmq.channel.QueueDeclare(
		"",    // auto-generated name
		false, // durable
		true,  // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	if err := c.rmq.channel.QueueBind(
		queue.Name,       // queue name
		"room.#",         // routing key, # so room ids with dots still route
		messagesExchange, // exchange
		false,
		nil,
	); err != nil {
		return err
	}

	msgs, err := c.rmq.channel.Consume(
		queue.Name, // queue
		"",         // consumer
		true,       // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return err
	}

	slog.Info("started consuming broadcast messages",
		slog.String("queue", queue.Name),
		slog.String("exchange", messagesExchange))

	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping broadcast consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Warn("broadcast consumer channel closed")
					return
				}

				var envelope Envelope
				if err := json.Unmarshal(msg.Body, &envelope); err != nil {
					slog.Error("discarding malformed broadcast message",
						slog.String("error", err.Error()))
					continue
				}

				c.hub.Broadcast(envelope.RoomID, msg.Body)
			}
		}
	}()

	return nil
}
