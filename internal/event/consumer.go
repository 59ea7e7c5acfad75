package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"leaderboard-service/internal/config"
	"leaderboard-service/internal/models"

	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type Consumer interface {
	Start() error
	Close() error
}

// ActivityRecorder receives completed-session facts from the game and
// communication services and folds them into the student counters.
type ActivityRecorder interface {
	RecordSessionActivity(ctx context.Context, studentID bson.ObjectID, sessionType models.SessionType, gameType string, score int) error
}

type EventConsumer struct {
	conn             *amqp091.Connection
	channel          *amqp091.Channel
	queueName        string
	activityRecorder ActivityRecorder
	enabled          bool
}

// SessionCompletedData is the wire shape other services publish when a
// student finishes a game, call, chat or lecture.
type SessionCompletedData struct {
	Type        string   `json:"type"`
	SessionID   string   `json:"sessionId"`
	SessionType string   `json:"sessionType"`
	GameType    string   `json:"gameType,omitempty"`
	StudentIDs  []string `json:"studentIds"`
	Score       int      `json:"score,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

func NewEventConsumer(rabbitURI string, activityRecorder ActivityRecorder) (*EventConsumer, error) {
	if rabbitURI == "" {
		log.Println("Warning: RabbitMQ URI is empty, event consumption is disabled")
		return &EventConsumer{
			enabled: false,
		}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	exchangeName := config.ServiceConfig.RabbitMQ.Exchange
	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queueName := config.ServiceConfig.RabbitMQ.QueueName
	queue, err := channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		queue.Name,                // queue name
		EventTypeSessionCompleted, // routing key
		exchangeName,              // exchange
		false,                     // no-wait
		nil,                       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &EventConsumer{
		conn:             conn,
		channel:          channel,
		queueName:        queue.Name,
		activityRecorder: activityRecorder,
		enabled:          true,
	}, nil
}

func (c *EventConsumer) Start() error {
	if !c.enabled {
		log.Println("Event consumption is disabled")
		return nil
	}

	err := c.channel.Qos(
		10,    // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := c.processMessage(msg); err != nil {
				log.Printf("Failed to process message: %v", err)
				msg.Nack(false, true) // Nack and requeue
			} else {
				msg.Ack(false)
			}
		}
	}()

	log.Println("Activity event consumer started, waiting for messages...")
	return nil
}

func (c *EventConsumer) processMessage(msg amqp091.Delivery) error {
	log.Printf("Received message with routing key: %s", msg.RoutingKey)

	switch msg.RoutingKey {
	case EventTypeSessionCompleted:
		return c.handleSessionCompleted(msg.Body)
	default:
		log.Printf("Unknown routing key: %s", msg.RoutingKey)
		return nil // Don't requeue unknown message types
	}
}

// handleSessionCompleted folds one session event into the participant
// counters. Malformed payloads are logged and dropped rather than returned as
// errors: a requeue would redeliver them forever. Only transient store
// failures propagate up for a requeue.
func (c *EventConsumer) handleSessionCompleted(body []byte) error {
	var sessionEvent SessionCompletedData
	if err := json.Unmarshal(body, &sessionEvent); err != nil {
		log.Printf("Dropping malformed session event: %v", err)
		return nil
	}

	log.Printf("Processing session event: %s session %s with %d participants",
		sessionEvent.SessionType, sessionEvent.SessionID, len(sessionEvent.StudentIDs))

	if len(sessionEvent.StudentIDs) == 0 {
		log.Printf("No student IDs in session event, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, studentID := range sessionEvent.StudentIDs {
		studentObjectID, err := bson.ObjectIDFromHex(studentID)
		if err != nil {
			log.Printf("Dropping student %q in session event %s: invalid ID format: %v",
				studentID, sessionEvent.SessionID, err)
			continue
		}

		err = c.activityRecorder.RecordSessionActivity(
			ctx,
			studentObjectID,
			models.SessionType(sessionEvent.SessionType),
			sessionEvent.GameType,
			sessionEvent.Score,
		)
		if err != nil {
			// Validation failures and unknown students are permanent;
			// redelivery cannot fix them.
			if err == mongo.ErrNoDocuments || strings.Contains(err.Error(), "validation failed") {
				log.Printf("Dropping student %s in session event %s: %v",
					studentID, sessionEvent.SessionID, err)
				continue
			}
			return fmt.Errorf("failed to record session activity: %w", err)
		}
	}

	log.Printf("Successfully processed session event for session %s", sessionEvent.SessionID)
	return nil
}

func (c *EventConsumer) Close() error {
	if !c.enabled {
		return nil
	}

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}

	return nil
}
