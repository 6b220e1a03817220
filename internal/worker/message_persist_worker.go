package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"agentboard/internal/model"
	"agentboard/internal/platform/rabbitmq"
	"agentboard/internal/repository"
)

// MessagePersistWorker drains the persist queue: it writes messages to the
// database, touches the owning session, and counts assistant replies against
// the user's lifetime totals.
type MessagePersistWorker struct {
	conn        *amqp.Connection
	messageRepo *repository.MessageRepository
	sessionRepo *repository.SessionRepository
	userRepo    *repository.UserRepository
	queueName   string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMessagePersistWorker(
	conn *amqp.Connection,
	messageRepo *repository.MessageRepository,
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	queueName string,
) *MessagePersistWorker {
	return &MessagePersistWorker{
		conn:        conn,
		messageRepo: messageRepo,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		queueName:   queueName,
	}
}

func (w *MessagePersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var msg model.Message
				if err := json.Unmarshal(d.Body, &msg); err != nil {
					log.Printf("worker decode message failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.persist(&msg); err != nil {
					log.Printf("worker persist message failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *MessagePersistWorker) persist(msg *model.Message) error {
	if err := w.messageRepo.Create(msg); err != nil {
		return err
	}

	if err := w.sessionRepo.TouchLastMessage(msg.SessionID, msg.CreatedAt); err != nil {
		log.Printf("worker touch session failed: %v", err)
	}
	if msg.Role == model.RoleAssistant {
		if err := w.userRepo.IncrementMessagesTotal(msg.UserID, 1); err != nil {
			log.Printf("worker bump user counter failed: %v", err)
		}
	}
	return nil
}

func (w *MessagePersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
