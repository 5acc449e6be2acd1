package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aseguraplus/SeguroPay/internal/pkg/cache"
)

const (
	// Redis keys
	OutcomeQueueKey      = "payment_outcomes"
	OutcomeProcessingKey = "payment_outcomes_processing"

	// Delivery settings
	DefaultMaxAttempts = 3
	retryDelay         = 5 * time.Second
)

// OutcomeMessage is one queued payment outcome awaiting delivery.
type OutcomeMessage struct {
	ID        string    `json:"id"`
	PaymentID uuid.UUID `json:"payment_id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// Sender delivers one outcome to its destination (mail, push, a downstream
// system). Implementations must tolerate redelivery of the same message.
type Sender interface {
	SendPaymentOutcome(ctx context.Context, msg OutcomeMessage) error
}

// Queue buffers payment outcome notifications in Redis and delivers them
// asynchronously. Enqueue happens after the payment transaction committed, so
// a lost message can always be reconstructed from the payment row.
type Queue struct {
	client  *redis.Client
	sender  Sender
	workers int
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueue creates an outcome queue backed by the shared Redis client.
func NewQueue(sender Sender, workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		client:  cache.GetClient(),
		sender:  sender,
		workers: workers,
		stopCh:  make(chan struct{}),
	}
}

// EnqueuePaymentOutcome queues one settled outcome for delivery. It satisfies
// the payments service's notifier contract.
func (q *Queue) EnqueuePaymentOutcome(ctx context.Context, paymentID, userID uuid.UUID, status string) error {
	msg := OutcomeMessage{
		ID:        uuid.New().String(),
		PaymentID: paymentID,
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	if err := q.client.LPush(ctx, OutcomeQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue outcome: %w", err)
	}
	return nil
}

// Start launches the delivery workers.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true
	log.Infof("[Notify] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop stops the delivery workers and waits for in-flight deliveries.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}
	log.Info("[Notify] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[Notify] All workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log.Infof("[Notify] Worker %d started", id)

	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Infof("[Notify] Worker %d stopping", id)
			return
		default:
			msg, err := q.dequeue(ctx)
			if err != nil {
				if err != redis.Nil {
					log.Errorf("[Notify] Worker %d: dequeue error: %v", id, err)
				}
				time.Sleep(time.Second)
				continue
			}
			if msg != nil {
				q.deliver(ctx, msg)
			}
		}
	}
}

// dequeue moves one message from the pending list into the processing list.
func (q *Queue) dequeue(ctx context.Context) (*OutcomeMessage, error) {
	data, err := q.client.BRPopLPush(ctx, OutcomeQueueKey, OutcomeProcessingKey, time.Second).Result()
	if err != nil {
		return nil, err
	}

	var msg OutcomeMessage
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		q.client.LRem(ctx, OutcomeProcessingKey, 1, data)
		return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
	}
	return &msg, nil
}

func (q *Queue) deliver(ctx context.Context, msg *OutcomeMessage) {
	raw, _ := json.Marshal(msg)

	err := q.sender.SendPaymentOutcome(ctx, *msg)
	if err == nil {
		q.client.LRem(ctx, OutcomeProcessingKey, 1, raw)
		return
	}

	log.Errorf("[Notify] Delivery of outcome %s failed: %v", msg.ID, err)
	q.client.LRem(ctx, OutcomeProcessingKey, 1, raw)

	msg.Attempts++
	if msg.Attempts >= DefaultMaxAttempts {
		log.Warnf("[Notify] Dropping outcome %s after %d attempts (payment %s)",
			msg.ID, msg.Attempts, msg.PaymentID)
		return
	}

	time.Sleep(retryDelay)
	data, merr := json.Marshal(msg)
	if merr != nil {
		log.Errorf("[Notify] Failed to re-marshal outcome %s: %v", msg.ID, merr)
		return
	}
	if rerr := q.client.RPush(ctx, OutcomeQueueKey, data).Err(); rerr != nil {
		log.Errorf("[Notify] Failed to requeue outcome %s: %v", msg.ID, rerr)
	}
}
