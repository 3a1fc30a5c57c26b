package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Handler processes one job payload
type Handler func(ctx context.Context, payload json.RawMessage) error

// Job is the wire format pushed onto the Redis list
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	jobsKey        = "folio:jobs"
	popTimeout     = 2 * time.Second
	handlerTimeout = 30 * time.Second
)

// Queue delivers jobs to registered handlers. With a Redis client it is a
// list-backed queue drained by a background worker. Without one (fallback
// mode) Enqueue runs the handler immediately in a goroutine. Delivery is
// best-effort either way, jobs do not survive a crash.
type Queue struct {
	client   *redis.Client // nil in fallback mode
	handlers map[string]Handler
	mu       sync.RWMutex
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a queue. Pass a nil client to run in local fallback mode.
func New(client *redis.Client) *Queue {
	q := &Queue{
		client:   client,
		handlers: make(map[string]Handler),
		done:     make(chan struct{}),
	}
	if client == nil {
		log.Println("⚠️  [QUEUE] Running in local mode: jobs execute in-process without persistence")
	}
	return q
}

// Register binds a handler to a job type. Call before Start.
func (q *Queue) Register(jobType string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
	log.Printf("✅ [QUEUE] Registered handler: %s", jobType)
}

// Enqueue submits a job. It never blocks the caller on delivery and never
// returns a remote failure: if the Redis push fails, the job runs locally.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{Type: jobType, Payload: data}

	if q.client != nil {
		encoded, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		if err := q.client.LPush(ctx, jobsKey, encoded).Err(); err == nil {
			return nil
		} else {
			log.Printf("⚠️  [QUEUE] Redis push failed, executing %s locally: %v", jobType, err)
		}
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.dispatch(job)
	}()
	return nil
}

// Start launches the background worker. No-op in fallback mode.
func (q *Queue) Start() {
	if q.client == nil {
		return
	}

	q.wg.Add(1)
	go q.worker()
	log.Println("🚀 [QUEUE] Worker started")
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.done:
			return
		default:
		}

		result, err := q.client.BRPop(context.Background(), popTimeout, jobsKey).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			log.Printf("⚠️  [QUEUE] Pop failed: %v", err)
			select {
			case <-q.done:
				return
			case <-time.After(time.Second):
			}
			continue
		}

		// BRPop returns [key, value]
		if len(result) != 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("⚠️  [QUEUE] Discarding malformed job: %v", err)
			continue
		}

		q.dispatch(job)
	}
}

func (q *Queue) dispatch(job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ [QUEUE] Panic in %s handler: %v", job.Type, r)
		}
	}()

	q.mu.RLock()
	handler, ok := q.handlers[job.Type]
	q.mu.RUnlock()

	if !ok {
		log.Printf("⚠️  [QUEUE] No handler for job type: %s", job.Type)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := handler(ctx, job.Payload); err != nil {
		log.Printf("⚠️  [QUEUE] Job %s failed: %v", job.Type, err)
	}
}

// Close stops the worker and waits for in-flight jobs
func (q *Queue) Close() {
	close(q.done)
	q.wg.Wait()
	log.Println("🔌 [QUEUE] Stopped")
}
