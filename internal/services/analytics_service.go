package services

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/internal/database"
	"folio/internal/models"
)

const analyticsBuffer = 1024

// AnalyticsService records page views without ever touching the request
// path's latency: Track drops the event into a bounded channel and a single
// background goroutine drains it into Mongo. When the channel is full the
// event is dropped.
type AnalyticsService struct {
	db     *database.MongoDB
	events chan models.PageView
	done   chan struct{}

	// closed guards the events channel: Track must become a no-op once
	// Close has run, or a late request would send on a closed channel.
	mu     sync.RWMutex
	closed bool
}

// NewAnalyticsService creates the sink and starts its drain goroutine.
// A nil db disables analytics entirely.
func NewAnalyticsService(db *database.MongoDB) *AnalyticsService {
	s := &AnalyticsService{
		db:     db,
		events: make(chan models.PageView, analyticsBuffer),
		done:   make(chan struct{}),
	}
	go s.drain()
	return s
}

// Track records one page view. Never blocks, and is a no-op after Close.
func (s *AnalyticsService) Track(view models.PageView) {
	if s.db == nil {
		return // Analytics disabled
	}

	if view.CreatedAt.IsZero() {
		view.CreatedAt = time.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.events <- view:
	default:
		log.Printf("⚠️  [ANALYTICS] Buffer full, dropping page view for %s", view.Path)
	}
}

func (s *AnalyticsService) drain() {
	for view := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_, err := s.db.Collection(database.CollectionPageViews).InsertOne(ctx, view)
		cancel()
		if err != nil {
			log.Printf("⚠️  [ANALYTICS] Failed to record page view: %v", err)
		}
	}
	close(s.done)
}

// Recent returns the most recent page views, newest first
func (s *AnalyticsService) Recent(ctx context.Context, limit int64) ([]models.PageView, error) {
	if s.db == nil {
		return []models.PageView{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := s.db.Collection(database.CollectionPageViews).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	views := []models.PageView{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// Close flushes buffered events and stops the drain goroutine.
// Idempotent; events tracked after Close are dropped.
func (s *AnalyticsService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		log.Println("⚠️  [ANALYTICS] Flush timed out, some events lost")
	}
}
