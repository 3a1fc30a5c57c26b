package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/internal/database"
	"folio/internal/models"
	"folio/internal/queue"
)

// ContactService stores contact-form submissions and enqueues the
// notification email. Storing succeeds even if the email can never be sent.
type ContactService struct {
	db     *database.MongoDB
	queue  *queue.Queue
	mailer *MailerService
}

// NewContactService creates a contact service
func NewContactService(db *database.MongoDB, q *queue.Queue, mailer *MailerService) *ContactService {
	return &ContactService{db: db, queue: q, mailer: mailer}
}

// Submit stores the message, then enqueues the notification (best-effort)
func (s *ContactService) Submit(ctx context.Context, msg *models.ContactMessage) error {
	msg.CreatedAt = time.Now()

	_, err := s.db.Collection(database.CollectionContactMessages).InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}

	if s.mailer.Enabled() {
		if err := s.queue.Enqueue(ctx, JobTypeContactEmail, msg); err != nil {
			log.Printf("⚠️  [CONTACT] Failed to enqueue notification: %v", err)
		}
	}

	return nil
}

// List returns stored messages, newest first
func (s *ContactService) List(ctx context.Context, limit int64) ([]models.ContactMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := s.db.Collection(database.CollectionContactMessages).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.ContactMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode contact messages: %w", err)
	}
	return messages, nil
}
