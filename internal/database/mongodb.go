package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
}

// Collection names
const (
	CollectionUsers           = "users"
	CollectionProjects        = "projects"
	CollectionArticles        = "articles"
	CollectionContactMessages = "contact_messages"
	CollectionChatSessions    = "chat_sessions"
	CollectionPageViews       = "page_views"
)

// NewMongoDB creates a new MongoDB connection with connection pooling
func NewMongoDB(uri string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	if dbName == "" {
		dbName = "folio"
	}

	db := &MongoDB{
		client:   client,
		database: client.Database(dbName),
		dbName:   dbName,
	}

	log.Printf("✅ Connected to MongoDB database: %s", dbName)

	return db, nil
}

// extractDBName extracts the database name from MongoDB URI
func extractDBName(uri string) string {
	// mongodb://localhost:27017/folio?authSource=admin -> folio
	lastSlash := -1
	questionMark := -1

	for i, c := range uri {
		if c == '/' {
			lastSlash = i
		}
		if c == '?' && questionMark == -1 {
			questionMark = i
		}
	}

	if lastSlash != -1 {
		start := lastSlash + 1
		end := len(uri)
		if questionMark != -1 && questionMark > lastSlash {
			end = questionMark
		}
		if start < end {
			name := uri[start:end]
			// A URI with no path lands here holding the host or credentials
			// segment ("host:27017", "user@host"); only a plain segment is a
			// database name.
			if !strings.ContainsAny(name, ":@/") {
				return name
			}
		}
	}

	return "folio"
}

// Initialize creates indexes for all collections.
// sessionRetention backs the TTL index on chat_sessions.updatedAt; the retention
// job prunes proactively, the TTL index is the backstop.
func (m *MongoDB) Initialize(ctx context.Context, sessionRetention time.Duration) error {
	log.Println("📦 Initializing MongoDB indexes...")

	if err := m.createIndexes(ctx, CollectionUsers, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionProjects, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sortOrder", Value: 1}, {Key: "updatedAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create projects indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionArticles, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "published", Value: 1}, {Key: "publishedAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create articles indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionContactMessages, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create contact_messages indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionChatSessions, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "updatedAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(sessionRetention.Seconds()))},
	}); err != nil {
		return fmt.Errorf("failed to create chat_sessions indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionPageViews, []mongo.IndexModel{
		{Keys: bson.D{{Key: "path", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 3600)}, // keep 90 days of views
	}); err != nil {
		return fmt.Errorf("failed to create page_views indexes: %w", err)
	}

	log.Println("✅ MongoDB indexes initialized successfully")
	return nil
}

// createIndexes creates indexes for a collection. An options conflict, such
// as a changed TTL window on an already-existing index, rebuilds the affected
// index instead of failing startup.
func (m *MongoDB) createIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	collection := m.database.Collection(collectionName)
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err == nil || !isIndexOptionsConflict(err) {
		return err
	}

	log.Printf("⚠️  Index options changed for %s, rebuilding conflicting indexes", collectionName)
	for _, index := range indexes {
		_, err := collection.Indexes().CreateOne(ctx, index)
		if err == nil {
			continue
		}
		if !isIndexOptionsConflict(err) {
			return err
		}

		name := defaultIndexName(index)
		if name == "" {
			return err
		}
		if _, err := collection.Indexes().DropOne(ctx, name); err != nil {
			return fmt.Errorf("failed to drop conflicting index %s: %w", name, err)
		}
		if _, err := collection.Indexes().CreateOne(ctx, index); err != nil {
			return err
		}
		log.Printf("✅ Rebuilt index %s on %s", name, collectionName)
	}
	return nil
}

// isIndexOptionsConflict reports whether err means an index already exists
// with different options or key specs
func isIndexOptionsConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 85 || cmdErr.Code == 86 ||
			cmdErr.Name == "IndexOptionsConflict" || cmdErr.Name == "IndexKeySpecsConflict"
	}
	return false
}

// defaultIndexName derives the server-side default name for an index
// ("updatedAt_1", "published_1_publishedAt_-1")
func defaultIndexName(index mongo.IndexModel) string {
	keys, ok := index.Keys.(bson.D)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s_%v", key.Key, key.Value))
	}
	return strings.Join(parts, "_")
}

// Collection returns a collection handle
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Client returns the underlying MongoDB client
func (m *MongoDB) Client() *mongo.Client {
	return m.client
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	log.Println("🔌 Closing MongoDB connection...")
	return m.client.Disconnect(ctx)
}

// Ping checks if the database connection is alive
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}
