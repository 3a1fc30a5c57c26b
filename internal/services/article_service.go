package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/internal/cache"
	"folio/internal/database"
	"folio/internal/models"
)

// ArticleService handles blog article CRUD. Public reads go through the
// cache layer; writes invalidate the affected keys.
type ArticleService struct {
	db       *database.MongoDB
	cache    cache.Store
	cacheTTL time.Duration
}

// NewArticleService creates an article service
func NewArticleService(db *database.MongoDB, store cache.Store, cacheTTL time.Duration) *ArticleService {
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ArticleService{db: db, cache: store, cacheTTL: cacheTTL}
}

func (s *ArticleService) collection() *mongo.Collection {
	return s.db.Collection(database.CollectionArticles)
}

func articleCacheKey(slug string) string {
	return "article:" + slug
}

// ListPublished returns published articles, newest first
func (s *ArticleService) ListPublished(ctx context.Context) ([]models.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}})
	cursor, err := s.collection().Find(ctx, bson.M{"published": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer cursor.Close(ctx)

	articles := []models.Article{}
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("failed to decode articles: %w", err)
	}
	return articles, nil
}

// GetBySlug returns one published article, served from cache when possible
func (s *ArticleService) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	if cached, ok := s.cache.Get(ctx, articleCacheKey(slug)); ok {
		var article models.Article
		if err := json.Unmarshal([]byte(cached), &article); err == nil {
			return &article, nil
		}
		// Malformed cached payload: drop it and fall through to Mongo
		log.Printf("⚠️  [ARTICLES] Corrupt cache entry for %s, invalidating", slug)
		s.cache.Delete(ctx, articleCacheKey(slug))
	}

	var article models.Article
	err := s.collection().FindOne(ctx, bson.M{"slug": slug, "published": true}).Decode(&article)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}

	if data, err := json.Marshal(article); err == nil {
		s.cache.Set(ctx, articleCacheKey(slug), string(data), s.cacheTTL)
	}

	return &article, nil
}

// Create inserts a new article
func (s *ArticleService) Create(ctx context.Context, article *models.Article) error {
	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.Published && article.PublishedAt == nil {
		article.PublishedAt = &now
	}

	result, err := s.collection().InsertOne(ctx, article)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("slug %q already exists", article.Slug)
		}
		return fmt.Errorf("failed to create article: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		article.ID = oid
	}
	return nil
}

// Update replaces an article's editable fields and invalidates its cache entry
func (s *ArticleService) Update(ctx context.Context, id string, article *models.Article) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	now := time.Now()
	set := bson.M{
		"slug":      article.Slug,
		"title":     article.Title,
		"summary":   article.Summary,
		"content":   article.Content,
		"tags":      article.Tags,
		"published": article.Published,
		"updatedAt": now,
	}
	if article.Published && article.PublishedAt == nil {
		set["publishedAt"] = now
	}

	result, err := s.collection().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	s.cache.Delete(ctx, articleCacheKey(article.Slug))
	return nil
}

// Delete removes an article and invalidates its cache entry
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	var article models.Article
	err = s.collection().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&article)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	s.cache.Delete(ctx, articleCacheKey(article.Slug))
	return nil
}
