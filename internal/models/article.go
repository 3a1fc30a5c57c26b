package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Article is one blog post. Public reads go through the cache layer,
// keyed by slug.
type Article struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug        string             `bson:"slug" json:"slug"`
	Title       string             `bson:"title" json:"title"`
	Summary     string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Content     string             `bson:"content" json:"content"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Published   bool               `bson:"published" json:"published"`
	PublishedAt *time.Time         `bson:"publishedAt,omitempty" json:"published_at,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}
