package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is one portfolio entry
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Tech        []string           `bson:"tech,omitempty" json:"tech,omitempty"`
	RepoURL     string             `bson:"repoUrl,omitempty" json:"repo_url,omitempty"`
	LiveURL     string             `bson:"liveUrl,omitempty" json:"live_url,omitempty"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"image_url,omitempty"`
	SortOrder   int                `bson:"sortOrder" json:"sort_order"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}
