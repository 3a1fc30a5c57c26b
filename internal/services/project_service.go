package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/internal/database"
	"folio/internal/models"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = errors.New("not found")

// ProjectService handles portfolio project CRUD
type ProjectService struct {
	db *database.MongoDB
}

// NewProjectService creates a project service
func NewProjectService(db *database.MongoDB) *ProjectService {
	return &ProjectService{db: db}
}

func (s *ProjectService) collection() *mongo.Collection {
	return s.db.Collection(database.CollectionProjects)
}

// List returns all projects ordered for display
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}, {Key: "updatedAt", Value: -1}})
	cursor, err := s.collection().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// Get returns one project by hex ID
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var project models.Project
	err = s.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &project, nil
}

// Create inserts a new project
func (s *ProjectService) Create(ctx context.Context, project *models.Project) error {
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	result, err := s.collection().InsertOne(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		project.ID = oid
	}
	return nil
}

// Update replaces a project's editable fields
func (s *ProjectService) Update(ctx context.Context, id string, project *models.Project) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"title":       project.Title,
		"description": project.Description,
		"tech":        project.Tech,
		"repoUrl":     project.RepoURL,
		"liveUrl":     project.LiveURL,
		"imageUrl":    project.ImageURL,
		"sortOrder":   project.SortOrder,
		"updatedAt":   time.Now(),
	}}

	result, err := s.collection().UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.collection().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
