package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"folio/internal/database"
	"folio/internal/models"
	"folio/pkg/auth"
)

var (
	// ErrEmailTaken means an account with that email already exists
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so responses don't reveal which accounts exist
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserService handles account registration and login
type UserService struct {
	db *database.MongoDB
}

// NewUserService creates a user service
func NewUserService(db *database.MongoDB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) collection() *mongo.Collection {
	return s.db.Collection(database.CollectionUsers)
}

// Register creates a new account with an argon2id-hashed password
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	count, err := s.collection().CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         "user",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := s.collection().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}

	return user, nil
}

// Authenticate verifies credentials and returns the account
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.collection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}
