package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"folio/internal/services"
	"folio/pkg/auth"
)

// AuthHandler handles registration, login and token refresh
type AuthHandler struct {
	users   *services.UserService
	jwtAuth *auth.JWTAuth
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(users *services.UserService, jwtAuth *auth.JWTAuth) *AuthHandler {
	return &AuthHandler{users: users, jwtAuth: jwtAuth}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new account and returns a token pair
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	user, err := h.users.Register(c.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already registered"})
		}
		// Password policy violations carry a safe, user-facing message
		if pwErr := auth.ValidatePassword(req.Password); pwErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": pwErr.Error()})
		}
		log.Printf("❌ [AUTH] Registration failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	return h.respondWithTokens(c, fiber.StatusCreated, user.ID.Hex(), user.Email, user.Role)
}

// Login verifies credentials and returns a token pair
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	user, err := h.users.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
		}
		log.Printf("❌ [AUTH] Login failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
	}

	return h.respondWithTokens(c, fiber.StatusOK, user.ID.Hex(), user.Email, user.Role)
}

// Refresh exchanges a valid refresh token for a new token pair
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Refresh token is required"})
	}

	claims, err := h.jwtAuth.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired refresh token"})
	}

	return h.respondWithTokens(c, fiber.StatusOK, claims.UserID, claims.Email, claims.Role)
}

func (h *AuthHandler) respondWithTokens(c *fiber.Ctx, status int, userID, email, role string) error {
	accessToken, refreshToken, err := h.jwtAuth.GenerateTokens(userID, email, role)
	if err != nil {
		log.Printf("❌ [AUTH] Token generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Token generation failed"})
	}

	return c.Status(status).JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": fiber.Map{
			"id":    userID,
			"email": email,
			"role":  role,
		},
	})
}
