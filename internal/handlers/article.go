package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"folio/internal/models"
	"folio/internal/services"
)

// ArticleHandler exposes article CRUD. Public reads hit the cache layer.
type ArticleHandler struct {
	articles *services.ArticleService
}

// NewArticleHandler creates an article handler
func NewArticleHandler(articles *services.ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

// List handles GET /api/articles
func (h *ArticleHandler) List(c *fiber.Ctx) error {
	articles, err := h.articles.ListPublished(c.Context())
	if err != nil {
		log.Printf("❌ [ARTICLES] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.JSON(fiber.Map{"articles": articles})
}

// Get handles GET /api/articles/:slug
func (h *ArticleHandler) Get(c *fiber.Ctx) error {
	article, err := h.articles.GetBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Article not found"})
		}
		log.Printf("❌ [ARTICLES] Get failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.JSON(article)
}

// Create handles POST /api/articles
func (h *ArticleHandler) Create(c *fiber.Ctx) error {
	var article models.Article
	if err := c.BodyParser(&article); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if article.Slug == "" || article.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Slug and title are required"})
	}

	if err := h.articles.Create(c.Context(), &article); err != nil {
		log.Printf("❌ [ARTICLES] Create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// Update handles PUT /api/articles/:id
func (h *ArticleHandler) Update(c *fiber.Ctx) error {
	var article models.Article
	if err := c.BodyParser(&article); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if article.Slug == "" || article.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Slug and title are required"})
	}

	if err := h.articles.Update(c.Context(), c.Params("id"), &article); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Article not found"})
		}
		log.Printf("❌ [ARTICLES] Update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

// Delete handles DELETE /api/articles/:id
func (h *ArticleHandler) Delete(c *fiber.Ctx) error {
	if err := h.articles.Delete(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Article not found"})
		}
		log.Printf("❌ [ARTICLES] Delete failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
