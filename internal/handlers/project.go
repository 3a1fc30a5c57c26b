package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"folio/internal/models"
	"folio/internal/services"
)

// ProjectHandler exposes project CRUD. Reads are public, writes require auth.
type ProjectHandler struct {
	projects *services.ProjectService
}

// NewProjectHandler creates a project handler
func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.Context())
	if err != nil {
		log.Printf("❌ [PROJECTS] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.projects.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
		}
		log.Printf("❌ [PROJECTS] Get failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.JSON(project)
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var project models.Project
	if err := c.BodyParser(&project); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if project.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}

	if err := h.projects.Create(c.Context(), &project); err != nil {
		log.Printf("❌ [PROJECTS] Create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// Update handles PUT /api/projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var project models.Project
	if err := c.BodyParser(&project); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if project.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}

	if err := h.projects.Update(c.Context(), c.Params("id"), &project); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
		}
		log.Printf("❌ [PROJECTS] Update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

// Delete handles DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	if err := h.projects.Delete(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
		}
		log.Printf("❌ [PROJECTS] Delete failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
