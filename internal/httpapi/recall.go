package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rcliao/agent-memory/internal/core"
	"github.com/rcliao/agent-memory/internal/model"
)

type recallRequest struct {
	Query     string  `json:"query"`
	Limit     int     `json:"limit"`
	Agent     string  `json:"agent"`
	Namespace string  `json:"namespace,omitempty"`
	MinScore  float64 `json:"min_score,omitempty"`
	Filter    struct {
		Category           string `json:"category,omitempty"`
		MinImportance      float64 `json:"min_importance,omitempty"`
		IncludeSoftDeleted bool    `json:"include_soft_deleted,omitempty"`
	} `json:"filter,omitempty"`
}

func (s *Server) handleRecall(c *fiber.Ctx) error {
	var req recallRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fiber.Map{"message": err.Error()}})
	}

	resp, err := s.core.Recall(c.Context(), core.RecallParams{
		Agent:     req.Agent,
		Namespace: req.Namespace,
		Query:     req.Query,
		Limit:     req.Limit,
		MinScore:  req.MinScore,
		Filter: model.Filter{
			Category:           model.Category(req.Filter.Category),
			MinImportance:      req.Filter.MinImportance,
			IncludeSoftDeleted: req.Filter.IncludeSoftDeleted,
		},
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(resp)
}

// handleSearch implements the GET /v1/search debug route over the same
// Recall pipeline, with query parameters instead of a JSON body.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	resp, err := s.core.Recall(c.Context(), core.RecallParams{
		Agent:     c.Query("agent"),
		Namespace: c.Query("namespace"),
		Query:     c.Query("query"),
		Limit:     c.QueryInt("limit", 10),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(resp)
}
