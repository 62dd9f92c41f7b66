package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rcliao/agent-memory/internal/core"
	"github.com/rcliao/agent-memory/internal/model"
)

type captureMessage struct {
	Text       string `json:"text"`
	Category   string `json:"category,omitempty"`
	Session    string `json:"session,omitempty"`
	Source     string `json:"source,omitempty"`
	Provenance string `json:"provenance,omitempty"`
}

type captureRequest struct {
	Agent     string           `json:"agent"`
	Namespace string           `json:"namespace,omitempty"`
	Messages  []captureMessage `json:"messages"`
}

func toCaptureMessages(in []captureMessage) []core.CaptureMessage {
	out := make([]core.CaptureMessage, len(in))
	for i, m := range in {
		out[i] = core.CaptureMessage{
			Text:       m.Text,
			Category:   model.Category(m.Category),
			Session:    m.Session,
			Source:     m.Source,
			Provenance: m.Provenance,
		}
	}
	return out
}

func (s *Server) handleCapture(c *fiber.Ctx) error {
	var req captureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fiber.Map{"message": err.Error()}})
	}

	results, err := s.core.Capture(c.Context(), req.Agent, req.Namespace, toCaptureMessages(req.Messages))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(fiber.Map{"results": results})
}

type storeRequest struct {
	Agent     string         `json:"agent"`
	Namespace string         `json:"namespace,omitempty"`
	captureMessage
}

func (s *Server) handleStore(c *fiber.Ctx) error {
	var req storeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fiber.Map{"message": err.Error()}})
	}

	res, err := s.core.Store(c.Context(), req.Agent, req.Namespace, core.CaptureMessage{
		Text:       req.Text,
		Category:   model.Category(req.Category),
		Session:    req.Session,
		Source:     req.Source,
		Provenance: req.Provenance,
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(res)
}

type ruleRequest struct {
	Agent     string `json:"agent"`
	Namespace string `json:"namespace,omitempty"`
	Text      string `json:"text"`
}

func (s *Server) handleRule(c *fiber.Ctx) error {
	var req ruleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fiber.Map{"message": err.Error()}})
	}

	res, err := s.core.Rule(c.Context(), req.Agent, req.Namespace, req.Text)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(res)
}
