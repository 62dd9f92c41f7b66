package httpapi

import "github.com/gofiber/fiber/v2"

type agentRequest struct {
	Agent     string   `json:"agent"`
	Namespace string   `json:"namespace,omitempty"`
	Topics    []string `json:"topics,omitempty"`
}

func (s *Server) handleDecay(c *fiber.Ctx) error {
	var req agentRequest
	_ = c.BodyParser(&req)
	reports, err := s.core.Decay(c.Context(), resolveAgent(req.Agent))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(reports)
}

func (s *Server) handleConsolidate(c *fiber.Ctx) error {
	var req agentRequest
	_ = c.BodyParser(&req)
	reports, err := s.core.Consolidate(c.Context(), resolveAgent(req.Agent), req.Namespace)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(reports)
}

func (s *Server) handleCompress(c *fiber.Ctx) error {
	var req agentRequest
	_ = c.BodyParser(&req)
	reports, err := s.core.Compress(c.Context(), resolveAgent(req.Agent))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(reports)
}

func (s *Server) handleGC(c *fiber.Ctx) error {
	var req agentRequest
	_ = c.BodyParser(&req)
	reports, err := s.core.GC(c.Context(), resolveAgent(req.Agent))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(reports)
}

func (s *Server) handleAmnesiaCheck(c *fiber.Ctx) error {
	var req agentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fiber.Map{"message": err.Error()}})
	}
	report, err := s.core.AmnesiaCheck(c.Context(), req.Agent, req.Topics)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(report)
}

func resolveAgent(agent string) string {
	if agent == "" {
		return "main"
	}
	return agent
}
