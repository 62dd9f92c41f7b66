package httpapi

import "github.com/gofiber/fiber/v2"

func (s *Server) handleForget(c *fiber.Ctx) error {
	agent := c.Query("agent")
	id := c.Query("id")
	query := c.Query("query")

	deletedID, err := s.core.Forget(c.Context(), agent, id, query)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "id": deletedID})
}

func (s *Server) handlePin(c *fiber.Ctx) error {
	var req struct {
		Agent string `json:"agent"`
		ID    string `json:"id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fiber.Map{"message": err.Error()}})
	}
	if err := s.core.Pin(c.Context(), req.Agent, req.ID); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "id": req.ID, "pinned": true})
}

func (s *Server) handleUnpin(c *fiber.Ctx) error {
	var req struct {
		Agent string `json:"agent"`
		ID    string `json:"id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fiber.Map{"message": err.Error()}})
	}
	if err := s.core.Unpin(c.Context(), req.Agent, req.ID); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "id": req.ID, "pinned": false})
}
