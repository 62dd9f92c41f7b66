package httpapi

import (
	"encoding/json"
	"net/http/httptest"

	"github.com/gofiber/fiber/v2"

	"github.com/rcliao/agent-memory/internal/model"
)

func (s *Server) handleStats(c *fiber.Ctx) error {
	agent := c.Query("agent", "main")
	stats, err := s.core.Stats(c.Context(), agent)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(stats)
}

func (s *Server) handleAgents(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"agents": s.core.Pool.DiscoverAgents()})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleHealthDeep additionally opens the default agent's store to confirm
// it is reachable, the way a liveness probe would distinguish "process up"
// from "store reachable."
func (s *Server) handleHealthDeep(c *fiber.Ctx) error {
	if _, err := s.core.Pool.Get("main"); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok", "store": "reachable"})
}

func (s *Server) handleMetricsJSON(c *fiber.Ctx) error {
	return c.JSON(s.core.Metrics.JSON())
}

// handleMetricsPrometheus serves the text exposition format via the Hub's
// stdlib http.Handler, adapted into fiber with an httptest recorder since
// the Prometheus client library speaks net/http, not fiber's fasthttp.
func (s *Server) handleMetricsPrometheus(c *fiber.Ctx) error {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/metrics/prometheus", nil)
	s.core.Metrics.Handler().ServeHTTP(rec, req)
	c.Status(rec.Code)
	c.Set("Content-Type", rec.Header().Get("Content-Type"))
	return c.Send(rec.Body.Bytes())
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	agent := c.Query("agent")
	namespace := c.Query("namespace")
	category := c.Query("category")

	memories, err := s.core.Export(c.Context(), agent, model.Filter{
		Namespace: namespace,
		Category:  model.Category(category),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(memories)
}

func (s *Server) handleImport(c *fiber.Ctx) error {
	agent := c.Query("agent")

	var records []model.Memory
	if err := json.Unmarshal(c.Body(), &records); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fiber.Map{"message": err.Error()}})
	}

	imported, skipped, err := s.core.Import(c.Context(), agent, records)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(fiber.Map{"imported": imported, "skipped": skipped})
}
