// Package httpapi is the thin HTTP adapter spec.md §1 and §6 describe as an
// external collaborator over the core: it translates the routes spec.md §6
// names into Core calls and back into JSON, and nothing more. Authentication,
// rate limiting, and audit logging stay outside this package's scope.
// Grounded on papercomputeco-tapes' api.Server (fiber.App built in a
// constructor, one handler method per route, JSON error envelopes).
package httpapi

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/rcliao/agent-memory/internal/core"
	"github.com/rcliao/agent-memory/internal/memerr"
)

// Server is the HTTP adapter wrapping one Core.
type Server struct {
	core *core.Core
	log  *slog.Logger
	app  *fiber.App
}

// NewServer builds a Server and registers every route spec.md §6 lists.
func NewServer(c *core.Core, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	s := &Server{core: c, log: log, app: app}

	app.Post("/v1/recall", s.handleRecall)
	app.Post("/v1/capture", s.handleCapture)
	app.Post("/v1/store", s.handleStore)
	app.Post("/v1/rule", s.handleRule)
	app.Delete("/v1/forget", s.handleForget)
	app.Get("/v1/search", s.handleSearch)
	app.Post("/v1/pin", s.handlePin)
	app.Post("/v1/unpin", s.handleUnpin)
	app.Post("/v1/decay", s.handleDecay)
	app.Post("/v1/consolidate", s.handleConsolidate)
	app.Post("/v1/compress", s.handleCompress)
	app.Post("/v1/gc", s.handleGC)
	app.Post("/v1/amnesia-check", s.handleAmnesiaCheck)
	app.Get("/v1/stats", s.handleStats)
	app.Get("/v1/agents", s.handleAgents)
	app.Get("/v1/health", s.handleHealth)
	app.Get("/v1/health/deep", s.handleHealthDeep)
	app.Get("/v1/metrics", s.handleMetricsJSON)
	app.Get("/v1/metrics/prometheus", s.handleMetricsPrometheus)
	app.Get("/v1/export", s.handleExport)
	app.Post("/v1/import", s.handleImport)

	return s
}

// Listen starts the server on addr, blocking until shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("starting http api", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// errorResponse is spec.md §7's user-visible error envelope.
type errorResponse struct {
	Error struct {
		Kind      memerr.Kind `json:"kind"`
		Message   string      `json:"message"`
		Retryable bool        `json:"retryable"`
	} `json:"error"`
}

// writeErr maps a core error to spec.md §7's status-code policy (400 for
// client input, 504 for timeouts, 500 otherwise) and JSON envelope.
func writeErr(c *fiber.Ctx, err error) error {
	resp := errorResponse{}
	status := fiber.StatusInternalServerError

	var me *memerr.Error
	if errors.As(err, &me) {
		resp.Error.Kind = me.Kind
		resp.Error.Retryable = me.Retryable
		switch me.Kind {
		case memerr.KindValidation, memerr.KindStoreNotFound:
			status = fiber.StatusBadRequest
		case memerr.KindTimeout:
			status = fiber.StatusGatewayTimeout
		}
	} else {
		resp.Error.Kind = "Unknown"
	}
	resp.Error.Message = err.Error()
	return c.Status(status).JSON(resp)
}
