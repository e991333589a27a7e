package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"sync"

	"asksite-be/internal/dto"
	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/logger"
	"asksite-be/internal/pkg/serverutils"
	"asksite-be/internal/repository/contract"
	"asksite-be/internal/service"
	"asksite-be/pkg/ask/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/valyala/fasthttp"
)

type IAskController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
}

type askController struct {
	askService service.IAskService
	tenants    contract.TenantRepository
	logger     logger.ILogger
}

func NewAskController(askService service.IAskService, tenants contract.TenantRepository, log logger.ILogger) IAskController {
	return &askController{
		askService: askService,
		tenants:    tenants,
		logger:     log,
	}
}

func (c *askController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ask/v1")
	h.Use(serverutils.TenantAuthMiddleware(c.tenants))
	h.Post("", c.Ask)
	h.Get("/ws", websocket.New(c.askWS))
}

// Ask streams newline-delimited JSON frames over a chunked response.
func (c *askController) Ask(ctx *fiber.Ctx) error {
	tenant := ctx.Locals(serverutils.LocalsTenant).(*entity.Tenant)

	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if req.TenantID != tenant.Slug {
		return fiber.NewError(fiber.StatusForbidden, "tenant_id does not match credentials")
	}

	ctx.Set(fiber.HeaderContentType, "application/x-ndjson")
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sink := &ndjsonSink{writer: w}
		// The fiber context is gone once streaming starts; the pipeline
		// deadline bounds the work, the sink reports disconnects.
		_ = c.askService.Ask(context.Background(), tenant, &req, sink)
	}))
	return nil
}

// askWS answers one ask request per websocket connection. The read pump
// only watches for the peer going away.
func (c *askController) askWS(conn *websocket.Conn) {
	defer conn.Close()

	tenant, ok := conn.Locals(serverutils.LocalsTenant).(*entity.Tenant)
	if !ok {
		conn.WriteJSON(fiber.Map{"message": "unauthorized"})
		return
	}

	var req dto.AskRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(fiber.Map{"message": "malformed request"})
		return
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		conn.WriteJSON(fiber.Map{"message": err.Error()})
		return
	}
	if req.TenantID != tenant.Slug {
		conn.WriteJSON(fiber.Map{"message": "tenant_id does not match credentials"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	sink := &websocketSink{conn: conn}
	_ = c.askService.Ask(ctx, tenant, &req, sink)
}

// ndjsonSink writes one frame per line. A flush failure means the
// caller hung up.
type ndjsonSink struct {
	writer *bufio.Writer
}

func (s *ndjsonSink) Send(frame stream.Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := s.writer.Write(append(payload, '\n')); err != nil {
		return err
	}
	return s.writer.Flush()
}

type websocketSink struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *websocketSink) Send(frame stream.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(frame)
}
