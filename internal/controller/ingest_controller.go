package controller

import (
	"asksite-be/internal/dto"
	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/serverutils"
	"asksite-be/internal/repository/contract"
	"asksite-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
}

type ingestController struct {
	ingestService service.IIngestService
	tenants       contract.TenantRepository
}

func NewIngestController(ingestService service.IIngestService, tenants contract.TenantRepository) IIngestController {
	return &ingestController{
		ingestService: ingestService,
		tenants:       tenants,
	}
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ingest/v1")
	h.Use(serverutils.TenantAuthMiddleware(c.tenants))
	h.Post("/document", c.Ingest)
}

func (c *ingestController) Ingest(ctx *fiber.Ctx) error {
	tenant := ctx.Locals(serverutils.LocalsTenant).(*entity.Tenant)

	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.ingestService.Submit(ctx.Context(), tenant, &req); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document accepted for indexing", dto.IngestDocumentResponse{Accepted: true}))
}
