package controller

import (
	"ai-research-be/internal/dto"
	"ai-research-be/internal/pkg/serverutils"
	"ai-research-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IResearchController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	ListSources(ctx *fiber.Ctx) error
	ResetKnowledgeBase(ctx *fiber.Ctx) error
}

type researchController struct {
	researchService service.IResearchService
}

func NewResearchController(researchService service.IResearchService) IResearchController {
	return &researchController{
		researchService: researchService,
	}
}

func (c *researchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/research/v1")
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get("knowledge-base/sources", c.ListSources)
	h.Delete("knowledge-base", c.ResetKnowledgeBase)
	h.Get(":id", c.Show)
}

func (c *researchController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateResearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequestError("invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.researchService.Research(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate research", res))
}

func (c *researchController) List(ctx *fiber.Ctx) error {
	res, err := c.researchService.ListReports(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list research reports", res))
}

func (c *researchController) Show(ctx *fiber.Ctx) error {
	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return serverutils.NewBadRequestError("invalid report id")
	}

	res, err := c.researchService.ShowReport(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show research report", res))
}

func (c *researchController) ListSources(ctx *fiber.Ctx) error {
	res, err := c.researchService.ListKnowledgeSources(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list knowledge sources", res))
}

func (c *researchController) ResetKnowledgeBase(ctx *fiber.Ctx) error {
	if err := c.researchService.ResetKnowledgeBase(ctx.Context()); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset knowledge base", nil))
}
