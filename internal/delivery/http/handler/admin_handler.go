package handler

import (
	"context"
	"sync/atomic"

	"skill-radar/internal/delivery/http/dto"
	"skill-radar/internal/delivery/http/middleware"
	"skill-radar/internal/logger"
	"skill-radar/internal/pipeline"
	"skill-radar/internal/pkg/response"
	"skill-radar/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AdminHandler exposes operator routes. Background batches run on baseCtx so they outlive
// the request that started them.
type AdminHandler struct {
	subjects usecase.SubjectUsecase
	status   usecase.PipelineStatusUsecase
	baseCtx  context.Context
	running  atomic.Bool
	log      *zap.Logger
}

func NewAdminHandler(baseCtx context.Context, subjects usecase.SubjectUsecase, status usecase.PipelineStatusUsecase, log *zap.Logger) *AdminHandler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &AdminHandler{subjects: subjects, status: status, baseCtx: baseCtx, log: logger.OrNop(log)}
}

func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/sync/batch", h.RunBatch)
	r.Get("/pipeline/status", h.GetStatus)
}

// RunBatch starts a batch sync in the background and answers 202. With ?wait=true it
// blocks and returns the report. Only one batch started here runs at a time.
func (h *AdminHandler) RunBatch(c fiber.Ctx) error {
	if !h.running.CompareAndSwap(false, true) {
		return middleware.NewAppError(fiber.StatusConflict, "Batch already running", nil, nil)
	}

	if fiber.Query[bool](c, "wait") {
		defer h.running.Store(false)
		report, err := h.subjects.RunBatch(c.Context(), pipeline.TriggerAPI)
		if err != nil {
			return toAppError(err)
		}
		return response.OK(c, dto.NewBatchResponse(report))
	}

	go func() {
		defer h.running.Store(false)
		if _, err := h.subjects.RunBatch(h.baseCtx, pipeline.TriggerAPI); err != nil {
			h.log.Error("background batch failed", append(logger.Step("batch", "all", "error"), zap.Error(err))...)
		}
	}()
	return response.Success(c, fiber.StatusAccepted, "Batch sync started", nil)
}

func (h *AdminHandler) GetStatus(c fiber.Ctx) error {
	data, err := h.status.GetStatus(c.Context())
	if err != nil {
		return toAppError(err)
	}
	return response.OK(c, data)
}
