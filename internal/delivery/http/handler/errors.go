package handler

import (
	"context"
	"errors"

	"skill-radar/internal/delivery/http/middleware"
	"skill-radar/internal/domain/source"
	"skill-radar/internal/domain/subject"
	"skill-radar/internal/pipeline"
	"skill-radar/internal/pkg/response"
	"skill-radar/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// toAppError maps domain errors onto HTTP statuses. Anything unrecognised is a 500.
func toAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, subject.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Subject not found", nil, err)
	case errors.Is(err, pipeline.ErrSyncInProgress):
		return middleware.NewAppError(fiber.StatusConflict, "Sync already in progress", nil, err)
	case errors.Is(err, subject.ErrCodeHostTaken):
		return middleware.NewAppError(fiber.StatusConflict, "Code host account already linked", nil, err)
	case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, source.ErrUnknownKind):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, context.DeadlineExceeded):
		return middleware.NewAppError(fiber.StatusGatewayTimeout, "", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
