package handler

import (
	"errors"
	"strings"

	"skill-radar/internal/delivery/http/dto"
	"skill-radar/internal/delivery/http/middleware"
	"skill-radar/internal/domain/matching"
	"skill-radar/internal/domain/source"
	"skill-radar/internal/infrastructure/codehost"
	"skill-radar/internal/pkg/response"
	"skill-radar/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type SubjectHandler struct {
	uc usecase.SubjectUsecase
}

func NewSubjectHandler(uc usecase.SubjectUsecase) *SubjectHandler {
	return &SubjectHandler{uc: uc}
}

// RegisterPublicRoutes mounts the routes that hand out subject tokens.
func (h *SubjectHandler) RegisterPublicRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.Create)
	r.Post("/codehost", h.ConnectCodeHost)
}

// RegisterRoutes mounts the per-subject routes; r is expected to carry the subject guard.
func (h *SubjectHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.Get)
	r.Put("/judge", h.SetJudgeHandle)
	r.Put("/self-report", h.UploadSelfReport)
	r.Post("/sources/:source/sync", h.SyncSource)
	r.Get("/analysis", h.Analysis)
	r.Post("/insights", h.Insights)
	r.Get("/matches", h.Matches)
	r.Post("/refresh", h.Refresh)
}

func (h *SubjectHandler) Create(c fiber.Ctx) error {
	var req dto.CreateSubjectRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
		}
	}

	sess, err := h.uc.Create(c.Context(), usecase.CreateSubjectInput{Email: req.Email})
	if err != nil {
		return toAppError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, sessionResponse(sess))
}

func (h *SubjectHandler) ConnectCodeHost(c fiber.Ctx) error {
	var req dto.ConnectCodeHostRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "access_token is required", nil, nil)
	}

	sess, err := h.uc.ConnectCodeHost(c.Context(), req.AccessToken)
	if err != nil {
		if errors.Is(err, codehost.ErrUnauthorized) {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Code host rejected the access token", nil, err)
		}
		return toAppError(err)
	}

	status := fiber.StatusOK
	if sess.Created {
		status = fiber.StatusCreated
	}
	return response.Success(c, status, "", sessionResponse(sess))
}

func (h *SubjectHandler) Get(c fiber.Ctx) error {
	id, err := subjectID(c)
	if err != nil {
		return err
	}
	s, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return toAppError(err)
	}
	return response.OK(c, dto.NewSubjectResponse(s))
}

func (h *SubjectHandler) SetJudgeHandle(c fiber.Ctx) error {
	id, err := subjectID(c)
	if err != nil {
		return err
	}
	var req dto.JudgeHandleRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	s, err := h.uc.SetJudgeHandle(c.Context(), id, req.Handle)
	if err != nil {
		return toAppError(err)
	}
	return response.OK(c, dto.NewSubjectResponse(s))
}

func (h *SubjectHandler) UploadSelfReport(c fiber.Ctx) error {
	id, err := subjectID(c)
	if err != nil {
		return err
	}
	var req dto.SelfReportRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	s, err := h.uc.UploadSelfReport(c.Context(), id, req.Payload)
	if err != nil {
		return toAppError(err)
	}
	return response.OK(c, dto.NewSubjectResponse(s))
}

func (h *SubjectHandler) SyncSource(c fiber.Ctx) error {
	id, err := subjectID(c)
	if err != nil {
		return err
	}
	kind, err := source.ParseKind(c.Params("source"))
	if err != nil {
		return toAppError(err)
	}

	s, err := h.uc.SyncSource(c.Context(), id, kind)
	if err != nil {
		return toAppError(err)
	}
	return response.OK(c, dto.NewSubjectResponse(s))
}

// Analysis re-derives the analysis from stored raw data before returning it.
func (h *SubjectHandler) Analysis(c fiber.Ctx) error {
	id, err := subjectID(c)
	if err != nil {
		return err
	}
	a, err := h.uc.Analysis(c.Context(), id)
	if err != nil {
		return toAppError(err)
	}
	return response.OK(c, a)
}

func (h *SubjectHandler) Insights(c fiber.Ctx) error {
	id, err := subjectID(c)
	if err != nil {
		return err
	}
	role, err := roleFrom(c)
	if err != nil {
		return err
	}

	ins, err := h.uc.Insights(c.Context(), id, role)
	if err != nil {
		return toAppError(err)
	}
	return response.OK(c, ins)
}

func (h *SubjectHandler) Matches(c fiber.Ctx) error {
	id, err := subjectID(c)
	if err != nil {
		return err
	}
	fits, err := h.uc.Matches(c.Context(), id)
	if err != nil {
		return toAppError(err)
	}
	if fits == nil {
		fits = []matching.FitResult{}
	}
	return response.OK(c, dto.MatchesResponse{Matches: fits})
}

func (h *SubjectHandler) Refresh(c fiber.Ctx) error {
	id, err := subjectID(c)
	if err != nil {
		return err
	}
	role, err := roleFrom(c)
	if err != nil {
		return err
	}

	res, err := h.uc.Refresh(c.Context(), id, role)
	if err != nil {
		return toAppError(err)
	}
	return response.OK(c, dto.NewFullSyncResponse(res))
}

func subjectID(c fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Invalid subject id", nil, err)
	}
	return id, nil
}

// roleFrom reads the target role from the JSON body, falling back to the role query param.
func roleFrom(c fiber.Ctx) (string, error) {
	var req dto.RoleRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return "", middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
		}
	}
	if strings.TrimSpace(req.Role) == "" {
		req.Role = c.Query("role")
	}
	return strings.TrimSpace(req.Role), nil
}

func sessionResponse(s usecase.SubjectSession) dto.SubjectSessionResponse {
	return dto.SubjectSessionResponse{
		Subject:     dto.NewSubjectResponse(s.Subject),
		AccessToken: s.Token,
		Created:     s.Created,
	}
}
