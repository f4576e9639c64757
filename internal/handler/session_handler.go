package handler

import (
	"context"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skriba-app/skriba-api/internal/document"
	"github.com/skriba-app/skriba-api/internal/dto"
	"github.com/skriba-app/skriba-api/internal/notify"
	"github.com/skriba-app/skriba-api/internal/session"
	"github.com/skriba-app/skriba-api/internal/share"
	"github.com/skriba-app/skriba-api/internal/utils"
)

// SessionHandler manages the grading session endpoints.
type SessionHandler struct {
	sessions  *session.Manager
	intake    *document.Intake
	share     *share.Service
	notifier  notify.Notifier
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSessionHandler builds a session handler instance.
func NewSessionHandler(sessions *session.Manager, intake *document.Intake, shareService *share.Service, notifier notify.Notifier, validate *validator.Validate, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		intake:    intake,
		share:     shareService,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. submitLimiter
// guards the submit route when non-nil.
func (h *SessionHandler) Register(router fiber.Router, submitLimiter fiber.Handler) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id/text", h.setText)
	router.Post("/:id/document", h.uploadDocument)
	if submitLimiter != nil {
		router.Post("/:id/submit", submitLimiter, h.submit)
	} else {
		router.Post("/:id/submit", h.submit)
	}
	router.Post("/:id/writing-mode", h.writingMode)
	router.Post("/:id/share", h.shareResult)
	router.Post("/:id/reset", h.reset)
	router.Delete("/:id", h.remove)
}

func (h *SessionHandler) create(c *fiber.Ctx) error {
	s := h.sessions.Create()
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session created", dto.NewSessionResponse(s.Snapshot()))
}

func (h *SessionHandler) get(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session retrieved", dto.NewSessionResponse(s.Snapshot()))
}

func (h *SessionHandler) setText(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.TextUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.SetText(payload.Text); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "text updated", dto.NewSessionResponse(s.Snapshot()))
}

func (h *SessionHandler) uploadDocument(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "failed to open file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "failed to read file")
	}

	text, err := h.intake.Decode(fileHeader.Filename, data)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := s.SetText(text); err != nil {
		return h.handleError(c, err)
	}

	h.notifier.Toast(s.ID(), notify.Toast{
		Kind:    notify.ToastDocumentLoaded,
		Message: "Document loaded.",
	})

	return utils.SendSuccess(c, "document loaded", dto.NewSessionResponse(s.Snapshot()))
}

func (h *SessionHandler) submit(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	if err := s.Submit(c.UserContext()); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendAccepted(c, "grading started", dto.NewSessionResponse(s.Snapshot()))
}

func (h *SessionHandler) writingMode(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.WritingModeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	if *payload.Active {
		s.EnterWritingMode()
	} else {
		s.ExitWritingMode()
	}

	return utils.SendSuccess(c, "writing mode updated", dto.NewSessionResponse(s.Snapshot()))
}

func (h *SessionHandler) shareResult(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	result, err := s.Result()
	if err != nil {
		return h.handleError(c, err)
	}

	text, copied := h.share.Share(c.UserContext(), s.ID(), result)
	return utils.SendSuccess(c, "share text ready", dto.ShareResponse{Text: text, Copied: copied})
}

func (h *SessionHandler) reset(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	s.Reset()
	return utils.SendSuccess(c, "session reset", dto.NewSessionResponse(s.Snapshot()))
}

func (h *SessionHandler) remove(c *fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id")); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session deleted", nil)
}

func (h *SessionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrEmptyDocument):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "document is empty")
	case errors.Is(err, session.ErrAlreadyGrading):
		return utils.SendError(c, fiber.StatusConflict, "grading already in progress")
	case errors.Is(err, session.ErrDocumentLocked):
		return utils.SendError(c, fiber.StatusConflict, "document is locked while grading")
	case errors.Is(err, session.ErrNoResult):
		return utils.SendError(c, fiber.StatusConflict, "no grading result available")
	case errors.Is(err, document.ErrIntakeDecode):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, context.Canceled):
		return utils.SendError(c, fiber.StatusBadRequest, "request canceled")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
