package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/canis-majoris/instantly-assignment-v3/internal/api/response"
	"github.com/canis-majoris/instantly-assignment-v3/internal/events"
	"github.com/canis-majoris/instantly-assignment-v3/internal/logger"
	"github.com/canis-majoris/instantly-assignment-v3/internal/models"
	"github.com/canis-majoris/instantly-assignment-v3/internal/repository"
	"github.com/canis-majoris/instantly-assignment-v3/internal/validator"
	"github.com/labstack/echo/v4"
)

// defaultSender is the single-tenant user's address, stamped on composed
// outgoing mail.
const defaultSender = "me@example.com"

// EmailHandler handles email-related HTTP requests
type EmailHandler struct {
	emailRepo repository.EmailRepository
	statsRepo repository.StatsRepository
	hub       *events.Hub
	audit     *logger.AuditLogger
}

// NewEmailHandler creates a new EmailHandler. hub and audit may be nil.
func NewEmailHandler(emailRepo repository.EmailRepository, statsRepo repository.StatsRepository, hub *events.Hub, audit *logger.AuditLogger) *EmailHandler {
	return &EmailHandler{
		emailRepo: emailRepo,
		statsRepo: statsRepo,
		hub:       hub,
		audit:     audit,
	}
}

// List handles GET /api/emails?filter=&query=&threaded=
func (h *EmailHandler) List(c echo.Context) error {
	filter := c.QueryParam("filter")
	if filter == "" {
		filter = repository.FilterInbox
	}
	query := c.QueryParam("query")

	if c.QueryParam("threaded") == "true" {
		threads, err := h.emailRepo.ListThreads(c.Request().Context(), filter, query)
		if err != nil {
			return response.InternalError(c, "failed to list emails")
		}
		return response.Success(c, map[string]interface{}{
			"emails": threads,
			"count":  len(threads),
		})
	}

	emails, err := h.emailRepo.List(c.Request().Context(), filter, query)
	if err != nil {
		return response.InternalError(c, "failed to list emails")
	}

	return response.Success(c, map[string]interface{}{
		"emails": emails,
		"count":  len(emails),
	})
}

// Create handles POST /api/emails
func (h *EmailHandler) Create(c echo.Context) error {
	var req models.ComposeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := validator.ValidateCompose(&req); err != nil {
		if h.audit != nil {
			h.audit.MutationFailed("create", "", err.Error())
		}
		return response.BadRequest(c, err.Error())
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = repository.GenerateThreadID()
	}

	direction := req.Direction
	if direction == "" {
		direction = models.DirectionOutgoing
	}

	email := &models.Email{
		ThreadID:  threadID,
		Subject:   req.Subject,
		Sender:    defaultSender,
		Recipient: req.To,
		CC:        req.CC,
		BCC:       req.BCC,
		Content:   req.Content,
		IsRead:    true,
		Direction: direction,
	}

	if err := h.emailRepo.Create(c.Request().Context(), email); err != nil {
		return response.InternalError(c, "failed to create email")
	}

	if h.audit != nil {
		h.audit.EmailCreated(email.ID, email.ThreadID, email.Direction)
	}
	h.invalidate(c, email.ThreadID)

	return response.Created(c, map[string]interface{}{
		"email": email,
	})
}

// Update handles PATCH /api/emails: flag changes addressed by id or threadId.
// Restoring from trash goes through here as isDeleted=false.
func (h *EmailHandler) Update(c echo.Context) error {
	var req models.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if !req.HasTarget() {
		return response.BadRequest(c, "id or threadId is required")
	}
	if !req.HasChanges() {
		return response.BadRequest(c, "at least one of isRead, isImportant, isDeleted is required")
	}

	emails, err := h.emailRepo.UpdateFlags(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "email not found")
		}
		if errors.Is(err, repository.ErrInvalidInput) {
			return response.BadRequest(c, "invalid update request")
		}
		return response.InternalError(c, "failed to update emails")
	}

	if h.audit != nil {
		h.audit.FlagsUpdated(updateTarget(&req), len(emails), changedFlags(&req))
	}

	stats, err := h.statsRepo.Invalidate(c.Request().Context())
	if err != nil {
		return response.InternalError(c, "failed to recalculate stats")
	}
	h.broadcast(req.ThreadID, stats)

	return response.Success(c, map[string]interface{}{
		"emails": emails,
		"stats":  stats,
	})
}

// Delete handles DELETE /api/emails?id=&threadId=&filter=
func (h *EmailHandler) Delete(c echo.Context) error {
	rawID := c.QueryParam("id")
	threadID := c.QueryParam("threadId")
	filter := c.QueryParam("filter")

	var affected int64
	switch {
	case rawID != "":
		id, err := strconv.ParseUint(rawID, 10, 32)
		if err != nil {
			return response.BadRequest(c, "invalid email ID")
		}
		if err := h.emailRepo.SoftDeleteByID(c.Request().Context(), uint(id)); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return response.NotFound(c, "email not found")
			}
			return response.InternalError(c, "failed to delete email")
		}
		affected = 1

	case threadID != "":
		n, err := h.emailRepo.SoftDeleteThread(c.Request().Context(), threadID, filter)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return response.NotFound(c, "thread not found")
			}
			return response.InternalError(c, "failed to delete thread")
		}
		affected = n

	default:
		return response.BadRequest(c, "id or threadId is required")
	}

	if h.audit != nil {
		h.audit.SoftDeleted(deleteTarget(rawID, threadID), filter, affected)
	}

	stats, err := h.statsRepo.Invalidate(c.Request().Context())
	if err != nil {
		return response.InternalError(c, "failed to recalculate stats")
	}
	h.broadcast(threadID, stats)

	return response.Success(c, map[string]interface{}{
		"message": fmt.Sprintf("%d email(s) moved to trash", affected),
		"stats":   stats,
	})
}

// Thread handles GET /api/emails/thread/:threadId?filter=
func (h *EmailHandler) Thread(c echo.Context) error {
	threadID := c.Param("threadId")
	if threadID == "" {
		return response.BadRequest(c, "threadId is required")
	}
	filter := c.QueryParam("filter")
	if filter == "" {
		filter = repository.FilterInbox
	}

	emails, err := h.emailRepo.ListThread(c.Request().Context(), threadID, filter)
	if err != nil {
		return response.InternalError(c, "failed to list thread emails")
	}

	return response.Success(c, map[string]interface{}{
		"emails": emails,
		"count":  len(emails),
	})
}

// Stats handles GET /api/emails/stats
func (h *EmailHandler) Stats(c echo.Context) error {
	stats, err := h.statsRepo.Get(c.Request().Context())
	if err != nil {
		return response.InternalError(c, "failed to get stats")
	}

	return response.Success(c, map[string]interface{}{
		"stats": stats,
	})
}

// invalidate refreshes stats and notifies subscribers after a mutation whose
// handler does not return the stats snapshot itself.
func (h *EmailHandler) invalidate(c echo.Context, threadID string) {
	stats, err := h.statsRepo.Invalidate(c.Request().Context())
	if err != nil {
		// The mutation itself succeeded; the next recalculation heals the
		// cache, so only log here.
		c.Logger().Error("stats recalculation failed: ", err)
		return
	}
	h.broadcast(threadID, stats)
}

func (h *EmailHandler) broadcast(threadID string, stats *models.EmailStats) {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastEmailsChanged(threadID)
	h.hub.BroadcastStatsUpdated(stats)
}

func updateTarget(req *models.UpdateRequest) string {
	if req.ID != nil {
		return fmt.Sprintf("id=%d", *req.ID)
	}
	return "threadId=" + req.ThreadID
}

func deleteTarget(rawID, threadID string) string {
	if rawID != "" {
		return "id=" + rawID
	}
	return "threadId=" + threadID
}

func changedFlags(req *models.UpdateRequest) []string {
	flags := make([]string, 0, 3)
	if req.IsRead != nil {
		flags = append(flags, "isRead")
	}
	if req.IsImportant != nil {
		flags = append(flags, "isImportant")
	}
	if req.IsDeleted != nil {
		flags = append(flags, "isDeleted")
	}
	return flags
}
