package queue

import (
	"log/slog"
	"net/http"
	"strconv"

	qs "github.com/RicardoJSequeda/bienestar-hub-sub000/service/queue"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc qs.Service
	Log *slog.Logger
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func uid(c echo.Context) int64 {
	id, _ := c.Get("user_id").(int64)
	return id
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}

func (h *Controller) failure(c echo.Context, op string, err error) error {
	h.Log.Error(op, "err", err)
	switch qs.Code(err) {
	case qs.ErrAlreadyQueued:
		return c.JSON(http.StatusConflict, echo.Map{"message": "already on the waitlist"})
	case qs.ErrNotQueued:
		return c.JSON(http.StatusConflict, echo.Map{"message": "not on the waitlist"})
	case qs.ErrResourceUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"message": "resource unavailable"})
	case qs.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "resource not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// POST /v1/resources/:id/queue
func (h *Controller) Join(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	e, err := h.Svc.Join(c.Request().Context(), uid(c), id)
	if err != nil {
		return h.failure(c, "queue join", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"entry_id": e.ID,
		"position": e.Position,
		"status":   e.Status,
	})
}

// DELETE /v1/resources/:id/queue
func (h *Controller) Leave(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Leave(c.Request().Context(), uid(c), id); err != nil {
		return h.failure(c, "queue leave", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "left queue"})
}

// POST /v1/resources/:id/queue/notify (admin)
func (h *Controller) NotifyHead(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	e, err := h.Svc.NotifyHead(c.Request().Context(), id)
	if err != nil {
		return h.failure(c, "queue notify", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"entry_id":   e.ID,
		"user_id":    e.RequesterID,
		"expires_at": e.ExpiresAt,
	})
}

// GET /v1/queue/my
func (h *Controller) MyEntries(c echo.Context) error {
	rows, err := h.Svc.MyEntries(c.Request().Context(), uid(c))
	if err != nil {
		h.Log.Error("queue my entries", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/resources/:id/queue (admin)
func (h *Controller) ForResource(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	rows, err := h.Svc.ForResource(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("queue for resource", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
