package award

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/repository/notification"
	as "github.com/RicardoJSequeda/bienestar-hub-sub000/service/award"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type Controller struct {
	Svc as.Service
	Rdb *redis.Client
	V   *validator.Validate
	Log *slog.Logger
}

func uid(c echo.Context) int64 {
	id, _ := c.Get("user_id").(int64)
	return id
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}

// POST /v1/awards (admin)
func (h *Controller) Grant(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	var req GrantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	id, err := h.Svc.Grant(c.Request().Context(), req.UserID, req.Hours,
		model.AwardSource(req.SourceType), req.SourceID, req.Description)
	if err != nil {
		h.Log.Error("award grant", "err", err)
		switch {
		case errors.Is(err, as.ErrBadInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid award"})
		case errors.Is(err, as.ErrDuplicate):
			return c.JSON(http.StatusConflict, echo.Map{"message": "award already granted"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"award_id": id})
}

// DELETE /v1/awards (admin)
func (h *Controller) Revoke(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	var req RevokeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	err := h.Svc.Revoke(c.Request().Context(), model.AwardSource(req.SourceType), req.SourceID)
	if err != nil {
		if errors.Is(err, as.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "award not found"})
		}
		h.Log.Error("award revoke", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "revoked"})
}

// GET /v1/awards/my
func (h *Controller) MyAwards(c echo.Context) error {
	rows, err := h.Svc.MyAwards(c.Request().Context(), uid(c))
	if err != nil {
		h.Log.Error("award list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	total, err := h.Svc.MyTotal(c.Request().Context(), uid(c))
	if err != nil {
		h.Log.Error("award total", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows, "total_hours": total})
}

// GET /v1/notifications/my
func (h *Controller) MyNotifications(c echo.Context) error {
	rows, err := notification.Inbox(c.Request().Context(), h.Rdb, uid(c), 50)
	if err != nil {
		h.Log.Error("notification inbox", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
