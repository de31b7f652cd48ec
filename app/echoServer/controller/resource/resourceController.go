package resource

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/model"
	rs "github.com/RicardoJSequeda/bienestar-hub-sub000/service/resource"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}

// POST /v1/categories (admin)
func (h *Controller) CreateCategory(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	var req CreateCategoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	id, err := h.Svc.CreateCategory(c.Request().Context(), model.ResourceCategory{
		Name:              req.Name,
		BaseWellnessHours: req.BaseWellnessHours,
		HourlyFactor:      req.HourlyFactor,
		IsLowRisk:         req.IsLowRisk,
		RequiresApproval:  req.RequiresApproval,
		MaxLoanDays:       req.MaxLoanDays,
		MaxPerStudent:     req.MaxPerStudent,
	})
	if err != nil {
		h.Log.Error("category create", "err", err)
		switch {
		case errors.Is(err, rs.ErrBadInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid category"})
		case errors.Is(err, rs.ErrNameTaken):
			return c.JSON(http.StatusConflict, echo.Map{"message": "name already in use"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"category_id": id})
}

// GET /v1/categories
func (h *Controller) ListCategories(c echo.Context) error {
	rows, err := h.Svc.ListCategories(c.Request().Context())
	if err != nil {
		h.Log.Error("category list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/resources (admin)
func (h *Controller) Create(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	var req CreateResourceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	id, err := h.Svc.CreateResource(c.Request().Context(), req.CategoryID, req.Name, req.Code)
	if err != nil {
		h.Log.Error("resource create", "err", err)
		switch {
		case errors.Is(err, rs.ErrBadInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid resource"})
		case errors.Is(err, rs.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "category not found"})
		case errors.Is(err, rs.ErrCodeTaken):
			return c.JSON(http.StatusConflict, echo.Map{"message": "code already in use"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"resource_id": id})
}

// GET /v1/resources
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("resource list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/resources/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	row, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, rs.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "resource not found"})
		}
		h.Log.Error("resource detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, row)
}

// PATCH /v1/resources/:id/status (admin)
func (h *Controller) SetStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	var req SetStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	status := model.ResourceStatus(req.Status)
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "unknown status"})
	}

	err := h.Svc.SetStatus(c.Request().Context(), id, status)
	if err != nil {
		h.Log.Error("resource set status", "err", err)
		switch {
		case errors.Is(err, rs.ErrBadStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "status not settable"})
		case errors.Is(err, rs.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "resource not found"})
		case errors.Is(err, rs.ErrHasOpenLoan):
			return c.JSON(http.StatusConflict, echo.Map{"message": "resource has an open loan"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}
