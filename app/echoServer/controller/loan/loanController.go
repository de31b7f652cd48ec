package loan

import (
	"log/slog"
	"net/http"
	"strconv"

	ls "github.com/RicardoJSequeda/bienestar-hub-sub000/service/loan"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc ls.Service
	V   *validator.Validate
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

// failure maps service error codes onto HTTP statuses; every handler
// funnels through here so the mapping stays in one place.
func (h *Controller) failure(c echo.Context, op string, err error) error {
	h.Log.Error(op, "err", err)
	switch ls.Code(err) {
	case ls.ErrLoanLimit:
		return c.JSON(http.StatusConflict, echo.Map{"message": "active loan limit reached"})
	case ls.ErrInvalidTransition:
		return c.JSON(http.StatusConflict, echo.Map{"message": "loan state does not allow this"})
	case ls.ErrResourceUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"message": "resource unavailable"})
	case ls.ErrAlreadyQueued:
		return c.JSON(http.StatusConflict, echo.Map{"message": "already on the waitlist"})
	case ls.ErrExpired:
		return c.JSON(http.StatusGone, echo.Map{"message": "claim window expired"})
	case ls.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case ls.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case ls.ErrBadInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// POST /v1/loans
func (h *Controller) Create(c echo.Context) error {
	var req CreateLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	out, err := h.Svc.Request(c.Request().Context(), uid(c), req.ResourceID)
	if err != nil {
		return h.failure(c, "loan create", err)
	}
	if out.QueueEntry != nil {
		return c.JSON(http.StatusAccepted, echo.Map{
			"queued":   true,
			"entry_id": out.QueueEntry.ID,
			"position": out.QueueEntry.Position,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"loan_id":  out.Loan.ID,
		"status":   out.Loan.Status,
		"decision": out.Decision,
	})
}

// POST /v1/loans/:id/approve (admin)
func (h *Controller) Approve(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	if err := h.Svc.Approve(c.Request().Context(), id); err != nil {
		return h.failure(c, "loan approve", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "approved"})
}

// POST /v1/loans/:id/reject (admin)
func (h *Controller) Reject(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	if err := h.Svc.Reject(c.Request().Context(), id); err != nil {
		return h.failure(c, "loan reject", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "rejected"})
}

// POST /v1/loans/:id/deliver (admin)
func (h *Controller) Deliver(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	var req DeliverReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}

	l, err := h.Svc.Deliver(c.Request().Context(), id, req.DueDate)
	if err != nil {
		return h.failure(c, "loan deliver", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"loan_id":  l.ID,
		"status":   l.Status,
		"due_date": l.DueDate,
	})
}

// POST /v1/loans/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	out, err := h.Svc.Return(c.Request().Context(), uid(c), isAdmin(c), id)
	if err != nil {
		return h.failure(c, "loan return", err)
	}
	resp := echo.Map{
		"loan_id":       out.Loan.ID,
		"status":        out.Loan.Status,
		"awarded_hours": out.AwardedHours,
	}
	if out.NotifiedEntry != nil {
		resp["notified_entry_id"] = out.NotifiedEntry.ID
	}
	return c.JSON(http.StatusOK, resp)
}

// POST /v1/loans/:id/expire (admin)
func (h *Controller) Expire(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	if err := h.Svc.Expire(c.Request().Context(), id); err != nil {
		return h.failure(c, "loan expire", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "expired"})
}

// DELETE /v1/loans/:id
func (h *Controller) Cancel(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Cancel(c.Request().Context(), uid(c), id); err != nil {
		return h.failure(c, "loan cancel", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cancelled"})
}

// POST /v1/loans/:id/extension
func (h *Controller) RequestExtension(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ExtensionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	if err := h.Svc.RequestExtension(c.Request().Context(), uid(c), id, req.Reason); err != nil {
		return h.failure(c, "loan extension request", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "extension requested"})
}

// POST /v1/loans/:id/extension/decision (admin)
func (h *Controller) DecideExtension(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	var req ExtensionDecisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.Svc.DecideExtension(c.Request().Context(), id, req.Approve, req.NewDue); err != nil {
		return h.failure(c, "loan extension decision", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "decided"})
}

// POST /v1/loans/:id/lost (admin)
func (h *Controller) MarkLost(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	if err := h.Svc.MarkLost(c.Request().Context(), id); err != nil {
		return h.failure(c, "loan lost", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "marked lost"})
}

// POST /v1/loans/:id/damaged (admin)
func (h *Controller) MarkDamaged(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	if err := h.Svc.MarkDamaged(c.Request().Context(), id); err != nil {
		return h.failure(c, "loan damaged", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "marked damaged"})
}

// POST /v1/loans/:id/rating
func (h *Controller) Rate(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req RateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	if err := h.Svc.Rate(c.Request().Context(), uid(c), id, req.Rating); err != nil {
		return h.failure(c, "loan rate", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "rated"})
}

// POST /v1/queue/entries/:id/enroll
func (h *Controller) EnrollFromWaitlist(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	out, err := h.Svc.EnrollFromWaitlist(c.Request().Context(), uid(c), id)
	if err != nil {
		return h.failure(c, "waitlist enroll", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"loan_id":  out.Loan.ID,
		"status":   out.Loan.Status,
		"decision": out.Decision,
	})
}

// GET /v1/loans/my
func (h *Controller) MyLoans(c echo.Context) error {
	rows, err := h.Svc.MyLoans(c.Request().Context(), uid(c))
	if err != nil {
		h.Log.Error("loan history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/loans/pending (admin)
func (h *Controller) Pending(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
	}
	rows, err := h.Svc.PendingLoans(c.Request().Context())
	if err != nil {
		h.Log.Error("pending loans", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
