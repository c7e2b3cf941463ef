package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-orders/internal/middleware"
	"github.com/iliyamo/restaurant-table-orders/internal/model"
	"github.com/iliyamo/restaurant-table-orders/internal/repository"
	"github.com/iliyamo/restaurant-table-orders/internal/service"
)

// OrderHandler exposes order modification and lifecycle endpoints.
// JWT authentication and role gating run in middleware; handlers
// resolve the actor and delegate to the services, which own the
// transactions.
type OrderHandler struct {
	Orders        *repository.OrderRepo
	Modifications *service.ModificationService
	Lifecycle     *service.LifecycleService
}

// NewOrderHandler constructs an OrderHandler. All dependencies must be non-nil.
func NewOrderHandler(orders *repository.OrderRepo, modifications *service.ModificationService, lifecycle *service.LifecycleService) *OrderHandler {
	if orders == nil || modifications == nil || lifecycle == nil {
		panic("nil dependency passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: orders, Modifications: modifications, Lifecycle: lifecycle}
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

// Get handles GET /v1/orders/:id and returns the order with its items.
func (h *OrderHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	order, err := h.Orders.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": order})
}

// Modify handles POST /v1/orders/:id/modify. The body carries the
// observed version, the item changes, a reason and an optional
// idempotency key; when the client supplies none, one is generated,
// which still protects against transport-level retries of this exact
// request.
func (h *OrderHandler) Modify(c echo.Context) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		Version        uint32               `json:"version"`
		Changes        []service.ItemChange `json:"changes"`
		IdempotencyKey string               `json:"idempotency_key"`
		Reason         string               `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.IdempotencyKey == "" {
		body.IdempotencyKey = uuid.NewString()
	}
	result, err := h.Modifications.ModifyOrder(c.Request().Context(), service.ModifyOrderRequest{
		OrderID:          id,
		RequestedVersion: body.Version,
		Changes:          body.Changes,
		IdempotencyKey:   body.IdempotencyKey,
		Reason:           body.Reason,
		Actor:            actor,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	resp := echo.Map{
		"order":        result.Order,
		"modification": result.Modification,
		"is_duplicate": result.IsDuplicate,
	}
	if result.RefundNeededCents > 0 {
		resp["refund_needed_cents"] = result.RefundNeededCents
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateStatus handles POST /v1/orders/:id/status, moving the order
// through its lifecycle. Cancellation requires a manager role.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	order, err := h.Lifecycle.UpdateStatus(c.Request().Context(), id, model.OrderStatus(body.Status), actor)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": order})
}
