package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-orders/internal/middleware"
	"github.com/iliyamo/restaurant-table-orders/internal/model"
	"github.com/iliyamo/restaurant-table-orders/internal/queue"
	"github.com/iliyamo/restaurant-table-orders/internal/repository"
	"github.com/iliyamo/restaurant-table-orders/internal/service"
)

// TableHandler exposes table listing, manual status changes, and the
// occupancy reconciliation endpoints.
type TableHandler struct {
	Tables    *repository.TableRepo
	Orders    *repository.OrderRepo
	Occupancy *service.OccupancyService
	Publisher *queue.Publisher
}

// NewTableHandler constructs a TableHandler. Publisher may be nil when
// no broker is configured; status-change events are then skipped.
func NewTableHandler(tables *repository.TableRepo, orders *repository.OrderRepo, occupancy *service.OccupancyService, publisher *queue.Publisher) *TableHandler {
	if tables == nil || orders == nil || occupancy == nil {
		panic("nil dependency passed to NewTableHandler")
	}
	return &TableHandler{Tables: tables, Orders: orders, Occupancy: occupancy, Publisher: publisher}
}

// List handles GET /v1/tables, returning every table of the caller's
// restaurant.
func (h *TableHandler) List(c echo.Context) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tables, err := h.Tables.ListByRestaurant(c.Request().Context(), actor.RestaurantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tables})
}

// Get handles GET /v1/tables/:id, returning the table together with its
// open (unpaid, non-cancelled) orders.
func (h *TableHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	ctx := c.Request().Context()
	table, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	open, err := h.Orders.OpenByTable(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": table, "open_orders": open})
}

// Create handles POST /v1/tables. A durable QR token is generated for
// the new table.
func (h *TableHandler) Create(c echo.Context) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Label    string `json:"label"`
		Capacity uint32 `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil || body.Label == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label is required"})
	}
	if body.Capacity == 0 {
		body.Capacity = 4
	}
	table := &model.Table{
		RestaurantID: actor.RestaurantID,
		Label:        body.Label,
		Capacity:     body.Capacity,
		Status:       model.TableAvailable,
	}
	if err := h.Tables.Create(c.Request().Context(), table); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": table})
}

// SetStatus handles PATCH /v1/tables/:id/status, the manual override
// path. It is the only way a table enters or leaves RESERVED; the
// derived reconciler never touches that state.
func (h *TableHandler) SetStatus(c echo.Context) error {
	if _, err := middleware.ActorFrom(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := model.TableStatus(body.Status)
	switch status {
	case model.TableAvailable, model.TableOccupied, model.TableReserved:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be AVAILABLE, OCCUPIED or RESERVED"})
	}
	ctx := c.Request().Context()
	table, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if table.Status == status {
		return c.JSON(http.StatusOK, echo.Map{"item": table})
	}
	if err := h.Tables.SetManualStatus(ctx, id, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	old := table.Status
	table.Status = status
	if h.Publisher != nil {
		ev := queue.TableStatusChangedEvent{
			TableID:      table.ID,
			RestaurantID: table.RestaurantID,
			Label:        table.Label,
			OldStatus:    string(old),
			NewStatus:    string(status),
			ChangedAt:    time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = h.Publisher.PublishTableStatusChanged(pubCtx, ev)
		}()
	}
	return c.JSON(http.StatusOK, echo.Map{"item": table})
}

// Reconcile handles POST /v1/tables/:id/reconcile, forcing a single
// table's displayed occupancy back in line with its open orders.
func (h *TableHandler) Reconcile(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	changed, err := h.Occupancy.ReconcileTable(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"table_id": id, "changed": changed})
}

// Sweep handles POST /v1/admin/occupancy-sweep, running the full
// occupancy pass on demand. The same routine runs on a timer in the
// background worker; this endpoint exists for operators.
func (h *TableHandler) Sweep(c echo.Context) error {
	result, err := h.Occupancy.RunSweep(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
