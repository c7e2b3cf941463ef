package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-orders/internal/middleware"
	"github.com/iliyamo/restaurant-table-orders/internal/model"
	"github.com/iliyamo/restaurant-table-orders/internal/repository"
	"github.com/iliyamo/restaurant-table-orders/internal/service"
)

// SettlementHandler exposes table settlement, receipt lookup and the
// manual receipt-number endpoint.
type SettlementHandler struct {
	Settlements *service.SettlementService
	Sequences   *service.SequenceService
	Payments    *repository.PaymentRepo
}

// NewSettlementHandler constructs a SettlementHandler.
func NewSettlementHandler(settlements *service.SettlementService, sequences *service.SequenceService, payments *repository.PaymentRepo) *SettlementHandler {
	if settlements == nil || sequences == nil || payments == nil {
		panic("nil dependency passed to NewSettlementHandler")
	}
	return &SettlementHandler{Settlements: settlements, Sequences: sequences, Payments: payments}
}

// Settle handles POST /v1/tables/:id/settle. Every pending order on
// the table is paid in one transaction under a single receipt number;
// a second call for the same table finds no pending orders and gets a
// 404 rather than a duplicate charge.
func (h *SettlementHandler) Settle(c echo.Context) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		Method            string `json:"method"`
		CashTenderedCents int64  `json:"cash_tendered_cents"`
		ExternalRef       string `json:"external_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	result, err := h.Settlements.SettleTable(c.Request().Context(), service.SettleTableRequest{
		TableID:           id,
		Method:            model.PaymentMethod(body.Method),
		CashTenderedCents: body.CashTenderedCents,
		ExternalRef:       body.ExternalRef,
		Actor:             actor,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetReceipt handles GET /v1/receipts/:number and returns every
// payment recorded under the receipt, primary entry first.
func (h *SettlementHandler) GetReceipt(c echo.Context) error {
	number := c.Param("number")
	if number == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid receipt number"})
	}
	payments, err := h.Payments.ListByReceipt(c.Request().Context(), number)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(payments) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "receipt not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"receipt_number": number, "payments": payments})
}

// NextReceipt handles POST /v1/admin/receipt-sequence. It burns one
// number from the caller's daily counter, for hand-written receipts
// when a card terminal prints outside the system. The number is
// consumed whether or not it is ever attached to a payment.
func (h *SettlementHandler) NextReceipt(c echo.Context) error {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seq, receipt, err := h.Sequences.NextReceiptNumber(c.Request().Context(), actor.RestaurantID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"sequence_number": seq, "receipt_number": receipt})
}
