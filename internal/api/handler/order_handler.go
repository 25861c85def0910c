package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hourbank/timebank/internal/api/metrics"
	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

// OrderHandler exposes the order lifecycle over HTTP.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Send handles POST /users/:id/order-hour.
//
// @Summary      Order an hour of service from a user
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true   "Seller user id"
// @Param        body  body      sendOrderRequest  false  "Personal message for the seller"
// @Success      201   {object}  successEnvelope{data=orderData}
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Failure      500   {object}  errorEnvelope
// @Router       /users/{id}/order-hour [post]
func (h *OrderHandler) Send(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req sendOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.Send(c.Request().Context(), ports.SendOrderInput{
		CallerID: caller,
		TargetID: c.Param("id"),
		Message:  sanitize(req.Message),
	})
	switch {
	case err == nil:
		metrics.OrdersSentTotal.Inc()
		metrics.OrderTransitionsTotal.WithLabelValues(view.Status).Inc()
		metrics.NotificationsTotal.WithLabelValues("sync", "sent").Inc()
	case errors.Is(err, domain.ErrNotificationFailed):
		metrics.NotificationsTotal.WithLabelValues("sync", "failed").Inc()
		return err
	default:
		return rejected("send", err)
	}

	return respond(c, http.StatusCreated, orderData{Order: toOrderResponse(view)})
}

// Approve handles PATCH /orders/approve/:id.
//
// @Summary      Approve a received order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true   "Order id"
// @Param        body  body      respondOrderRequest  false  "Message for the buyer"
// @Success      200   {object}  successEnvelope{data=orderData}
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /orders/approve/{id} [patch]
func (h *OrderHandler) Approve(c echo.Context) error {
	return h.respondTo(c, "approve", h.service.Approve)
}

// Reject handles PATCH /orders/reject/:id.
//
// @Summary      Reject a received order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true   "Order id"
// @Param        body  body      respondOrderRequest  false  "Message for the buyer"
// @Success      200   {object}  successEnvelope{data=orderData}
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /orders/reject/{id} [patch]
func (h *OrderHandler) Reject(c echo.Context) error {
	return h.respondTo(c, "reject", h.service.Reject)
}

type respondFunc func(ctx context.Context, in ports.RespondOrderInput) (*ports.OrderView, error)

func (h *OrderHandler) respondTo(c echo.Context, op string, fn respondFunc) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req respondOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := fn(c.Request().Context(), ports.RespondOrderInput{
		CallerID: caller,
		OrderID:  c.Param("id"),
		Message:  sanitize(req.Message),
	})
	if err != nil {
		return rejected(op, err)
	}

	metrics.OrderTransitionsTotal.WithLabelValues(view.Status).Inc()
	return respond(c, http.StatusOK, orderData{Order: toOrderResponse(view)})
}

// Transact handles PATCH /orders/transact/:id.
//
// @Summary      Pay for an approved order
// @Description  Moves one hour of credit from the buyer to the seller. Approvals older than seven days are cancelled instead.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  successEnvelope{data=orderData}
// @Failure      400  {object}  errorEnvelope
// @Failure      401  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Failure      500  {object}  errorEnvelope
// @Router       /orders/transact/{id} [patch]
func (h *OrderHandler) Transact(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}

	view, err := h.service.Transact(c.Request().Context(), caller, c.Param("id"))
	switch {
	case err == nil:
		metrics.CreditTransfersTotal.WithLabelValues("committed").Inc()
		metrics.OrderTransitionsTotal.WithLabelValues(view.Status).Inc()
	case errors.Is(err, domain.ErrApprovalExpired):
		metrics.OrderExpirationsTotal.WithLabelValues("transact").Inc()
		metrics.OrderTransitionsTotal.WithLabelValues(string(domain.OrderCancelled)).Inc()
		return rejected("transact", err)
	case errors.Is(err, domain.ErrInsufficientCredit):
		metrics.CreditTransfersTotal.WithLabelValues("insufficient_credit").Inc()
		return rejected("transact", err)
	case errors.Is(err, domain.ErrTransferFailed):
		metrics.CreditTransfersTotal.WithLabelValues("failed").Inc()
		return err
	default:
		return rejected("transact", err)
	}

	return respond(c, http.StatusOK, orderData{Order: toOrderResponse(view)})
}

// List handles GET /orders (admin only).
//
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"  Enums(pending-approval, pending-transaction, complete, cancelled)
// @Param        page    query     int     false  "Page number (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  successEnvelope{data=orderListData}
// @Failure      400     {object}  errorEnvelope
// @Failure      403     {object}  errorEnvelope
// @Router       /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	page, err := intQuery(c, "page")
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}

	res, err := h.service.ListOrders(c.Request().Context(), ports.ListOrdersInput{
		Status: c.QueryParam("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toOrderListData(res))
}

// Get handles GET /orders/:id (admin only).
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  successEnvelope{data=orderData}
// @Failure      403  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	view, err := h.service.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, orderData{Order: toOrderResponse(view)})
}

// rejected counts an operation refused by the engine and passes err on.
func rejected(op string, err error) error {
	if kind := domain.KindOf(err); kind != domain.KindInternal {
		metrics.OrderRejectionsTotal.WithLabelValues(op, string(kind)).Inc()
	}
	return err
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Validation(name + " must be a positive integer")
	}
	return n, nil
}
