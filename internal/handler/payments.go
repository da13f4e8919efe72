package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Adam044/ProFormance/internal/repository"
	"github.com/Adam044/ProFormance/internal/server"
	"github.com/Adam044/ProFormance/internal/validation"
	"github.com/labstack/echo/v4"
)

// defaultAnalyticsWindow is how far back analytics queries look when
// no explicit range is given.
const defaultAnalyticsWindow = 180 * 24 * time.Hour

// PaymentsHandler exposes the payments ledger and revenue analytics.
type PaymentsHandler struct {
	Handler
	payments *repository.PaymentsRepository
}

// NewPaymentsHandler constructs a PaymentsHandler.
func NewPaymentsHandler(s *server.Server, repos *repository.Repositories) *PaymentsHandler {
	return &PaymentsHandler{
		Handler:  NewHandler(s),
		payments: repos.Payments,
	}
}

// List returns all payments, newest first.
func (h *PaymentsHandler) List(c echo.Context) error {
	payments, err := h.payments.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

// CreatePaymentRequest is the manual payment entry payload.
type CreatePaymentRequest struct {
	repository.CreatePaymentInput
}

func (r *CreatePaymentRequest) Validate() error {
	return validation.Struct(r)
}

// Create records a standalone payment.
func (h *PaymentsHandler) Create(c echo.Context, req *CreatePaymentRequest) (*repository.Payment, error) {
	return h.payments.Create(c.Request().Context(), &req.CreatePaymentInput)
}

// parseRange reads from/to query parameters, defaulting to the last
// 180 days ending now. Unparseable values fall back to the defaults.
func parseRange(c echo.Context) repository.Range {
	to := time.Now()
	if raw := c.QueryParam("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			to = t
		}
	}
	from := to.Add(-defaultAnalyticsWindow)
	if raw := c.QueryParam("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			from = t
		}
	}
	return repository.Range{From: from, To: to}
}

func currencyParam(c echo.Context) *string {
	if currency := c.QueryParam("currency"); currency != "" {
		return &currency
	}
	return nil
}

// Summary returns paid and outstanding totals over the range.
func (h *PaymentsHandler) Summary(c echo.Context) error {
	summary, err := h.payments.Summary(c.Request().Context(), parseRange(c), currencyParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// Timeseries returns revenue bucketed by day, week, or month.
func (h *PaymentsHandler) Timeseries(c echo.Context) error {
	points, err := h.payments.Timeseries(
		c.Request().Context(),
		parseRange(c),
		currencyParam(c),
		c.QueryParam("granularity"),
		c.QueryParam("status") == "all",
	)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, points)
}

// MethodBreakdown returns revenue totals per payment method.
func (h *PaymentsHandler) MethodBreakdown(c echo.Context) error {
	breakdown, err := h.payments.MethodBreakdown(
		c.Request().Context(),
		parseRange(c),
		currencyParam(c),
		c.QueryParam("status") == "all",
	)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, breakdown)
}

// TopClients ranks clients by paid revenue over the range.
func (h *PaymentsHandler) TopClients(c echo.Context) error {
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	top, err := h.payments.TopClients(c.Request().Context(), parseRange(c), currencyParam(c), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, top)
}
