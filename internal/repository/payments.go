package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Payment is one billing entry, either standalone or mirrored from a
// session.
type Payment struct {
	ID        string     `json:"id"`
	ClientID  *string    `json:"clientId"`
	SessionID *string    `json:"sessionId"`
	Date      *time.Time `json:"date"`
	Amount    float64    `json:"amount"`
	Currency  *string    `json:"currency"`
	Status    *string    `json:"status"`
	Method    *string    `json:"method"`
	Reference *string    `json:"reference"`
	Note      *string    `json:"note"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CreatePaymentInput carries the writable fields of a standalone
// payment.
type CreatePaymentInput struct {
	ClientID  *string    `json:"clientId"`
	SessionID *string    `json:"sessionId"`
	Date      *time.Time `json:"date"`
	Amount    *float64   `json:"amount"`
	Currency  *string    `json:"currency"`
	Status    *string    `json:"status"`
	Method    *string    `json:"method"`
	Reference *string    `json:"reference"`
	Note      *string    `json:"note"`
}

// Range bounds analytics queries by payment date, inclusive.
type Range struct {
	From time.Time
	To   time.Time
}

// Summary aggregates paid and outstanding totals over a range.
type Summary struct {
	Gross        float64 `json:"gross"`
	CountPaid    int64   `json:"countPaid"`
	Balance      float64 `json:"balance"`
	PendingCount int64   `json:"pendingCount"`
}

// TimeseriesPoint is one bucket of revenue over time.
type TimeseriesPoint struct {
	Bucket time.Time `json:"bucket"`
	Total  float64   `json:"total"`
}

// MethodTotal is revenue attributed to one payment method.
type MethodTotal struct {
	Method string  `json:"method"`
	Total  float64 `json:"total"`
}

// ClientTotal is revenue attributed to one client.
type ClientTotal struct {
	ID    *string `json:"id"`
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

const paymentColumns = `id, client_id, session_id, date, amount, currency, status, method, reference, note, created_at, updated_at`

// PaymentsRepository persists payments and answers revenue analytics.
type PaymentsRepository struct {
	db db
}

func NewPaymentsRepository(db db) *PaymentsRepository {
	return &PaymentsRepository{db: db}
}

func scanPayment(rows pgx.Rows) (*Payment, error) {
	var p Payment
	err := rows.Scan(
		&p.ID, &p.ClientID, &p.SessionID, &p.Date, &p.Amount, &p.Currency,
		&p.Status, &p.Method, &p.Reference, &p.Note, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all payments, newest first.
func (r *PaymentsRepository) List(ctx context.Context) ([]Payment, error) {
	var out []Payment
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		out = nil
		for rows.Next() {
			p, err := scanPayment(rows)
			if err != nil {
				return err
			}
			out = append(out, *p)
		}
		return nil
	}, `SELECT `+paymentColumns+` FROM payments ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Payment{}
	}
	return out, nil
}

// Create inserts a standalone payment. Missing fields take the manual
// entry defaults: paid, cash, "$", dated now.
func (r *PaymentsRepository) Create(ctx context.Context, in *CreatePaymentInput) (*Payment, error) {
	id := uuid.NewString()

	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}
	amount := float64(0)
	if in.Amount != nil {
		amount = *in.Amount
	}
	currency := "$"
	if in.Currency != nil && *in.Currency != "" {
		currency = *in.Currency
	}
	status := "paid"
	if in.Status != nil && *in.Status != "" {
		status = *in.Status
	}
	method := "cash"
	if in.Method != nil && *in.Method != "" {
		method = *in.Method
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO payments (id, client_id, session_id, date, amount, currency, status, method, reference, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		id, in.ClientID, in.SessionID, date, amount, currency, status, method, in.Reference, in.Note,
	)
	if err != nil {
		return nil, err
	}

	var payment *Payment
	err = r.db.Query(ctx, func(rows pgx.Rows) error {
		payment = nil
		if !rows.Next() {
			return nil
		}
		p, err := scanPayment(rows)
		if err != nil {
			return err
		}
		payment = p
		return nil
	}, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, pgx.ErrNoRows
	}
	return payment, nil
}

// Summary totals paid revenue and outstanding balance over the range,
// optionally restricted to one currency.
func (r *PaymentsRepository) Summary(ctx context.Context, rng Range, currency *string) (*Summary, error) {
	var s Summary

	sql := `SELECT COALESCE(SUM(amount),0), COUNT(*) FROM payments WHERE status = 'paid' AND date BETWEEN $1 AND $2`
	args := []any{rng.From, rng.To}
	if currency != nil {
		sql += ` AND currency = $3`
		args = append(args, *currency)
	}
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		if !rows.Next() {
			return pgx.ErrNoRows
		}
		return rows.Scan(&s.Gross, &s.CountPaid)
	}, sql, args...)
	if err != nil {
		return nil, err
	}

	sql = `SELECT COALESCE(SUM(amount),0), COUNT(*) FROM payments WHERE status <> 'paid' AND date BETWEEN $1 AND $2`
	args = []any{rng.From, rng.To}
	if currency != nil {
		sql += ` AND currency = $3`
		args = append(args, *currency)
	}
	err = r.db.Query(ctx, func(rows pgx.Rows) error {
		if !rows.Next() {
			return pgx.ErrNoRows
		}
		return rows.Scan(&s.Balance, &s.PendingCount)
	}, sql, args...)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// truncUnit maps a requested granularity onto a date_trunc unit.
// Anything unrecognized falls back to month; only whitelisted units
// ever reach the SQL text.
func truncUnit(granularity string) string {
	switch granularity {
	case "day":
		return "day"
	case "week":
		return "week"
	default:
		return "month"
	}
}

// Timeseries buckets revenue by day, week, or month over the range. By
// default only paid payments count; allStatuses includes everything.
func (r *PaymentsRepository) Timeseries(ctx context.Context, rng Range, currency *string, granularity string, allStatuses bool) ([]TimeseriesPoint, error) {
	sql := `SELECT date_trunc('` + truncUnit(granularity) + `', date), COALESCE(SUM(amount),0) FROM payments WHERE `
	if !allStatuses {
		sql += `status = 'paid' AND `
	}
	sql += `date BETWEEN $1 AND $2`
	args := []any{rng.From, rng.To}
	if currency != nil {
		sql += ` AND currency = $3`
		args = append(args, *currency)
	}
	sql += ` GROUP BY 1 ORDER BY 1 ASC`

	var out []TimeseriesPoint
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		out = nil
		for rows.Next() {
			var p TimeseriesPoint
			if err := rows.Scan(&p.Bucket, &p.Total); err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	}, sql, args...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []TimeseriesPoint{}
	}
	return out, nil
}

// MethodBreakdown totals revenue per payment method over the range.
func (r *PaymentsRepository) MethodBreakdown(ctx context.Context, rng Range, currency *string, allStatuses bool) ([]MethodTotal, error) {
	sql := `SELECT method, COALESCE(SUM(amount),0) FROM payments WHERE `
	if !allStatuses {
		sql += `status = 'paid' AND `
	}
	sql += `date BETWEEN $1 AND $2`
	args := []any{rng.From, rng.To}
	if currency != nil {
		sql += ` AND currency = $3`
		args = append(args, *currency)
	}
	sql += ` GROUP BY method ORDER BY 2 DESC`

	var out []MethodTotal
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		out = nil
		for rows.Next() {
			var method *string
			var total float64
			if err := rows.Scan(&method, &total); err != nil {
				return err
			}
			mt := MethodTotal{Method: "unknown", Total: total}
			if method != nil {
				mt.Method = *method
			}
			out = append(out, mt)
		}
		return nil
	}, sql, args...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []MethodTotal{}
	}
	return out, nil
}

// TopClients ranks clients by paid revenue over the range. limit is
// clamped to [1, 50].
func (r *PaymentsRepository) TopClients(ctx context.Context, rng Range, currency *string, limit int) ([]ClientTotal, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	sql := `SELECT c.id, c.name, COALESCE(SUM(p.amount),0) AS total
		FROM payments p LEFT JOIN clients c ON p.client_id = c.id
		WHERE p.status = 'paid' AND p.date BETWEEN $1 AND $2`
	args := []any{rng.From, rng.To}
	if currency != nil {
		sql += ` AND p.currency = $3`
		args = append(args, *currency)
	}
	args = append(args, limit)
	sql += ` GROUP BY c.id, c.name ORDER BY total DESC LIMIT $` + strconv.Itoa(len(args))

	var out []ClientTotal
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		out = nil
		for rows.Next() {
			var id, name *string
			var total float64
			if err := rows.Scan(&id, &name, &total); err != nil {
				return err
			}
			ct := ClientTotal{ID: id, Name: "Unknown", Total: total}
			if name != nil {
				ct.Name = *name
			}
			out = append(out, ct)
		}
		return nil
	}, sql, args...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []ClientTotal{}
	}
	return out, nil
}
