package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Session is one treatment entry in a patient's history.
type Session struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"clientId"`
	Date          *time.Time `json:"date"`
	Title         *string    `json:"title"`
	Note          *string    `json:"note"`
	Type          *string    `json:"type"`
	Progress      *int       `json:"progress"`
	PaymentStatus *string    `json:"paymentStatus"`
	Currency      *string    `json:"currency"`
	PaymentType   *string    `json:"paymentType"`
	Amount        *float64   `json:"amount"`
	BodyMap       BodyMap    `json:"bodyMap"`
}

// CreateSessionInput carries the writable fields of a new session.
type CreateSessionInput struct {
	Date          *time.Time `json:"date"`
	Title         *string    `json:"title"`
	Note          *string    `json:"note"`
	Progress      *int       `json:"progress"`
	PaymentStatus *string    `json:"paymentStatus"`
	Currency      *string    `json:"currency"`
	PaymentType   *string    `json:"paymentType"`
	Amount        *float64   `json:"amount"`
}

const sessionColumns = `id, client_id, date, title, note, type, progress, payment_status, currency, payment_type, amount, body_map`

// sessionUpdateColumns is the ordered allow-list for partial updates.
var sessionUpdateColumns = []struct {
	key    string
	column string
}{
	{"date", "date"},
	{"title", "title"},
	{"note", "note"},
	{"type", "type"},
	{"progress", "progress"},
	{"paymentStatus", "payment_status"},
	{"currency", "currency"},
	{"paymentType", "payment_type"},
	{"amount", "amount"},
}

// SessionsRepository persists sessions and keeps each session's
// mirrored payment row in sync.
type SessionsRepository struct {
	db db
}

func NewSessionsRepository(db db) *SessionsRepository {
	return &SessionsRepository{db: db}
}

func scanSession(rows pgx.Rows) (*Session, error) {
	var s Session
	err := rows.Scan(
		&s.ID, &s.ClientID, &s.Date, &s.Title, &s.Note, &s.Type, &s.Progress,
		&s.PaymentStatus, &s.Currency, &s.PaymentType, &s.Amount, &s.BodyMap,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a session for the client, touches the client's
// last_updated stamp, and records the mirrored payment row.
func (r *SessionsRepository) Create(ctx context.Context, clientID string, in *CreateSessionInput) (*Session, error) {
	id := uuid.NewString()
	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}

	progress := 0
	if in.Progress != nil {
		progress = *in.Progress
	}
	paymentStatus := "on_hold"
	if in.PaymentStatus != nil && *in.PaymentStatus != "" {
		paymentStatus = *in.PaymentStatus
	}
	currency := "$"
	if in.Currency != nil && *in.Currency != "" {
		currency = *in.Currency
	}
	paymentType := "cash"
	if in.PaymentType != nil && *in.PaymentType != "" {
		paymentType = *in.PaymentType
	}
	amount := float64(0)
	if in.Amount != nil {
		amount = *in.Amount
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, client_id, date, title, note, type, progress, payment_status, currency, payment_type, amount)
		VALUES ($1,$2,$3,$4,$5,'session',$6,$7,$8,$9,$10)`,
		id, clientID, date, in.Title, in.Note, progress, paymentStatus, currency, paymentType, amount,
	)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.Exec(ctx,
		`UPDATE clients SET last_updated = $1 WHERE id = $2`, time.Now(), clientID,
	); err != nil {
		return nil, err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO payments (id, client_id, session_id, date, amount, currency, status, method, reference, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULL,$9)`,
		uuid.NewString(), clientID, id, date, amount, currency, paymentStatus, paymentType, in.Note,
	)
	if err != nil {
		return nil, err
	}

	return r.find(ctx, id)
}

func (r *SessionsRepository) find(ctx context.Context, id string) (*Session, error) {
	var sess *Session
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		sess = nil
		if !rows.Next() {
			return nil
		}
		s, err := scanSession(rows)
		if err != nil {
			return err
		}
		sess = s
		return nil
	}, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, pgx.ErrNoRows
	}
	return sess, nil
}

// Update applies a partial update from the allow-listed request fields,
// then brings the session's payment row in line with the new values
// (creating it if it went missing). Empty field sets return (nil, nil)
// without touching the record. Returns pgx.ErrNoRows when the session
// does not exist under the given client.
func (r *SessionsRepository) Update(ctx context.Context, clientID, sessionID string, fields map[string]any) (*Session, error) {
	var sets []string
	var values []any
	for _, fc := range sessionUpdateColumns {
		if v, ok := fields[fc.key]; ok {
			sets = append(sets, fmt.Sprintf("%s = $%d", fc.column, len(values)+1))
			values = append(values, v)
		}
	}
	if len(sets) == 0 {
		return nil, nil
	}

	values = append(values, sessionID, clientID)
	sql := fmt.Sprintf(
		`UPDATE sessions SET %s WHERE id = $%d AND client_id = $%d RETURNING `+sessionColumns,
		strings.Join(sets, ", "), len(values)-1, len(values),
	)

	var sess *Session
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		sess = nil
		if !rows.Next() {
			return nil
		}
		s, err := scanSession(rows)
		if err != nil {
			return err
		}
		sess = s
		return nil
	}, sql, values...)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, pgx.ErrNoRows
	}

	if err := r.syncPayment(ctx, clientID, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// syncPayment mirrors the session's billing fields onto its payment
// row, inserting one when none exists yet.
func (r *SessionsRepository) syncPayment(ctx context.Context, clientID string, s *Session) error {
	date := time.Now()
	if s.Date != nil {
		date = *s.Date
	}
	amount := float64(0)
	if s.Amount != nil {
		amount = *s.Amount
	}
	currency := "$"
	if s.Currency != nil && *s.Currency != "" {
		currency = *s.Currency
	}
	status := "on_hold"
	if s.PaymentStatus != nil && *s.PaymentStatus != "" {
		status = *s.PaymentStatus
	}
	method := "cash"
	if s.PaymentType != nil && *s.PaymentType != "" {
		method = *s.PaymentType
	}

	exists := false
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		exists = rows.Next()
		return nil
	}, `SELECT id FROM payments WHERE session_id = $1`, s.ID)
	if err != nil {
		return err
	}

	if exists {
		_, err = r.db.Exec(ctx, `
			UPDATE payments SET date = $1, amount = $2, currency = $3, status = $4, method = $5, note = $6
			WHERE session_id = $7`,
			date, amount, currency, status, method, s.Note, s.ID,
		)
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO payments (id, client_id, session_id, date, amount, currency, status, method, reference, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULL,$9)`,
		uuid.NewString(), clientID, s.ID, date, amount, currency, status, method, s.Note,
	)
	return err
}

// Delete removes the session and its mirrored payment rows. Deleting a
// session that does not exist is a no-op.
func (r *SessionsRepository) Delete(ctx context.Context, clientID, sessionID string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM sessions WHERE id = $1 AND client_id = $2`, sessionID, clientID,
	); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `DELETE FROM payments WHERE session_id = $1`, sessionID)
	return err
}

// UpdateBodyMap merges attrs into the region's entry on the session's
// body map, or removes the region when clear is set.
func (r *SessionsRepository) UpdateBodyMap(ctx context.Context, clientID, sessionID, region string, clear bool, attrs map[string]any) (BodyMap, error) {
	var bm BodyMap
	found := false
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		bm, found = nil, false
		if !rows.Next() {
			return nil
		}
		found = true
		return rows.Scan(&bm)
	}, `SELECT body_map FROM sessions WHERE id = $1 AND client_id = $2`, sessionID, clientID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pgx.ErrNoRows
	}

	bm = mergeBodyMap(bm, region, clear, attrs)

	_, err = r.db.Exec(ctx,
		`UPDATE sessions SET body_map = $1 WHERE id = $2`, bm, sessionID,
	)
	if err != nil {
		return nil, err
	}
	return bm, nil
}
