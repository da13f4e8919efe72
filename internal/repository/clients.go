package repository

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Adam044/ProFormance/internal/gateway"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// db is the persistence surface repositories need from the gateway.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, scan func(rows pgx.Rows) error, sql string, args ...any) error
}

var _ db = (*gateway.Gateway)(nil)

// BodyMap stores per-region annotations as a jsonb document keyed by
// body region.
type BodyMap map[string]map[string]any

// Client is a patient record.
type Client struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              *string    `json:"email"`
	Phone              *string    `json:"phone"`
	Gender             *string    `json:"gender"`
	DOB                *time.Time `json:"dob"`
	AccessCode         *string    `json:"accessCode"`
	PrimaryIssue       *string    `json:"primaryIssue"`
	Status             *string    `json:"status"`
	Active             *bool      `json:"active"`
	VisitMode          *string    `json:"visitMode"`
	Athletic           *bool      `json:"athletic"`
	AthleticType       *string    `json:"athleticType"`
	AthleticPosition   *string    `json:"athleticPosition"`
	Occupation         *string    `json:"occupation"`
	Medication         *string    `json:"medication"`
	MedicationNote     *string    `json:"medicationNote"`
	PrevInjuryLocation *string    `json:"prevInjuryLocation"`
	PrevInjuryYear     *int       `json:"prevInjuryYear"`
	PrevInjuryNote     *string    `json:"prevInjuryNote"`
	TrainingLoadDays   *int       `json:"trainingLoadDays"`
	SuddenLoadChanges  *string    `json:"suddenLoadChanges"`
	SleepHours         *int       `json:"sleepHours"`
	LastUpdated        *time.Time `json:"lastUpdated"`
	NextSession        *time.Time `json:"nextSession"`
	BodyMap            BodyMap    `json:"bodyMap"`

	// History is populated only by FindByID.
	History []Session `json:"history,omitempty"`
}

// CreateClientInput carries the writable fields of a new patient record.
type CreateClientInput struct {
	Name               string  `json:"name" validate:"required"`
	Email              *string `json:"email" validate:"omitempty,email"`
	Phone              *string `json:"phone"`
	Gender             *string `json:"gender"`
	DOB                *string `json:"dob"`
	AccessCode         *string `json:"accessCode"`
	PrimaryIssue       *string `json:"primaryIssue"`
	VisitMode          *string `json:"visitMode"`
	Athletic           *bool   `json:"athletic"`
	AthleticType       *string `json:"athleticType"`
	AthleticPosition   *string `json:"athleticPosition"`
	Occupation         *string `json:"occupation"`
	Medication         *string `json:"medication"`
	MedicationNote     *string `json:"medicationNote"`
	PrevInjuryLocation *string `json:"prevInjuryLocation"`
	PrevInjuryYear     *int    `json:"prevInjuryYear"`
	PrevInjuryNote     *string `json:"prevInjuryNote"`
	TrainingLoadDays   *int    `json:"trainingLoadDays"`
	SuddenLoadChanges  *string `json:"suddenLoadChanges"`
	SleepHours         *int    `json:"sleepHours"`
}

const clientColumns = `id, name, email, phone, gender, dob, access_code, primary_issue, status,
	active, visit_mode, athletic, athletic_type, athletic_position, occupation, medication,
	medication_note, prev_injury_location, prev_injury_year, prev_injury_note, training_load_days,
	sudden_load_changes, sleep_hours, last_updated, next_session, body_map`

// clientUpdateColumns is the ordered allow-list for partial updates.
// Request keys outside this list are silently ignored; access_code and
// body_map are deliberately not updatable through this path.
var clientUpdateColumns = []struct {
	key    string
	column string
}{
	{"name", "name"},
	{"email", "email"},
	{"phone", "phone"},
	{"gender", "gender"},
	{"dob", "dob"},
	{"primaryIssue", "primary_issue"},
	{"nextSession", "next_session"},
	{"status", "status"},
	{"active", "active"},
	{"visitMode", "visit_mode"},
	{"athletic", "athletic"},
	{"athleticType", "athletic_type"},
	{"athleticPosition", "athletic_position"},
	{"occupation", "occupation"},
	{"medication", "medication"},
	{"medicationNote", "medication_note"},
	{"prevInjuryLocation", "prev_injury_location"},
	{"prevInjuryYear", "prev_injury_year"},
	{"prevInjuryNote", "prev_injury_note"},
	{"trainingLoadDays", "training_load_days"},
	{"suddenLoadChanges", "sudden_load_changes"},
	{"sleepHours", "sleep_hours"},
}

// ClientsRepository persists patient records.
type ClientsRepository struct {
	db db
}

func NewClientsRepository(db db) *ClientsRepository {
	return &ClientsRepository{db: db}
}

func scanClient(rows pgx.Rows) (*Client, error) {
	var c Client
	err := rows.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Gender, &c.DOB, &c.AccessCode,
		&c.PrimaryIssue, &c.Status, &c.Active, &c.VisitMode, &c.Athletic,
		&c.AthleticType, &c.AthleticPosition, &c.Occupation, &c.Medication,
		&c.MedicationNote, &c.PrevInjuryLocation, &c.PrevInjuryYear,
		&c.PrevInjuryNote, &c.TrainingLoadDays, &c.SuddenLoadChanges,
		&c.SleepHours, &c.LastUpdated, &c.NextSession, &c.BodyMap,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all patient records, most recently updated first.
func (r *ClientsRepository) List(ctx context.Context) ([]Client, error) {
	var out []Client
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		out = nil
		for rows.Next() {
			c, err := scanClient(rows)
			if err != nil {
				return err
			}
			out = append(out, *c)
		}
		return nil
	}, `SELECT `+clientColumns+` FROM clients ORDER BY last_updated DESC NULLS LAST`)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Client{}
	}
	return out, nil
}

// FindByID returns a single patient record with its session history.
// Returns pgx.ErrNoRows when the record does not exist.
func (r *ClientsRepository) FindByID(ctx context.Context, id string) (*Client, error) {
	var client *Client
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		client = nil
		if !rows.Next() {
			return nil
		}
		c, err := scanClient(rows)
		if err != nil {
			return err
		}
		client = c
		return nil
	}, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, pgx.ErrNoRows
	}

	history, err := r.history(ctx, id)
	if err != nil {
		return nil, err
	}
	client.History = history
	return client, nil
}

func (r *ClientsRepository) history(ctx context.Context, clientID string) ([]Session, error) {
	var out []Session
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		out = nil
		for rows.Next() {
			s, err := scanSession(rows)
			if err != nil {
				return err
			}
			out = append(out, *s)
		}
		return nil
	}, `SELECT `+sessionColumns+` FROM sessions WHERE client_id = $1 ORDER BY date DESC`, clientID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Session{}
	}
	return out, nil
}

// Create inserts a new patient record along with an initial "File
// Opened" session marking the registration.
func (r *ClientsRepository) Create(ctx context.Context, in *CreateClientInput) (*Client, error) {
	id := uuid.NewString()
	now := time.Now()

	accessCode := ""
	if in.AccessCode != nil {
		accessCode = *in.AccessCode
	}
	if accessCode == "" {
		code, err := newAccessCode()
		if err != nil {
			return nil, err
		}
		accessCode = code
	}

	visitMode := "in_person"
	if in.VisitMode != nil && *in.VisitMode != "" {
		visitMode = *in.VisitMode
	}
	athletic := false
	if in.Athletic != nil {
		athletic = *in.Athletic
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO clients (
			id, name, email, phone, gender, dob, access_code, primary_issue, status, active,
			visit_mode, athletic, athletic_type, athletic_position, occupation, medication,
			medication_note, prev_injury_location, prev_injury_year, prev_injury_note,
			training_load_days, sudden_load_changes, sleep_hours, last_updated, next_session, body_map
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,'Active',TRUE,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,NULL,'{}'::jsonb
		)`,
		id, in.Name, in.Email, in.Phone, in.Gender, in.DOB, accessCode, in.PrimaryIssue,
		visitMode, athletic, in.AthleticType, in.AthleticPosition, in.Occupation,
		in.Medication, in.MedicationNote, in.PrevInjuryLocation, in.PrevInjuryYear,
		in.PrevInjuryNote, in.TrainingLoadDays, in.SuddenLoadChanges, in.SleepHours, now,
	)
	if err != nil {
		return nil, err
	}

	complaint := ""
	if in.PrimaryIssue != nil {
		complaint = *in.PrimaryIssue
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO sessions (id, client_id, date, title, note, type, progress, payment_status, currency, payment_type, amount)
		VALUES ($1,$2,$3,$4,$5,$6,0,'on_hold','$','cash',0)`,
		uuid.NewString(), id, now, "File Opened",
		fmt.Sprintf("Patient registered. Complaint: %s", complaint), "admin",
	)
	if err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id)
}

// Update applies a partial update from the allow-listed request fields
// and stamps last_updated. When fields contains nothing updatable it
// returns (nil, nil) and the record is untouched. Returns pgx.ErrNoRows
// when the record does not exist.
func (r *ClientsRepository) Update(ctx context.Context, id string, fields map[string]any) (*Client, error) {
	var sets []string
	var values []any
	for _, fc := range clientUpdateColumns {
		if v, ok := fields[fc.key]; ok {
			sets = append(sets, fmt.Sprintf("%s = $%d", fc.column, len(values)+1))
			values = append(values, v)
		}
	}
	if len(sets) == 0 {
		return nil, nil
	}

	values = append(values, time.Now(), id)
	sql := fmt.Sprintf(
		`UPDATE clients SET %s, last_updated = $%d WHERE id = $%d RETURNING `+clientColumns,
		strings.Join(sets, ", "), len(values)-1, len(values),
	)

	var client *Client
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		client = nil
		if !rows.Next() {
			return nil
		}
		c, err := scanClient(rows)
		if err != nil {
			return err
		}
		client = c
		return nil
	}, sql, values...)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, pgx.ErrNoRows
	}
	return client, nil
}

// UpdateBodyMap merges attrs into the region's entry, or removes the
// region entirely when clear is set, and returns the resulting map.
func (r *ClientsRepository) UpdateBodyMap(ctx context.Context, id, region string, clear bool, attrs map[string]any) (BodyMap, error) {
	var bm BodyMap
	found := false
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		bm, found = nil, false
		if !rows.Next() {
			return nil
		}
		found = true
		return rows.Scan(&bm)
	}, `SELECT body_map FROM clients WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pgx.ErrNoRows
	}

	bm = mergeBodyMap(bm, region, clear, attrs)

	_, err = r.db.Exec(ctx,
		`UPDATE clients SET body_map = $1, last_updated = $2 WHERE id = $3`,
		bm, time.Now(), id,
	)
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// Schedule sets the next appointment date. A nil date clears it.
func (r *ClientsRepository) Schedule(ctx context.Context, id string, date *time.Time) error {
	var err error
	if date == nil {
		_, err = r.db.Exec(ctx, `UPDATE clients SET next_session = NULL WHERE id = $1`, id)
	} else {
		_, err = r.db.Exec(ctx, `UPDATE clients SET next_session = $1 WHERE id = $2`, *date, id)
	}
	return err
}

// FindByCredentials looks up a patient by email and access code.
// Returns (nil, nil) when no record matches; that is an authentication
// failure, not a missing-resource error.
func (r *ClientsRepository) FindByCredentials(ctx context.Context, email, accessCode string) (*Client, error) {
	var client *Client
	err := r.db.Query(ctx, func(rows pgx.Rows) error {
		client = nil
		if !rows.Next() {
			return nil
		}
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email); err != nil {
			return err
		}
		client = &c
		return nil
	}, `SELECT id, name, email FROM clients WHERE email = $1 AND access_code = $2 LIMIT 1`,
		email, accessCode,
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// mergeBodyMap applies one region mutation to a body map.
func mergeBodyMap(bm BodyMap, region string, clear bool, attrs map[string]any) BodyMap {
	if bm == nil {
		bm = BodyMap{}
	}
	if clear {
		delete(bm, region)
		return bm
	}
	merged := map[string]any{}
	for k, v := range bm[region] {
		merged[k] = v
	}
	for k, v := range attrs {
		merged[k] = v
	}
	bm[region] = merged
	return bm
}

const accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newAccessCode generates the 8-character code a patient logs in with.
func newAccessCode() (string, error) {
	code := make([]byte, 8)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(accessCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = accessCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
