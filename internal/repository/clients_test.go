package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientUpdateUsesAllowList(t *testing.T) {
	db := &captureDB{}
	repo := NewClientsRepository(db)

	_, err := repo.Update(context.Background(), "c-1", map[string]any{
		"name":       "New Name",
		"sleepHours": 7,
		"accessCode": "HACKED",   // not updatable
		"body_map":   "ignored",  // not updatable
		"id":         "c-other",  // not updatable
		"unknown":    "whatever", // not a column
	})
	// No scripted rows: the update reports the record as missing, but
	// the generated statement is still what we care about here.
	require.ErrorIs(t, err, pgx.ErrNoRows)

	stmt := db.last()
	assert.Contains(t, stmt.sql, "name = $1")
	assert.Contains(t, stmt.sql, "sleep_hours = $2")
	assert.Contains(t, stmt.sql, "last_updated = $3")
	assert.Contains(t, stmt.sql, "WHERE id = $4")
	assert.NotContains(t, stmt.sql, "access_code")
	assert.NotContains(t, stmt.sql, "body_map")
	assert.NotContains(t, stmt.sql, "unknown")

	require.Len(t, stmt.args, 4)
	assert.Equal(t, "New Name", stmt.args[0])
	assert.Equal(t, 7, stmt.args[1])
	assert.Equal(t, "c-1", stmt.args[3])
}

func TestClientUpdateWithNothingToDo(t *testing.T) {
	db := &captureDB{}
	repo := NewClientsRepository(db)

	client, err := repo.Update(context.Background(), "c-1", map[string]any{
		"accessCode": "HACKED",
		"unknown":    "whatever",
	})

	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Empty(t, db.statements, "no statement may run for an empty update")
}

func TestClientUpdateFieldOrderIsStable(t *testing.T) {
	db := &captureDB{}
	repo := NewClientsRepository(db)

	fields := map[string]any{"email": "e", "name": "n", "phone": "p"}

	_, err := repo.Update(context.Background(), "c-1", fields)
	require.ErrorIs(t, err, pgx.ErrNoRows)
	first := db.last().sql

	// Same fields, same statement, regardless of map iteration order.
	for i := 0; i < 10; i++ {
		_, err := repo.Update(context.Background(), "c-1", fields)
		require.ErrorIs(t, err, pgx.ErrNoRows)
		assert.Equal(t, first, db.last().sql)
	}
}

func TestMergeBodyMap(t *testing.T) {
	bm := BodyMap{
		"shoulder": {"pain": 3.0, "note": "old"},
	}

	bm = mergeBodyMap(bm, "shoulder", false, map[string]any{"pain": 5.0})
	assert.Equal(t, 5.0, bm["shoulder"]["pain"])
	assert.Equal(t, "old", bm["shoulder"]["note"], "unrelated attributes survive a merge")

	bm = mergeBodyMap(bm, "knee", false, map[string]any{"pain": 2.0})
	assert.Len(t, bm, 2)

	bm = mergeBodyMap(bm, "shoulder", true, nil)
	assert.NotContains(t, bm, "shoulder")
	assert.Contains(t, bm, "knee")

	// Clearing an absent region of a nil map is harmless.
	assert.NotNil(t, mergeBodyMap(nil, "hip", true, nil))
}

func TestNewAccessCode(t *testing.T) {
	format := regexp.MustCompile(`^[A-Z0-9]{8}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := newAccessCode()
		require.NoError(t, err)
		assert.Regexp(t, format, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes must not repeat deterministically")
}
