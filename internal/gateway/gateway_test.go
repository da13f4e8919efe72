package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/Adam044/ProFormance/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePool scripts pool behavior per call.
type fakePool struct {
	execErrs []error
	execs    int
	pings    int
	closed   bool
}

func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	var err error
	if p.execs < len(p.execErrs) {
		err = p.execErrs[p.execs]
	}
	p.execs++
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not scripted")
}

func (p *fakePool) Ping(ctx context.Context) error {
	p.pings++
	return nil
}

func (p *fakePool) Close() {
	p.closed = true
}

func testConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		URL:             "postgres://test",
		ConnectAttempts: 3,
		BackoffBase:     0,
		BackoffCap:      0,
		PingTimeout:     1,
	}
}

func newTestGateway(dial func(ctx context.Context) (pool, error)) *Gateway {
	log := zerolog.Nop()
	return &Gateway{
		cfg:  testConfig(),
		log:  &log,
		dial: dial,
	}
}

func TestConnectRetriesUntilSuccess(t *testing.T) {
	dials := 0
	p := &fakePool{}
	g := newTestGateway(func(ctx context.Context) (pool, error) {
		dials++
		if dials < 3 {
			return nil, errors.New("connection refused")
		}
		return p, nil
	})

	require.NoError(t, g.Connect(context.Background()))
	assert.Equal(t, 3, dials)
	assert.True(t, g.Ready())
	assert.Equal(t, 1, p.pings)
}

func TestConnectGivesUpAfterBoundedAttempts(t *testing.T) {
	dials := 0
	g := newTestGateway(func(ctx context.Context) (pool, error) {
		dials++
		return nil, errors.New("connection refused")
	})

	err := g.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, dials)
	assert.False(t, g.Ready())

	// The next caller triggers a fresh attempt sequence.
	err = g.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, 6, dials)
}

func TestExecTransientFailureRebuildsAndRetriesOnce(t *testing.T) {
	first := &fakePool{execErrs: []error{errors.New("conn closed")}}
	second := &fakePool{}
	pools := []*fakePool{first, second}

	dials := 0
	g := newTestGateway(func(ctx context.Context) (pool, error) {
		p := pools[dials]
		dials++
		return p, nil
	})

	affected, err := g.Exec(context.Background(), "UPDATE x SET y = 1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	assert.Equal(t, 2, dials)
	assert.True(t, first.closed, "broken pool must be discarded")
	assert.Equal(t, 1, first.execs)
	assert.Equal(t, 1, second.execs)
}

func TestExecSemanticFailureDoesNotRetry(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	p := &fakePool{execErrs: []error{pgErr}}

	dials := 0
	g := newTestGateway(func(ctx context.Context) (pool, error) {
		dials++
		return p, nil
	})

	_, err := g.Exec(context.Background(), "INSERT INTO x VALUES (1)")
	require.Error(t, err)

	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.ErrorIs(t, err, pgErr)

	assert.Equal(t, 1, dials, "no rebuild for semantic errors")
	assert.Equal(t, 1, p.execs, "no second attempt for semantic errors")
	assert.False(t, p.closed)
}

func TestExecRetryFailsTransientAgain(t *testing.T) {
	first := &fakePool{execErrs: []error{errors.New("conn closed")}}
	second := &fakePool{execErrs: []error{errors.New("connection reset by peer")}}
	pools := []*fakePool{first, second}

	dials := 0
	g := newTestGateway(func(ctx context.Context) (pool, error) {
		p := pools[dials]
		dials++
		return p, nil
	})

	_, err := g.Exec(context.Background(), "UPDATE x SET y = 1")
	require.Error(t, err)

	// Exactly one retry: the second transient failure surfaces, no
	// further rebuilds.
	var transientErr *TransientError
	assert.ErrorAs(t, err, &transientErr)
	assert.Equal(t, 2, dials)
	assert.Equal(t, 1, second.execs)
}

func TestExecUnavailableWhenConnectFails(t *testing.T) {
	g := newTestGateway(func(ctx context.Context) (pool, error) {
		return nil, errors.New("connection refused")
	})

	_, err := g.Exec(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestExecUnavailableWhenRebuildFails(t *testing.T) {
	first := &fakePool{execErrs: []error{errors.New("conn closed")}}

	dials := 0
	g := newTestGateway(func(ctx context.Context) (pool, error) {
		dials++
		if dials == 1 {
			return first, nil
		}
		return nil, errors.New("connection refused")
	})

	_, err := g.Exec(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, first.closed)
}

func TestPingWithoutPool(t *testing.T) {
	g := newTestGateway(func(ctx context.Context) (pool, error) {
		return nil, errors.New("unused")
	})
	assert.ErrorIs(t, g.Ping(context.Background()), ErrUnavailable)
}

func TestCloseDiscardsPool(t *testing.T) {
	p := &fakePool{}
	g := newTestGateway(func(ctx context.Context) (pool, error) {
		return p, nil
	})

	require.NoError(t, g.Connect(context.Background()))
	g.Close()

	assert.True(t, p.closed)
	assert.False(t, g.Ready())
}
