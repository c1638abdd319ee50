package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/deppfellow/produto-service/internal/errs"
	pkgerrors "github.com/pkg/errors"
)

// Querier is the subset of *sql.Tx that repositories use.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is a transaction a Session can finalize. *sql.Tx satisfies it.
type Tx interface {
	Querier
	Commit() error
	Rollback() error
}

// SessionProvider hands out request-scoped sessions.
type SessionProvider interface {
	Acquire(ctx context.Context) (*Session, error)
}

// Outcome records how a Session was finalized.
type Outcome int

const (
	OutcomeOpen Outcome = iota
	OutcomeCommitted
	OutcomeRolledBack
)

// Session is one connection and one transaction owned by one invocation.
//
// Commit and Rollback finalize the session exactly once: whichever runs
// first wins and every later call is a no-op returning nil. The underlying
// connection is returned to the pool on finalization.
type Session struct {
	tx      Tx
	release func() error

	once        sync.Once
	mu          sync.Mutex
	outcome     Outcome
	afterCommit []func(context.Context)
}

// NewSession wraps tx. release, if non-nil, runs once after the
// transaction is finalized.
func NewSession(tx Tx, release func() error) *Session {
	return &Session{tx: tx, release: release}
}

// Querier returns the transaction for repository calls.
func (s *Session) Querier() Querier {
	return s.tx
}

// AfterCommit registers fn to run after a successful commit.
// Hooks never run on rollback.
func (s *Session) AfterCommit(fn func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterCommit = append(s.afterCommit, fn)
}

// Commit commits the transaction and then runs the after-commit hooks
// with a context detached from ctx's cancellation.
func (s *Session) Commit(ctx context.Context) error {
	var err error
	committed := false

	s.once.Do(func() {
		err = s.tx.Commit()
		s.finish()
		if err != nil {
			s.setOutcome(OutcomeRolledBack)
			err = pkgerrors.Wrap(err, "commit transaction")
			return
		}
		s.setOutcome(OutcomeCommitted)
		committed = true
	})

	if committed {
		s.runHooks(context.WithoutCancel(ctx))
	}

	return err
}

// Rollback aborts the transaction. A transaction already closed by its
// context is not an error.
func (s *Session) Rollback() error {
	var err error

	s.once.Do(func() {
		err = s.tx.Rollback()
		s.finish()
		s.setOutcome(OutcomeRolledBack)
		if errors.Is(err, sql.ErrTxDone) {
			err = nil
		}
		if err != nil {
			err = pkgerrors.Wrap(err, "rollback transaction")
		}
	})

	return err
}

// Outcome reports how the session was finalized.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

func (s *Session) setOutcome(o Outcome) {
	s.mu.Lock()
	s.outcome = o
	s.mu.Unlock()
}

func (s *Session) finish() {
	if s.release != nil {
		_ = s.release()
	}
}

func (s *Session) runHooks(ctx context.Context) {
	s.mu.Lock()
	hooks := s.afterCommit
	s.afterCommit = nil
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx)
	}
}

// UnavailableMessage is the client message for pool exhaustion or an unreachable database.
const UnavailableMessage = "Service temporarily unavailable"

// Acquire takes a pooled connection, waiting at most the configured
// acquire timeout, and begins a transaction on it.
//
// The connection wait uses its own deadline; the transaction is bound to
// ctx so it is rolled back if the invocation is cancelled.
//
// Failures are returned, not logged: the returned 503 is wrapped with the
// wait time and the driver cause, and the caller logs it once when the
// invocation fails.
func (db *Database) Acquire(ctx context.Context) (*Session, error) {
	acqCtx := ctx
	if db.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, db.acquireTimeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := db.DB.Conn(acqCtx)
	if err != nil {
		return nil, pkgerrors.Wrapf(errs.NewServiceUnavailableError(UnavailableMessage),
			"acquire connection (waited %s): %v", time.Since(start), err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		_ = conn.Close()
		return nil, pkgerrors.Wrapf(errs.NewServiceUnavailableError(UnavailableMessage),
			"begin transaction: %v", err)
	}

	return NewSession(tx, conn.Close), nil
}
