package database

import (
	"context"
	"database/sql/driver"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Advisory lock keys. 64-bit namespace shared by every process on the
// database, so keep them unique within this service.
const (
	AutoMergeLockKey int64 = 7_301_942_001
)

// SessionLock pins one pooled connection for the lifetime of a session
// advisory lock. Session locks are connection-scoped, so acquire and release
// must run on the same connection; going through the pool would unlock on
// whichever connection the pool hands out.
type SessionLock struct {
	conn *sqlx.Conn
	key  int64
}

// TryAdvisoryLock checks a connection out of the pool and attempts a session
// advisory lock on it. Returns nil without blocking when another session
// holds the key. The caller must Release the returned lock.
func TryAdvisoryLock(ctx context.Context, db DB, key int64) (*SessionLock, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check out connection for advisory lock")
	}

	var acquired bool
	if err := conn.GetContext(ctx, &acquired, "SELECT pg_try_advisory_lock($1)", key); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to acquire advisory lock")
	}
	if !acquired {
		conn.Close()
		return nil, nil
	}

	return &SessionLock{conn: conn, key: key}, nil
}

// Release unlocks the key on the pinned connection and returns it to the
// pool. If the unlock fails the connection is discarded instead, so the
// server drops the lock with the session rather than the pool reusing a
// connection that still holds it.
func (l *SessionLock) Release(ctx context.Context) error {
	var released bool
	err := l.conn.GetContext(ctx, &released, "SELECT pg_advisory_unlock($1)", l.key)
	if err != nil || !released {
		l.conn.Raw(func(any) error { return driver.ErrBadConn })
		l.conn.Close()
		if err != nil {
			return errors.Wrap(err, "failed to release advisory lock")
		}
		return errors.Errorf("advisory lock %d was not held by this session", l.key)
	}

	return l.conn.Close()
}
