package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Task identities. Two distinct ids never contend.
const (
	TaskUpload    int32 = 1
	TaskReconcile int32 = 2
)

// lockNamespace is the fixed first key of every advisory lock taken by this
// application, keeping its locks apart from anything else sharing the store.
const lockNamespace int32 = 5877

// TaskLock provides cross-instance mutual exclusion through Postgres
// session-scoped advisory locks. The lock dies with the holding session, so
// a crashed instance never needs manual cleanup.
type TaskLock struct {
	dbpool *pgxpool.Pool
	ctx    context.Context
}

func NewTaskLock(ctx context.Context, pool *pgxpool.Pool) *TaskLock {
	return &TaskLock{dbpool: pool, ctx: ctx}
}

// Run executes fn under the advisory lock for taskID. If another session
// holds the lock the tick is skipped silently and Run reports false. The
// lock is released even when fn fails; fn's error propagates after release.
func (l *TaskLock) Run(taskID int32, fn func() error) (bool, error) {
	conn, err := l.dbpool.Acquire(l.ctx)
	if err != nil {
		return false, fmt.Errorf("error acquiring connection for task lock %d: %v", taskID, err)
	}
	defer conn.Release()

	var acquired bool
	err = conn.QueryRow(l.ctx, `SELECT pg_try_advisory_lock($1, $2);`, lockNamespace, taskID).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("error acquiring task lock %d: %v", taskID, err)
	}
	if !acquired {
		return false, nil
	}

	defer func() {
		if _, err := conn.Exec(l.ctx, `SELECT pg_advisory_unlock($1, $2);`, lockNamespace, taskID); err != nil {
			// The session still holds the lock. Kill the connection so the
			// store releases it instead of returning it to the pool.
			log.Printf("WARN: failed to release task lock %d, closing connection: %v", taskID, err)
			conn.Conn().Close(context.Background())
		}
	}()

	return true, fn()
}
