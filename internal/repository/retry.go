package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/foodshare/backend/internal/domain"
)

const (
	readRetries = 2
	retryDelay  = 350 * time.Millisecond
)

// withRetry retries an idempotent read a bounded number of times on
// transient transport failures. Mutations must not go through here, to
// avoid double-application. Exhaustion surfaces as ErrUnavailable so the
// handler layer can answer 503.
func withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt <= readRetries; attempt++ {
		if err = op(); err == nil || !isTransient(err) {
			return err
		}
		if attempt == readRetries {
			break
		}
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// The server answered; this is not a transport blip.
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}
