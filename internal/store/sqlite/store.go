package sqlite

import (
	"time"

	"log/slog"

	"github.com/habitek/inspectd/internal/db"
	"github.com/habitek/inspectd/pkg/repository"
)

// Store implements the local mirror over SQLite using the internal DB wrapper.
type Store struct {
	conn        *db.DB
	logger      *slog.Logger
	maxAttempts int
}

// Ensure Store implements the public interfaces.
var _ repository.LocalStore = (*Store)(nil)

func New(conn *db.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{conn: conn, logger: logger, maxAttempts: defaultMaxAttempts}
}

// SetDefaultMaxAttempts overrides the retry ceiling applied to queue entries
// enqueued without an explicit one. Values below 1 are ignored.
func (s *Store) SetDefaultMaxAttempts(n int) {
	if n > 0 {
		s.maxAttempts = n
	}
}

func now() int64 {
	return time.Now().UTC().Unix()
}
