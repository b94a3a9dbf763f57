package pg

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"myace.ai/internal/auth"
)

// Store implements every persistence port of the auth core over PostgreSQL.
type Store struct {
	db *sql.DB
}

var (
	_ auth.UserStore           = (*Store)(nil)
	_ auth.EnterpriseStore     = (*Store)(nil)
	_ auth.InvitationStore     = (*Store)(nil)
	_ auth.MemberStore         = (*Store)(nil)
	_ auth.RoleDirectory       = (*Store)(nil)
	_ auth.InvitationDirectory = (*Store)(nil)
)

// Open connects to Postgres and tunes the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection (used by tests with sqlmock).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }
