// Package postgres implements reporting.Repository against PostgreSQL.
package postgres

import (
	"database/sql"

	"github.com/podsight/attribution-engine/internal/service/reporting"
)

// Repo is the Postgres-backed implementation of reporting.Repository.
// It is stateless apart from the pool and safe for concurrent use.
type Repo struct{ db *sql.DB }

// NewRepo creates a Postgres-backed repository over an existing pool.
func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

var _ reporting.Repository = (*Repo)(nil)
