// Package pgx implements the store.GraphStorage interface on PostgreSQL with
// the pgvector extension for similarity search.
package pgx

import (
	"context"
	"sync"

	"github.com/netgraph-io/netgraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

var _ store.GraphStorage = (*GraphDBStorage)(nil)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// writeBatchSize is the number of records written per UNWIND-style statement.
const writeBatchSize = 500

// GraphDBStorage implements the GraphStorage interface using PostgreSQL with
// pgvector for vector similarity search. Writes are serialized with a mutex;
// reads go straight to the pool.
type GraphDBStorage struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

// NewGraphDBStorageWithConnection creates a GraphDBStorage on an existing
// database connection or pool.
func NewGraphDBStorageWithConnection(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}

// Connect opens a pgx pool against the given DSN with pgvector type support
// registered on every connection.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgxv5.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Reset wipes the whole graph: entities, relationships and reports.
func (s *GraphDBStorage) Reset(ctx context.Context) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	_, err := s.conn.Exec(ctx, `
		TRUNCATE TABLE relationships, community_reports, entities
	`)
	return err
}
