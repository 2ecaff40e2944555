package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-ddd-library/internal/domain/repository"
)

// CollectionStore keeps each collection as a JSONB row of the collections
// table, keyed by collection name. Schema lives in db/migrations.
type CollectionStore struct {
	pool *pgxpool.Pool
}

func NewCollectionStore(pool *pgxpool.Pool) *CollectionStore {
	return &CollectionStore{pool: pool}
}

func (s *CollectionStore) Read(ctx context.Context, key repository.CollectionKey) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data
		FROM collections
		WHERE key = $1
	`, string(key)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *CollectionStore) Write(ctx context.Context, key repository.CollectionKey, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collections (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, string(key), string(data))
	return err
}

func (s *CollectionStore) Drop(ctx context.Context, key repository.CollectionKey) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM collections WHERE key = $1`, string(key))
	return err
}

var (
	_ repository.CollectionStore   = (*CollectionStore)(nil)
	_ repository.CollectionDropper = (*CollectionStore)(nil)
)
