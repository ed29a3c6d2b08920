package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"news_ticker/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, source string) (*domain.SyncState, error) {
	var state domain.SyncState
	query := `
		SELECT id, source, last_synced_at, last_item_count, total_synced, last_error
		FROM sync_state
		WHERE source = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, source)
	if errors.Is(err, sql.ErrNoRows) {
		// never synced
		return &domain.SyncState{Source: source}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SyncStateStore) List(ctx context.Context) ([]domain.SyncState, error) {
	query := `
		SELECT id, source, last_synced_at, last_item_count, total_synced, last_error
		FROM sync_state
		ORDER BY source`

	states := make([]domain.SyncState, 0)
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &states, query); err != nil {
		return nil, err
	}
	return states, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO sync_state (source, last_synced_at, last_item_count, total_synced, last_error)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			last_item_count = EXCLUDED.last_item_count,
			total_synced = EXCLUDED.total_synced,
			last_error = EXCLUDED.last_error`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.Source,
		state.LastSyncedAt,
		state.LastItemCount,
		state.TotalSynced,
		state.LastError,
	)
	return err
}
