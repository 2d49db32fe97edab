// internal/store/sql.go
//
// SQL-backed Store over the game_states table (sqlite or postgres via
// internal/database). State is kept as the same JSON the memory store uses.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/robalobadob/charades/internal/database"
	"github.com/robalobadob/charades/internal/game"
)

// SQLStore keeps game state in the game_states table.
type SQLStore struct {
	db *database.DB
}

// NewSQLStore wraps a migrated database.
func NewSQLStore(db *database.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Load(ctx context.Context, player string, round int) (game.GameState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM game_states WHERE player_id=? AND round_index=?`,
		player, round,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return game.GameState{}, ErrNotFound
	}
	if err != nil {
		return game.GameState{}, fmt.Errorf("load state: %w", err)
	}
	st, ok := decode(player, round, []byte(raw))
	if !ok {
		return game.GameState{}, ErrNotFound
	}
	return st, nil
}

func (s *SQLStore) Save(ctx context.Context, player string, round int, st game.GameState) error {
	raw, err := encode(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_states (player_id, round_index, state, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (player_id, round_index)
		DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		player, round, string(raw),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *SQLStore) History(ctx context.Context, player string, before int) (map[int]game.GameState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT round_index, state FROM game_states WHERE player_id=? AND round_index < ?`,
		player, before,
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	out := make(map[int]game.GameState)
	for rows.Next() {
		var (
			round int
			raw   string
		)
		if err := rows.Scan(&round, &raw); err != nil {
			return nil, err
		}
		if st, ok := decode(player, round, []byte(raw)); ok {
			out[round] = st
		}
	}
	return out, rows.Err()
}

func (s *SQLStore) Claim(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO game_states (player_id, round_index, state, updated_at)
		SELECT ?, round_index, state, updated_at FROM game_states WHERE player_id=?
		ON CONFLICT (player_id, round_index) DO NOTHING`,
		to, from,
	); err != nil {
		return fmt.Errorf("claim states: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM game_states WHERE player_id=?`, from); err != nil {
		return fmt.Errorf("drop claimed states: %w", err)
	}
	return tx.Commit()
}
