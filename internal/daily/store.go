package daily

import (
	"context"
	"fmt"

	"github.com/robalobadob/charades/internal/database"
)

// Result is one player's finished round.
type Result struct {
	PlayerID   string `json:"playerId"`
	RoundIndex int    `json:"roundIndex"`
	Guesses    int    `json:"guesses"`
	Won        bool   `json:"won"`
	ElapsedMs  int64  `json:"elapsedMs"`
}

// Summary aggregates results for a round.
type Summary struct {
	RoundIndex int `json:"roundIndex"`
	Played     int `json:"played"`
	Won        int `json:"won"`
	// Distribution counts wins by number of guesses used.
	Distribution map[int]int `json:"distribution"`
}

// LBRow is a leaderboard entry. Player is the account username; guests
// are left blank so their ids never leave the server.
type LBRow struct {
	Rank      int    `json:"rank"`
	Player    string `json:"player,omitempty"`
	Guesses   int    `json:"guesses"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Store records finished rounds in round_results.
type Store struct{ db *database.DB }

func NewStore(db *database.DB) *Store { return &Store{db: db} }

// Insert records a result. A second result for the same round is ignored.
func (s *Store) Insert(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO round_results (player_id, round_index, guesses, won, elapsed_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (player_id, round_index) DO NOTHING`,
		r.PlayerID, r.RoundIndex, r.Guesses, b2i(r.Won), r.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// Claim moves results recorded under an anonymous id to an account.
func (s *Store) Claim(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO round_results (player_id, round_index, guesses, won, elapsed_ms, created_at)
		SELECT ?, round_index, guesses, won, elapsed_ms, created_at FROM round_results WHERE player_id=?
		ON CONFLICT (player_id, round_index) DO NOTHING`,
		to, from,
	); err != nil {
		return fmt.Errorf("claim results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM round_results WHERE player_id=?`, from); err != nil {
		return fmt.Errorf("drop claimed results: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Summary(ctx context.Context, round int) (Summary, error) {
	out := Summary{RoundIndex: round, Distribution: map[int]int{}}
	rows, err := s.db.QueryContext(ctx, `
		SELECT guesses, won, COUNT(1)
		FROM round_results
		WHERE round_index=?
		GROUP BY guesses, won`, round,
	)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var guesses, won, n int
		if err := rows.Scan(&guesses, &won, &n); err != nil {
			return out, err
		}
		out.Played += n
		if won != 0 {
			out.Won += n
			out.Distribution[guesses] += n
		}
	}
	return out, rows.Err()
}

// Leaderboard lists winners: fewest guesses first, then fastest.
func (s *Store) Leaderboard(ctx context.Context, round, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(u.username, ''), r.guesses, r.elapsed_ms
		FROM round_results r
		LEFT JOIN users u ON u.id = r.player_id
		WHERE r.round_index=? AND r.won=1
		ORDER BY r.guesses ASC, r.elapsed_ms ASC, r.created_at ASC
		LIMIT ?`, round, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		r := LBRow{Rank: len(out) + 1}
		if err := rows.Scan(&r.Player, &r.Guesses, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
