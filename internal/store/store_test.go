package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/charades/internal/database"
	"github.com/robalobadob/charades/internal/game"
)

func newSQLStore(t *testing.T) (*SQLStore, *database.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Type: "sqlite", Path: filepath.Join(t.TempDir(), "store.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return NewSQLStore(db), db
}

// backends returns each Store implementation plus a hook that writes an
// undecodable record for (player, round).
func backends(t *testing.T) map[string]struct {
	s       Store
	corrupt func(player string, round int)
} {
	mem := NewMemoryStore()
	sqlS, db := newSQLStore(t)
	return map[string]struct {
		s       Store
		corrupt func(player string, round int)
	}{
		"memory": {mem, func(p string, r int) { mem.(*memory).putRaw(p, Key(r), []byte("{not json")) }},
		"sqlite": {sqlS, func(p string, r int) {
			_, err := db.ExecContext(context.Background(),
				`INSERT INTO game_states (player_id, round_index, state) VALUES (?, ?, ?)`, p, r, "{not json")
			require.NoError(t, err)
		}},
	}
}

func sampleState() game.GameState {
	return game.GameState{
		Guesses: []game.Guess{
			{Text: "a dog", Feedback: "🟩⬜️⬜️⬜️⬜️ 21%", Score: 0.21},
			{Text: "a llama in a hat", Feedback: "🟩🟩🟩🟩🟩 81%", Score: 0.81},
		},
		Finished: true,
		Won:      true,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.s.Load(ctx, "p1", 7)
			assert.ErrorIs(t, err, ErrNotFound)

			want := sampleState()
			require.NoError(t, b.s.Save(ctx, "p1", 7, want))
			got, err := b.s.Load(ctx, "p1", 7)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("state mismatch (-want +got):\n%s", diff)
			}

			// overwrite
			want.Guesses = want.Guesses[:1]
			want.Finished, want.Won = false, false
			require.NoError(t, b.s.Save(ctx, "p1", 7, want))
			got, err = b.s.Load(ctx, "p1", 7)
			require.NoError(t, err)
			assert.Len(t, got.Guesses, 1)
			assert.False(t, got.Finished)

			// scoped per player
			_, err = b.s.Load(ctx, "p2", 7)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_MalformedIsAbsent(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			b.corrupt("p1", 3)
			_, err := b.s.Load(ctx, "p1", 3)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.s.Save(ctx, "p1", 2, sampleState()))
			h, err := b.s.History(ctx, "p1", 10)
			require.NoError(t, err)
			assert.Len(t, h, 1)
			assert.Contains(t, h, 2)
		})
	}
}

func TestStore_History(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range []int{1, 2, 3, 5} {
				require.NoError(t, b.s.Save(ctx, "p1", r, sampleState()))
			}
			require.NoError(t, b.s.Save(ctx, "p2", 4, sampleState()))

			h, err := b.s.History(ctx, "p1", 5)
			require.NoError(t, err)
			assert.ElementsMatch(t, []int{1, 2, 3}, keys(h))

			streaks := game.ComputeStreaks(5, true, true, h)
			assert.Equal(t, game.Streaks{Win: 1, Completion: 1}, streaks, "round 4 missing breaks both streaks")
		})
	}
}

func TestStore_Claim(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			anon := sampleState()
			acct := game.GameState{Guesses: []game.Guess{{Text: "cat", Feedback: "⬜️⬜️⬜️⬜️⬜️ 3%", Score: 0.03}}}

			require.NoError(t, b.s.Save(ctx, "anon", 1, anon))
			require.NoError(t, b.s.Save(ctx, "anon", 2, anon))
			require.NoError(t, b.s.Save(ctx, "acct", 2, acct))

			require.NoError(t, b.s.Claim(ctx, "anon", "acct"))

			got, err := b.s.Load(ctx, "acct", 1)
			require.NoError(t, err)
			assert.True(t, got.Won)

			got, err = b.s.Load(ctx, "acct", 2)
			require.NoError(t, err)
			assert.Equal(t, "cat", got.Guesses[0].Text, "existing account record wins")

			_, err = b.s.Load(ctx, "anon", 1)
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, b.s.Claim(ctx, "nobody", "acct"))
			assert.NoError(t, b.s.Claim(ctx, "acct", "acct"))
		})
	}
}

func keys(m map[int]game.GameState) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
