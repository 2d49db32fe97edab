package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func won() GameState  { return GameState{Finished: true, Won: true} }
func lost() GameState { return GameState{Finished: true} }

func TestComputeStreaks(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		finished bool
		won      bool
		history  map[int]GameState
		want     Streaks
	}{
		{
			name:    "gap at round 4 breaks both streaks",
			current: 8,
			history: map[int]GameState{5: won(), 6: won(), 7: won()},
			want:    Streaks{Win: 3, Completion: 3},
		},
		{
			name:     "winning today extends the streak",
			current:  8,
			finished: true,
			won:      true,
			history:  map[int]GameState{5: won(), 6: won(), 7: won()},
			want:     Streaks{Win: 4, Completion: 4},
		},
		{
			name:    "loss breaks win streak only",
			current: 8,
			history: map[int]GameState{4: won(), 5: won(), 6: lost(), 7: won()},
			want:    Streaks{Win: 1, Completion: 4},
		},
		{
			name:    "unfinished record breaks completion",
			current: 5,
			history: map[int]GameState{1: won(), 2: won(), 3: {Guesses: []Guess{{Text: "x"}}}, 4: won()},
			want:    Streaks{Win: 1, Completion: 1},
		},
		{
			name:     "no break spans back to round 1",
			current:  4,
			finished: true,
			history:  map[int]GameState{1: won(), 2: won(), 3: won()},
			want:     Streaks{Win: 3, Completion: 4},
		},
		{
			name:    "first round with no history",
			current: 1,
			want:    Streaks{},
		},
		{
			name:    "hiatus round never goes negative",
			current: 0,
			want:    Streaks{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStreaks(tt.current, tt.finished, tt.won, tt.history)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeStreaks_Idempotent(t *testing.T) {
	history := map[int]GameState{2: lost(), 3: won(), 5: won(), 6: won(), 7: won()}
	first := ComputeStreaks(8, false, false, history)
	second := ComputeStreaks(8, false, false, history)
	assert.Equal(t, first, second)
	assert.Len(t, history, 5, "history is not mutated")
}
