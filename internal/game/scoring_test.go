package game

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		bands    []Band
		feedback string
		win      bool
	}{
		{
			name:     "above top threshold wins",
			score:    0.80,
			bands:    []Band{BandFull, BandFull, BandFull, BandFull, BandFull},
			feedback: "🟩🟩🟩🟩🟩 80%",
			win:      true,
		},
		{
			name:     "low score earns only first band",
			score:    0.20,
			bands:    []Band{BandFull, BandEmpty, BandEmpty, BandEmpty, BandEmpty},
			feedback: "🟩⬜️⬜️⬜️⬜️ 20%",
		},
		{
			name:     "exactly at a threshold is full",
			score:    0.45,
			bands:    []Band{BandFull, BandFull, BandFull, BandEmpty, BandEmpty},
			feedback: "🟩🟩🟩⬜️⬜️ 45%",
		},
		{
			name:     "within margin below threshold is partial",
			score:    0.53,
			bands:    []Band{BandFull, BandFull, BandFull, BandPartial, BandEmpty},
			feedback: "🟩🟩🟩🟨⬜️ 53%",
		},
		{
			name:     "exactly at top threshold wins",
			score:    0.75,
			bands:    []Band{BandFull, BandFull, BandFull, BandFull, BandFull},
			feedback: "🟩🟩🟩🟩🟩 75%",
			win:      true,
		},
		{
			name:     "just under top threshold is partial and continues",
			score:    0.70,
			bands:    []Band{BandFull, BandFull, BandFull, BandFull, BandPartial},
			feedback: "🟩🟩🟩🟩🟨 70%",
		},
		{
			name:     "zero",
			score:    0,
			bands:    []Band{BandEmpty, BandEmpty, BandEmpty, BandEmpty, BandEmpty},
			feedback: "⬜️⬜️⬜️⬜️⬜️ 0%",
		},
		{
			name:  "exactly at the partial edge is partial",
			score: Thresholds[2] - PartialMargin,
			bands: []Band{BandFull, BandFull, BandPartial, BandEmpty, BandEmpty},
		},
		{
			name:  "just below the partial edge is empty",
			score: math.Nextafter(Thresholds[2]-PartialMargin, 0),
			bands: []Band{BandFull, BandFull, BandEmpty, BandEmpty, BandEmpty},
		},
		{
			name:  "just below the win threshold does not win",
			score: math.Nextafter(WinThreshold(), 0),
			bands: []Band{BandFull, BandFull, BandFull, BandFull, BandPartial},
		},
		{
			name:     "partial first band",
			score:    0.08,
			bands:    []Band{BandPartial, BandEmpty, BandEmpty, BandEmpty, BandEmpty},
			feedback: "🟨⬜️⬜️⬜️⬜️ 8%",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ScoreSimilarity(tt.score)
			if diff := cmp.Diff(tt.bands, ev.Bands); diff != "" {
				t.Errorf("bands mismatch (-want +got):\n%s", diff)
			}
			if tt.feedback != "" {
				assert.Equal(t, tt.feedback, ev.Feedback)
			}
			assert.Equal(t, tt.win, ev.Win)
		})
	}
}

func TestScoreLetters(t *testing.T) {
	tests := []struct {
		guess string
		want  []Mark
	}{
		{"mitch", []Mark{MarkMiss, MarkMiss, MarkMiss, MarkMiss, MarkMiss}},
		{"fetch", []Mark{MarkMiss, MarkPresent, MarkMiss, MarkMiss, MarkMiss}},
		{"crave", []Mark{MarkMiss, MarkHit, MarkMiss, MarkMiss, MarkHit}},
		{"prose", []Mark{MarkHit, MarkHit, MarkHit, MarkHit, MarkHit}},
		{"esses", []Mark{MarkPresent, MarkPresent, MarkPresent, MarkPresent, MarkPresent}},
	}
	for _, tt := range tests {
		t.Run(tt.guess, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ScoreLetters("prose", tt.guess)); diff != "" {
				t.Errorf("marks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExactEvaluator(t *testing.T) {
	allowed := map[string]bool{"mitch": true, "fetch": true, "crave": true, "prose": true}
	e := NewExact("prose", func(w string) bool { return allowed[w] })

	_, err := e.Normalize("zzzzz")
	assert.ErrorIs(t, err, ErrInvalidGuess, "not in vocabulary")
	_, err = e.Normalize("pros")
	assert.ErrorIs(t, err, ErrInvalidGuess, "wrong length")

	g := New(Round{Index: 3, Answer: "prose"}, nil, DefaultMaxGuesses, e)
	ctx := context.Background()

	guess, _, err := g.Submit(ctx, "MITCH")
	require.NoError(t, err)
	assert.Equal(t, "🟥🟥🟥🟥🟥", guess.Feedback)

	guess, _, err = g.Submit(ctx, "crave")
	require.NoError(t, err)
	assert.Equal(t, "🟥🟩🟥🟥🟩", guess.Feedback)
	assert.False(t, g.State.Finished)

	_, ev, err := g.Submit(ctx, "prose")
	require.NoError(t, err)
	assert.True(t, ev.Win)
	assert.True(t, g.State.Won)
}

func TestHints(t *testing.T) {
	guesses := []Guess{{Text: "mitch"}, {Text: "fetch"}, {Text: "crave"}}
	h := BuildHints("prose", guesses)

	assert.True(t, h.Has('m', NotPresent))
	assert.True(t, h.Has('e', WrongSpot(1)), "fetch puts e at index 1")
	assert.True(t, h.Has('e', CorrectSpot(4)), "crave puts e at index 4")
	assert.True(t, h.Has('r', CorrectSpot(1)))
	assert.False(t, h.Has('p', NotPresent), "p never guessed")

	// r known correct at 1, e known wrong at 1, c known absent, p unknown.
	assert.Equal(t, "🟥🟩", h.Feedback("cr"))
	assert.Equal(t, "⬜🟨", h.Feedback("pe"))
	assert.Equal(t, "", h.Feedback(""))
}

func TestShareString(t *testing.T) {
	st := &GameState{
		Guesses: []Guess{
			{Text: "llama", Feedback: "🟩🟩⬜️⬜️⬜️ 31%"},
			{Text: "llama in pajamas", Feedback: "🟩🟩🟩🟩🟩 88%"},
		},
		Finished: true,
		Won:      true,
	}
	want := "🎭 r412 2/5 \n🟩🟩⬜️⬜️⬜️ 31% \n🟩🟩🟩🟩🟩 88% \nhttps://charades.ai/round/412"
	assert.Equal(t, want, ShareString(412, st, 5, "https://charades.ai/"))

	st.Won = false
	assert.Contains(t, ShareString(412, st, 5, "https://charades.ai"), "🎭 r412 X/5 \n")
}
