package play

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/charades/internal/analytics"
	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/game"
	"github.com/robalobadob/charades/internal/rounds"
	"github.com/robalobadob/charades/internal/store"
	"github.com/robalobadob/charades/internal/words"
)

var now = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

// vecEmbedder returns fixed vectors per text; unknown text is orthogonal
// to every answer used here.
type vecEmbedder struct {
	mu      sync.Mutex
	vecs    map[string][]float32
	calls   map[string]int
	err     error
	gate    chan struct{} // when set, Embed blocks until closed
	entered chan struct{}
}

func (e *vecEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	if e.calls == nil {
		e.calls = map[string]int{}
	}
	e.calls[text]++
	gate, entered := e.gate, e.entered
	e.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vecs[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (r *recordingSink) Track(_ context.Context, e analytics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

type fakeResults struct {
	mu      sync.Mutex
	results []daily.Result
	claims  [][2]string
}

func (f *fakeResults) Insert(_ context.Context, r daily.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return nil
}

func (f *fakeResults) Claim(_ context.Context, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims = append(f.claims, [2]string{from, to})
	return nil
}

type fixture struct {
	svc     *Service
	store   store.Store
	emb     *vecEmbedder
	sink    *recordingSink
	results *fakeResults
	src     *rounds.Memory
}

func roundOn(index int, answer string, emb []float32) game.Round {
	d := time.Date(2024, 3, index, 0, 0, 0, 0, time.UTC)
	return game.Round{ID: "id" + d.Format("0102"), Index: index, Answer: answer, Date: d, DateID: d.Format("2006-01-02"), Embedding: emb}
}

func newFixture(t *testing.T, variant Variant, rs ...game.Round) *fixture {
	t.Helper()
	if len(rs) == 0 {
		rs = []game.Round{roundOn(5, "a llama", []float32{1, 0, 0})}
	}
	f := &fixture{
		store:   store.NewMemoryStore(),
		emb:     &vecEmbedder{vecs: map[string][]float32{"a llama": {1, 0, 0}, "llama": {1, 0, 0}, "an alpaca": {0.8, 0.6, 0}}},
		sink:    &recordingSink{},
		results: &fakeResults{},
		src:     rounds.NewMemory(rs...),
	}
	wl, err := words.Default()
	require.NoError(t, err)
	f.svc, err = New(Config{
		Variant:      variant,
		Rollover:     daily.DefaultRollover,
		ImageBaseURL: "https://images.charades.ai/",
		SiteURL:      "https://charades.ai",
	}, Deps{
		Rounds:    f.src,
		Store:     f.store,
		Embedder:  f.emb,
		Words:     wl,
		Analytics: f.sink,
		Results:   f.results,
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)
	return f
}

func guess(t *testing.T, f *fixture, player, text string) (GuessResult, error) {
	t.Helper()
	return f.svc.Guess(context.Background(), GuessRequest{Player: player, Text: text})
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)

	_, err = New(Config{Variant: VariantSimilarity}, Deps{Rounds: rounds.NewMemory(), Store: store.NewMemoryStore()})
	assert.ErrorContains(t, err, "embedding engine")

	svc, err := New(Config{Variant: VariantExact}, Deps{Rounds: rounds.NewMemory(), Store: store.NewMemoryStore()})
	require.NoError(t, err)
	assert.Equal(t, game.DefaultMaxGuesses, svc.Config().MaxGuesses)
	assert.Zero(t, svc.Config().Rollover, "rollover is not defaulted")

	_, err = ParseVariant("wordle")
	assert.Error(t, err)
}

func TestToday_MidnightRollover(t *testing.T) {
	src := rounds.NewMemory(roundOn(4, "fetch", nil), roundOn(5, "prose", nil))
	at := time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		rollover time.Duration
		want     int
	}{
		{0, 5},
		{daily.DefaultRollover, 4},
	} {
		svc, err := New(Config{Variant: VariantExact, Rollover: tc.rollover}, Deps{
			Rounds: src,
			Store:  store.NewMemoryStore(),
			Now:    func() time.Time { return at },
		})
		require.NoError(t, err)
		r, err := svc.Today(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tc.want, r.Index, "rollover %s", tc.rollover)
	}
}

func TestGuess_SimilarityWin(t *testing.T) {
	f := newFixture(t, VariantSimilarity)

	res, err := guess(t, f, "p1", "an alpaca")
	require.NoError(t, err)
	assert.Equal(t, "🟩🟩🟩🟩🟩 80%", res.Guess.Feedback)
	assert.True(t, res.View.Won)
	assert.Equal(t, "a llama", res.View.Answer)
	assert.Len(t, res.View.Images, 5)
	assert.Equal(t, 0, res.View.Remaining)
	assert.Equal(t, game.Streaks{Win: 1, Completion: 1}, res.View.Streaks)

	assert.Equal(t, []string{"guessed_an alpaca", "game_won", "win_streak", "completion_streak"}, f.sink.actions())
	require.Len(t, f.results.results, 1)
	assert.Equal(t, daily.Result{PlayerID: "p1", RoundIndex: 5, Guesses: 1, Won: true, ElapsedMs: (8 * time.Hour).Milliseconds()}, f.results.results[0])

	saved, err := f.store.Load(context.Background(), "p1", 5)
	require.NoError(t, err)
	assert.True(t, saved.Finished)

	_, err = guess(t, f, "p1", "anything")
	assert.ErrorIs(t, err, game.ErrGameFinished)
}

func TestGuess_SimilarityLoss(t *testing.T) {
	f := newFixture(t, VariantSimilarity)
	for i, g := range []string{"a cat", "a dog", "a cow", "a pig"} {
		res, err := guess(t, f, "p1", g)
		require.NoError(t, err)
		assert.Equal(t, "⬜️⬜️⬜️⬜️⬜️ 0%", res.Guess.Feedback)
		assert.Len(t, res.View.Images, i+2, "one more image per guess")
		assert.Empty(t, res.View.Answer)
		assert.Equal(t, 5-(i+1), res.View.Remaining)
	}
	res, err := guess(t, f, "p1", "a hen")
	require.NoError(t, err)
	assert.True(t, res.View.Finished)
	assert.False(t, res.View.Won)
	assert.Equal(t, "lost", res.View.Status)
	assert.Equal(t, "a llama", res.View.Answer)
	assert.Equal(t, game.Streaks{Win: 0, Completion: 1}, res.View.Streaks)
	assert.Contains(t, f.sink.actions(), "game_lost")
}

func TestGuess_RejectionsLeaveStateAlone(t *testing.T) {
	f := newFixture(t, VariantSimilarity)
	_, err := guess(t, f, "p1", "a cat")
	require.NoError(t, err)

	_, err = guess(t, f, "p1", "A Cat")
	assert.ErrorIs(t, err, game.ErrRepeatGuess)

	_, err = guess(t, f, "p1", "cat123")
	assert.ErrorIs(t, err, game.ErrInvalidGuess)
	assert.Zero(t, f.emb.calls["cat123"], "invalid input never reaches the embedder")

	f.emb.err = errors.New("model offline")
	_, err = guess(t, f, "p1", "a dog")
	assert.ErrorIs(t, err, game.ErrEvaluation)

	st, err := f.store.Load(context.Background(), "p1", 5)
	require.NoError(t, err)
	assert.Len(t, st.Guesses, 1)
	assert.False(t, st.Finished)
}

func TestGuess_RoundPinning(t *testing.T) {
	f := newFixture(t, VariantSimilarity)
	stale := 4
	_, err := f.svc.Guess(context.Background(), GuessRequest{Player: "p1", Text: "a cat", Round: &stale})
	assert.ErrorIs(t, err, ErrRoundClosed)

	current := 5
	_, err = f.svc.Guess(context.Background(), GuessRequest{Player: "p1", Text: "a cat", Round: &current})
	assert.NoError(t, err)
}

func TestGuess_ProcessingFlag(t *testing.T) {
	f := newFixture(t, VariantSimilarity)
	f.emb.gate = make(chan struct{})
	f.emb.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := guess(t, f, "p1", "a cat")
		done <- err
	}()
	<-f.emb.entered

	_, err := guess(t, f, "p1", "a dog")
	assert.ErrorIs(t, err, ErrProcessing)

	close(f.emb.gate)
	require.NoError(t, <-done)

	f.emb.mu.Lock()
	f.emb.gate = nil
	f.emb.mu.Unlock()
	_, err = guess(t, f, "p1", "a dog")
	assert.NoError(t, err)
}

func TestGuess_AnswerEmbeddedOnce(t *testing.T) {
	f := newFixture(t, VariantSimilarity, roundOn(5, "a llama", nil))
	_, err := guess(t, f, "p1", "a cat")
	require.NoError(t, err)
	_, err = guess(t, f, "p2", "a dog")
	require.NoError(t, err)
	assert.Equal(t, 1, f.emb.calls["a llama"])
}

func TestGuess_Hiatus(t *testing.T) {
	f := newFixture(t, VariantSimilarity, roundOn(1, "a cat", nil))
	v, err := f.svc.View(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, v.Hiatus)
	assert.Equal(t, 0, v.RoundIndex)

	res, err := guess(t, f, "p1", "llama")
	require.NoError(t, err)
	assert.True(t, res.View.Won)
	assert.Equal(t, game.Streaks{}, res.View.Streaks)
	assert.Empty(t, f.results.results, "hiatus results are not recorded")
}

func TestGuess_Streaks(t *testing.T) {
	f := newFixture(t, VariantSimilarity,
		roundOn(2, "x", nil), roundOn(3, "x", nil), roundOn(4, "x", nil), roundOn(5, "a llama", []float32{1, 0, 0}))
	ctx := context.Background()
	won := game.GameState{Guesses: []game.Guess{{Text: "x"}}, Finished: true, Won: true}
	for _, r := range []int{3, 4} {
		require.NoError(t, f.store.Save(ctx, "p1", r, won))
	}
	res, err := guess(t, f, "p1", "a llama")
	require.NoError(t, err)
	assert.Equal(t, game.Streaks{Win: 3, Completion: 3}, res.View.Streaks)

	stats, err := f.svc.Stats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, PlayerStats{Streaks: game.Streaks{Win: 3, Completion: 3}, Played: 3, Won: 3}, stats)
}

func TestExactVariant(t *testing.T) {
	f := newFixture(t, VariantExact, roundOn(5, "prose", nil))
	ctx := context.Background()

	_, err := guess(t, f, "p1", "zzzzz")
	assert.ErrorIs(t, err, game.ErrInvalidGuess, "not in vocabulary")

	res, err := guess(t, f, "p1", "crave")
	require.NoError(t, err)
	assert.Equal(t, "🟥🟩🟥🟥🟩", res.Guess.Feedback)
	assert.Equal(t, []game.Mark{game.MarkMiss, game.MarkHit, game.MarkMiss, game.MarkMiss, game.MarkHit}, res.Marks)

	hint, err := f.svc.Hints(ctx, "p1", "cr")
	require.NoError(t, err)
	assert.Equal(t, "🟥🟩", hint)

	res, err = guess(t, f, "p1", "prose")
	require.NoError(t, err)
	assert.True(t, res.View.Won)
	assert.Zero(t, f.emb.calls["prose"])
}

func TestHints_SimilarityUnsupported(t *testing.T) {
	f := newFixture(t, VariantSimilarity)
	_, err := f.svc.Hints(context.Background(), "p1", "abc")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestShare(t *testing.T) {
	f := newFixture(t, VariantSimilarity)
	ctx := context.Background()
	_, err := f.svc.Share(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFinished)

	_, err = guess(t, f, "p1", "a cat")
	require.NoError(t, err)
	_, err = guess(t, f, "p1", "a llama")
	require.NoError(t, err)

	text, err := f.svc.Share(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "🎭 r5 2/5 \n⬜️⬜️⬜️⬜️⬜️ 0% \n🟩🟩🟩🟩🟩 100% \nhttps://charades.ai/round/5", text)
	assert.Contains(t, f.sink.actions(), "click_share_results")
}

func TestRound(t *testing.T) {
	f := newFixture(t, VariantSimilarity, roundOn(4, "a cat", nil), roundOn(5, "a llama", nil), roundOn(6, "a dog", nil))
	ctx := context.Background()

	r, err := f.svc.Round(ctx, 4)
	require.NoError(t, err)
	info := f.svc.Info(r)
	assert.Equal(t, 4, info.Index)
	assert.Equal(t, "https://images.charades.ai/previews/4-preview.jpg", info.PreviewURL)
	assert.Equal(t, "https://images.charades.ai/images/"+r.ID+"-4.jpg", info.Images[4])

	_, err = f.svc.Round(ctx, 6)
	assert.ErrorIs(t, err, rounds.ErrNotFound, "future rounds are hidden")
	_, err = f.svc.Round(ctx, 0)
	assert.ErrorIs(t, err, rounds.ErrNotFound)
}

func TestClaim(t *testing.T) {
	f := newFixture(t, VariantSimilarity)
	ctx := context.Background()
	_, err := guess(t, f, "anon", "a cat")
	require.NoError(t, err)

	require.NoError(t, f.svc.Claim(ctx, "anon", "acct"))
	v, err := f.svc.View(ctx, "acct")
	require.NoError(t, err)
	assert.Len(t, v.Guesses, 1)
	assert.Equal(t, [][2]string{{"anon", "acct"}}, f.results.claims)

	assert.NoError(t, f.svc.Claim(ctx, "", "acct"))
}
