package rounds

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/game"
)

// Memory is an in-process Source used in development and tests.
type Memory struct {
	mu     sync.RWMutex
	rounds map[int]game.Round
}

// NewMemory returns a Source holding rs.
func NewMemory(rs ...game.Round) *Memory {
	m := &Memory{rounds: make(map[int]game.Round, len(rs))}
	for _, r := range rs {
		m.rounds[r.Index] = r
	}
	return m
}

// Generate builds one round per day from launch through until (date ids,
// inclusive). Each day's answer is picked from answers by
// daily.WordIndex, so a given salt always yields the same schedule.
func Generate(launch time.Time, until, salt string, answers []string) ([]game.Round, error) {
	if len(answers) == 0 {
		return nil, fmt.Errorf("generate rounds: no answers")
	}
	end, err := daily.ParseKey(until)
	if err != nil {
		return nil, fmt.Errorf("generate rounds: %w", err)
	}
	start := launch.UTC().Truncate(24 * time.Hour)
	var out []game.Round
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		idx := daily.RoundIndex(launch, key)
		out = append(out, game.Round{
			ID:     fmt.Sprintf("%024x", idx),
			Index:  idx,
			Answer: answers[daily.WordIndex(key, salt, len(answers))],
			Date:   d,
			DateID: key,
		})
	}
	return out, nil
}

func (m *Memory) ByDate(_ context.Context, dateID string) (game.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rounds {
		if r.DateID == dateID {
			return r, nil
		}
	}
	return game.Round{}, ErrNotFound
}

func (m *Memory) ByIndex(_ context.Context, index int) (game.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rounds[index]
	if !ok {
		return game.Round{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) Latest(_ context.Context) (game.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		best  game.Round
		found bool
	)
	for _, r := range m.rounds {
		if !found || r.Date.After(best.Date) {
			best, found = r, true
		}
	}
	if !found {
		return game.Round{}, ErrNotFound
	}
	return best, nil
}

func (m *Memory) Range(_ context.Context, from, to int) ([]game.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []game.Round
	for i, r := range m.rounds {
		if i >= from && i <= to {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out, nil
}

func (m *Memory) SetEmbedding(_ context.Context, index int, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[index]
	if !ok {
		return ErrNotFound
	}
	r.Embedding = append([]float32(nil), vec...)
	m.rounds[index] = r
	return nil
}

func (m *Memory) Delete(_ context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[index]; !ok {
		return ErrNotFound
	}
	delete(m.rounds, index)
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }
