// internal/store/memory.go
//
// In-memory Store. Records are held as encoded JSON under the per-round
// key inside each player's scope, the same shape the SQL backend stores,
// so decode behavior is identical. State is lost on restart.

package store

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/robalobadob/charades/internal/game"
)

type memory struct {
	mu      sync.RWMutex                 // guards players
	players map[string]map[string][]byte // player -> key -> JSON
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{players: make(map[string]map[string][]byte)}
}

func (m *memory) Load(ctx context.Context, player string, round int) (game.GameState, error) {
	m.mu.RLock()
	raw, ok := m.players[player][Key(round)]
	m.mu.RUnlock()
	if !ok {
		return game.GameState{}, ErrNotFound
	}
	st, ok := decode(player, round, raw)
	if !ok {
		return game.GameState{}, ErrNotFound
	}
	return st, nil
}

func (m *memory) Save(ctx context.Context, player string, round int, st game.GameState) error {
	raw, err := encode(st)
	if err != nil {
		return err
	}
	m.putRaw(player, Key(round), raw)
	return nil
}

func (m *memory) History(ctx context.Context, player string, before int) (map[int]game.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]game.GameState)
	for key, raw := range m.players[player] {
		round, ok := parseKey(key)
		if !ok || round >= before {
			continue
		}
		if st, ok := decode(player, round, raw); ok {
			out[round] = st
		}
	}
	return out, nil
}

func (m *memory) Claim(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.players[from]
	if len(src) == 0 {
		return nil
	}
	dst := m.players[to]
	if dst == nil {
		dst = make(map[string][]byte, len(src))
		m.players[to] = dst
	}
	for k, v := range src {
		if _, exists := dst[k]; !exists {
			dst[k] = v
		}
	}
	delete(m.players, from)
	return nil
}

func (m *memory) putRaw(player, key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scope := m.players[player]
	if scope == nil {
		scope = make(map[string][]byte)
		m.players[player] = scope
	}
	scope[key] = raw
}

func parseKey(key string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(key, "charades-"))
	if err != nil || !strings.HasPrefix(key, "charades-") {
		return 0, false
	}
	return n, true
}
