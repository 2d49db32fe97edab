// internal/game/streak.go
//
// Win and completion streaks, derived from saved round states by scanning
// backward from the current round. Nothing here is stored.

package game

// Streaks are the consecutive-day counters shown to a player.
type Streaks struct {
	Win        int `json:"winStreak"`
	Completion int `json:"completionStreak"`
}

// ComputeStreaks derives win and completion streaks for round current.
//
// history holds the player's saved states for earlier rounds. Rounds
// current-1 down to 1 are scanned; the first round (scanning backward) with
// no record or without the relevant flag is the break point. finished and won
// describe the current round.
func ComputeStreaks(current int, finished, won bool, history map[int]GameState) Streaks {
	winBroken, completionBroken := 0, 0
	for i := current - 1; i > 0; i-- {
		st, ok := history[i]
		if (!ok || !st.Won) && winBroken == 0 {
			winBroken = i
		}
		if (!ok || !st.Finished) && completionBroken == 0 {
			completionBroken = i
		}
		if winBroken != 0 && completionBroken != 0 {
			break
		}
	}
	return Streaks{
		Win:        atLeastZero(current + b2i(won) - winBroken - 1),
		Completion: atLeastZero(current + b2i(finished) - completionBroken - 1),
	}
}

// atLeastZero covers the hiatus round (index 0), which has no prior rounds.
func atLeastZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
