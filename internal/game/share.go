// internal/game/share.go
//
// Share text and round permalinks.

package game

import (
	"fmt"
	"strings"
)

// ShareString renders the copy-to-clipboard summary of a round, e.g.
//
//	🎭 r412 3/5
//	⬜️⬜️⬜️⬜️⬜️ 9%
//	🟩🟩🟨⬜️⬜️ 41%
//	🟩🟩🟩🟩🟩 83%
//	https://charades.ai/round/412
//
// Each line carries a trailing space before the newline, as in the
// published format.
func ShareString(roundIndex int, st *GameState, maxGuesses int, siteURL string) string {
	if st == nil {
		st = &GameState{}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎭 r%d", roundIndex)
	if st.Won {
		fmt.Fprintf(&b, " %d/%d \n", len(st.Guesses), maxGuesses)
	} else {
		fmt.Fprintf(&b, " X/%d \n", maxGuesses)
	}
	for _, g := range st.Guesses {
		b.WriteString(g.Feedback)
		b.WriteString(" \n")
	}
	b.WriteString(RoundURL(siteURL, roundIndex))
	return b.String()
}

// RoundURL is the permalink for a round.
func RoundURL(siteURL string, roundIndex int) string {
	return fmt.Sprintf("%s/round/%d", strings.TrimRight(siteURL, "/"), roundIndex)
}
