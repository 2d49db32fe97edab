// internal/words/words.go
//
// Word and prompt lists.
//
// Lists:
//   - "answers": five-letter answers for the exact-match variant.
//   - "allowed": valid exact-match guesses (always includes answers).
//   - "prompts": round answers for the similarity variant when rounds are
//     generated locally instead of read from the content database.
//
// Init loads from files named in Sources, falling back per list to the
// lists embedded in the assets package. Lines are trimmed, lowercased,
// and '#' comments skipped.

package words

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/charades/assets"
)

// Sources optionally overrides the embedded lists with files on disk.
type Sources struct {
	AnswersFile string
	AllowedFile string
	PromptsFile string
}

// Lists is a loaded set of word lists.
type Lists struct {
	answers    []string
	prompts    []string
	answersSet map[string]struct{}
	allowedSet map[string]struct{} // answers ∪ allowed
}

// Load builds Lists from src, using embedded defaults for unset paths.
func Load(src Sources) (*Lists, error) {
	ansRaw, err := pick(src.AnswersFile, assets.AnswersList)
	if err != nil {
		return nil, fmt.Errorf("answers: %w", err)
	}
	allowRaw, err := pick(src.AllowedFile, assets.AllowedList)
	if err != nil {
		return nil, fmt.Errorf("allowed: %w", err)
	}
	prompts, err := pick(src.PromptsFile, assets.PromptsList)
	if err != nil {
		return nil, fmt.Errorf("prompts: %w", err)
	}

	l := &Lists{prompts: prompts}
	for _, w := range ansRaw {
		if isWord(w) {
			l.answers = append(l.answers, w)
		}
	}
	l.answersSet = toSet(l.answers)
	l.allowedSet = toSet(l.answers)
	for _, w := range allowRaw {
		if isWord(w) {
			l.allowedSet[w] = struct{}{}
		}
	}

	if len(l.answers) == 0 {
		return nil, errors.New("words: answers list is empty")
	}
	if len(l.prompts) == 0 {
		return nil, errors.New("words: prompts list is empty")
	}
	return l, nil
}

func pick(path string, embedded func() ([]string, error)) ([]string, error) {
	if path == "" {
		return embedded()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return assets.ReadLines(f)
}

var (
	defaultOnce  sync.Once
	defaultLists *Lists
	defaultErr   error
)

// Default returns the embedded lists, loaded once.
func Default() (*Lists, error) {
	defaultOnce.Do(func() {
		defaultLists, defaultErr = Load(Sources{})
	})
	return defaultLists, defaultErr
}

// Answers returns the exact-match answer list.
func (l *Lists) Answers() []string { return l.answers }

// Prompts returns the similarity prompt list.
func (l *Lists) Prompts() []string { return l.prompts }

// IsAllowed reports whether w is a valid exact-match guess.
func (l *Lists) IsAllowed(w string) bool {
	_, ok := l.allowedSet[strings.ToLower(w)]
	return ok
}

// IsAnswer reports whether w is an answer word.
func (l *Lists) IsAnswer(w string) bool {
	_, ok := l.answersSet[strings.ToLower(w)]
	return ok
}

// Stats returns counts of loaded words: (answers, allowed, prompts).
func (l *Lists) Stats() (answers, allowed, prompts int) {
	return len(l.answers), len(l.allowedSet), len(l.prompts)
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isWord reports whether s is five lowercase ASCII letters.
func isWord(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
