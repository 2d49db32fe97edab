// Package tui is the terminal client for today's round.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/charades/internal/game"
	"github.com/robalobadob/charades/internal/play"
)

// Game is the subset of play.Service the client drives.
type Game interface {
	View(ctx context.Context, player string) (play.View, error)
	Guess(ctx context.Context, req play.GuessRequest) (play.GuessResult, error)
	Share(ctx context.Context, player string) (string, error)
}

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	err    lipgloss.Style
	win    lipgloss.Style
	input  lipgloss.Style
	answer lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		win:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		input:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1),
		answer: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// Model is the bubbletea model for one player.
type Model struct {
	game    Game
	player  string
	timeout time.Duration

	input   textinput.Model
	view    play.View
	loaded  bool
	busy    bool
	share   string
	errText string

	styles styles
}

type viewMsg struct {
	view play.View
	err  error
}

type guessMsg struct {
	res play.GuessResult
	err error
}

type shareMsg struct {
	text string
	err  error
}

// New returns a model playing as player.
func New(g Game, player string) Model {
	in := textinput.New()
	in.Placeholder = "your guess..."
	in.CharLimit = 100
	in.Width = 40
	in.Focus()
	return Model{game: g, player: player, timeout: 10 * time.Second, input: in, styles: defaultStyles()}
}

// Init loads the round.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load)
}

func (m Model) load() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	v, err := m.game.View(ctx, m.player)
	return viewMsg{view: v, err: err}
}

func (m Model) submit(text string) tea.Cmd {
	round := m.view.RoundIndex
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		res, err := m.game.Guess(ctx, play.GuessRequest{Player: m.player, Text: text, Round: &round})
		return guessMsg{res: res, err: err}
	}
}

func (m Model) fetchShare() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	text, err := m.game.Share(ctx, m.player)
	return shareMsg{text: text, err: err}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.view.Finished {
				return m, tea.Quit
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.busy || !m.loaded {
				return m, nil
			}
			m.busy = true
			m.errText = ""
			return m, m.submit(text)
		}

	case viewMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.view, m.loaded = msg.view, true
		if m.view.Finished {
			m.input.Blur()
			return m, m.fetchShare
		}
		return m, nil

	case guessMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = message(msg.err)
			return m, nil
		}
		m.view = msg.res.View
		m.input.Reset()
		if m.view.Finished {
			m.input.Blur()
			return m, m.fetchShare
		}
		return m, nil

	case shareMsg:
		if msg.err == nil {
			m.share = msg.text
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// message turns play errors into the copy the web client shows.
func message(err error) string {
	switch {
	case errors.Is(err, game.ErrRepeatGuess):
		return "You've already guessed this word, please try again."
	case errors.Is(err, game.ErrInvalidGuess):
		return "Guesses must be letters and spaces only."
	case errors.Is(err, game.ErrEvaluation):
		return "Error comparing guess to answer, please try again in a moment."
	case errors.Is(err, play.ErrRoundClosed):
		return "A new round has started, restart to play it."
	}
	return err.Error()
}

// View renders the round.
func (m Model) View() string {
	var b strings.Builder
	if !m.loaded {
		if m.errText != "" {
			return m.styles.err.Render(m.errText) + "\n"
		}
		return m.styles.muted.Render("loading today's round...") + "\n"
	}
	v := m.view

	title := fmt.Sprintf("🎭 charades r%d", v.RoundIndex)
	if v.Hiatus {
		title += " (on hiatus)"
	}
	b.WriteString(m.styles.title.Render(title) + "\n")
	b.WriteString(m.styles.muted.Render(fmt.Sprintf("%d of 5 images revealed · next round in %s", len(v.Images), v.NextRoundIn)) + "\n")
	for _, u := range v.Images {
		b.WriteString(m.styles.muted.Render("  "+u) + "\n")
	}
	b.WriteString("\n")

	for _, g := range v.Guesses {
		fmt.Fprintf(&b, "%-20s %s\n", g.Text, g.Feedback)
	}

	switch {
	case v.Won:
		b.WriteString("\n" + m.styles.win.Render("You got it! ") + m.styles.answer.Render(v.Answer) + "\n")
	case v.Finished:
		b.WriteString("\nThe answer was " + m.styles.answer.Render(v.Answer) + "\n")
	default:
		b.WriteString("\n" + m.styles.input.Render(m.input.View()) + "\n")
		b.WriteString(m.styles.muted.Render(fmt.Sprintf("%d guesses left · streak %d", v.Remaining, v.Streaks.Win)) + "\n")
	}
	if m.busy {
		b.WriteString(m.styles.muted.Render("checking...") + "\n")
	}
	if m.errText != "" {
		b.WriteString(m.styles.err.Render(m.errText) + "\n")
	}
	if m.share != "" {
		b.WriteString("\n" + m.share + "\n")
	}
	if v.Finished {
		b.WriteString(m.styles.muted.Render("[enter] quit") + "\n")
	} else {
		b.WriteString(m.styles.muted.Render("[enter] guess  [esc] quit") + "\n")
	}
	return b.String()
}

// Run starts the program on the terminal.
func Run(g Game, player string) error {
	_, err := tea.NewProgram(New(g, player)).Run()
	return err
}
