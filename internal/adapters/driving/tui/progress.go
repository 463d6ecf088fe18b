package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/dexmigrate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/dexmigrate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/dexmigrate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

const (
	recentLimit = 5
	maxBarWidth = 60
)

type recentEntry struct {
	title   string
	outcome domain.Outcome
}

// ProgressModel renders a running migration: the phase, a progress bar and
// the last few entries classified.
type ProgressModel struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	help    help.Model
	spinner spinner.Model
	bar     progress.Model
	cancel  context.CancelFunc

	fileName  string
	phase     domain.Phase
	message   string
	processed int
	total     int
	recent    []recentEntry
	counts    map[domain.Outcome]int

	finished  bool
	cancelled bool
	result    *domain.MigrationResult
	err       error
}

// NewProgressModel creates the view for migrating fileName. cancel is called
// when the user aborts the run; it may be nil.
func NewProgressModel(fileName string, cancel context.CancelFunc) *ProgressModel {
	s := styles.DefaultStyles()
	theme := s.Theme()

	return &ProgressModel{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		help:   help.New(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(s.Title),
		),
		bar: progress.New(
			progress.WithGradient(string(theme.Primary), string(theme.Secondary)),
			progress.WithWidth(maxBarWidth),
		),
		cancel:   cancel,
		fileName: fileName,
		phase:    domain.PhasePreparing,
		counts:   make(map[domain.Outcome]int),
	}
}

// Init starts the spinner.
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress events, key presses and animation frames.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.bar.Width = max(min(msg.Width-4, maxBarWidth), 10)
		return m, nil

	case messages.Progress:
		return m, m.handleProgress(msg.Event)

	case messages.Finished:
		m.finished = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		if b, ok := bar.(progress.Model); ok {
			m.bar = b
		}
		return m, cmd
	}

	return m, nil
}

func (m *ProgressModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.finished {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}
	if key.Matches(msg, m.keys.Cancel) && !m.cancelled {
		m.cancelled = true
		m.message = "Cancelling..."
		if m.cancel != nil {
			m.cancel()
		}
	}
	return m, nil
}

func (m *ProgressModel) handleProgress(e domain.ProgressEvent) tea.Cmd {
	if e.Phase == domain.PhaseIdle {
		return nil
	}
	if e.Phase != m.phase {
		m.message = ""
	}
	m.phase = e.Phase
	if e.Message != "" {
		m.message = e.Message
	}

	switch e.Phase {
	case domain.PhaseProcessing:
		m.processed = e.Processed
		m.total = e.Total
		if e.Title != "" {
			m.recent = append(m.recent, recentEntry{title: e.Title, outcome: e.Outcome})
			if len(m.recent) > recentLimit {
				m.recent = m.recent[len(m.recent)-recentLimit:]
			}
			m.counts[e.Outcome]++
		}
		if m.total > 0 {
			return m.bar.SetPercent(float64(m.processed) / float64(m.total))
		}
	case domain.PhaseFinishing:
		return m.bar.SetPercent(1)
	}
	return nil
}

// View renders the model.
func (m *ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("dexmigrate"))
	b.WriteString(" ")
	b.WriteString(m.styles.Muted.Render(m.fileName))
	b.WriteString("\n\n")

	if m.finished {
		b.WriteString(m.viewSummary())
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView(m.keys.FinishedHelp()))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.styles.Phase.Render(phaseLabel(m.phase)))
	if m.message != "" {
		b.WriteString("  ")
		b.WriteString(m.styles.Normal.Render(m.message))
	}
	b.WriteString("\n\n")

	b.WriteString(m.bar.View())
	if m.total > 0 {
		fmt.Fprintf(&b, "  %d/%d", m.processed, m.total)
	}
	b.WriteString("\n\n")

	for _, r := range m.recent {
		b.WriteString(m.styles.Outcome(r.outcome).Render(fmt.Sprintf("%-18s %s", r.outcome, r.title)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.RunningHelp()))
	b.WriteString("\n")
	return b.String()
}

func (m *ProgressModel) viewSummary() string {
	switch {
	case m.err != nil && errors.Is(m.err, context.Canceled):
		return m.styles.Warning.Render("Migration cancelled. No output was written.")
	case m.err != nil:
		return m.styles.Error.Render("Migration failed: " + m.err.Error())
	case m.result == nil:
		return m.styles.Muted.Render("Nothing to report.")
	}

	r := m.result.Report
	lines := []string{
		m.styles.Success.Render(fmt.Sprintf("Migrated %d of %d entries", r.TotalMigrated(), r.TotalFiltered)),
		m.styles.Muted.Render(fmt.Sprintf("Already migrated: %d", len(r.AlreadyMigrated))),
		m.styles.Warning.Render(fmt.Sprintf("Missing manga id: %d", len(r.MissingMangaID))),
		m.styles.Warning.Render(fmt.Sprintf("Missing chapter id: %d", len(r.MissingChapterID))),
		m.styles.Normal.Render("Output: " + m.result.FileName),
	}
	return m.styles.Border.Render(strings.Join(lines, "\n"))
}

func phaseLabel(p domain.Phase) string {
	switch p {
	case domain.PhasePreparing:
		return "Preparing"
	case domain.PhaseProcessing:
		return "Processing"
	case domain.PhaseFinishing:
		return "Finishing"
	default:
		return "Idle"
	}
}

// Phase returns the last phase reported.
func (m *ProgressModel) Phase() domain.Phase {
	return m.phase
}

// Processed returns the running count of counted entries.
func (m *ProgressModel) Processed() int {
	return m.processed
}

// Total returns the number of entries that will be counted.
func (m *ProgressModel) Total() int {
	return m.total
}

// Count returns how many entries were seen with the given outcome.
func (m *ProgressModel) Count(o domain.Outcome) int {
	return m.counts[o]
}

// Finished reports whether the run has returned.
func (m *ProgressModel) Finished() bool {
	return m.finished
}

// Cancelled reports whether the user aborted the run.
func (m *ProgressModel) Cancelled() bool {
	return m.cancelled
}

// Result returns the run result and error once finished.
func (m *ProgressModel) Result() (*domain.MigrationResult, error) {
	return m.result, m.err
}
