package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dexmigrate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

func progressMsg(e domain.ProgressEvent) messages.Progress {
	return messages.Progress{Event: e}
}

func TestProgressModel_Initial(t *testing.T) {
	m := NewProgressModel("backup.json", nil)

	assert.Equal(t, domain.PhasePreparing, m.Phase())
	assert.False(t, m.Finished())
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "backup.json")
	assert.Contains(t, m.View(), "Preparing")
}

func TestProgressModel_TracksEvents(t *testing.T) {
	m := NewProgressModel("backup.json", nil)

	m.Update(progressMsg(domain.ProgressEvent{Phase: domain.PhasePreparing, Message: "Retrieving new manga ids 50%"}))
	assert.Contains(t, m.View(), "Retrieving new manga ids 50%")

	m.Update(progressMsg(domain.ProgressEvent{Phase: domain.PhaseProcessing, Total: 2}))
	assert.NotContains(t, m.View(), "Retrieving")

	_, cmd := m.Update(progressMsg(domain.ProgressEvent{
		Phase: domain.PhaseProcessing, Title: "One Piece", Outcome: domain.OutcomeMigrated, Processed: 1, Total: 2,
	}))
	assert.NotNil(t, cmd)
	m.Update(progressMsg(domain.ProgressEvent{
		Phase: domain.PhaseProcessing, Title: "Berserk", Outcome: domain.OutcomeMissingMangaID, Processed: 2, Total: 2,
	}))

	assert.Equal(t, domain.PhaseProcessing, m.Phase())
	assert.Equal(t, 2, m.Processed())
	assert.Equal(t, 2, m.Total())
	assert.Equal(t, 1, m.Count(domain.OutcomeMigrated))
	assert.Equal(t, 1, m.Count(domain.OutcomeMissingMangaID))

	view := m.View()
	assert.Contains(t, view, "One Piece")
	assert.Contains(t, view, "Berserk")
	assert.Contains(t, view, "2/2")
}

func TestProgressModel_IdleIgnored(t *testing.T) {
	m := NewProgressModel("backup.json", nil)

	m.Update(progressMsg(domain.ProgressEvent{Phase: domain.PhaseFinishing, Total: 3}))
	m.Update(progressMsg(domain.ProgressEvent{Phase: domain.PhaseIdle}))

	assert.Equal(t, domain.PhaseFinishing, m.Phase())
}

func TestProgressModel_KeepsRecentWindow(t *testing.T) {
	m := NewProgressModel("backup.json", nil)

	for i := 0; i < recentLimit+3; i++ {
		m.Update(progressMsg(domain.ProgressEvent{
			Phase: domain.PhaseProcessing, Title: string(rune('A' + i)), Outcome: domain.OutcomeMigrated,
			Processed: i + 1, Total: recentLimit + 3,
		}))
	}

	assert.Len(t, m.recent, recentLimit)
	assert.Equal(t, "D", m.recent[0].title)
	assert.Equal(t, recentLimit+3, m.Count(domain.OutcomeMigrated))
}

func TestProgressModel_CancelKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewProgressModel("backup.json", cancel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.Nil(t, cmd)
	assert.True(t, m.Cancelled())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Contains(t, m.View(), "Cancelling...")
}

func TestProgressModel_OtherKeysIgnoredWhileRunning(t *testing.T) {
	m := NewProgressModel("backup.json", nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	assert.Nil(t, cmd)
	assert.False(t, m.Cancelled())
}

func TestProgressModel_FinishedQuits(t *testing.T) {
	m := NewProgressModel("backup.json", nil)
	result := &domain.MigrationResult{
		FileName: "backup_modified.json",
		Report: domain.MigrationReport{
			TotalFiltered:  3,
			MissingMangaID: []string{"Berserk"},
		},
	}

	_, cmd := m.Update(messages.Finished{Result: result})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Finished())

	got, err := m.Result()
	require.NoError(t, err)
	assert.Same(t, result, got)

	view := m.View()
	assert.Contains(t, view, "Migrated 2 of 3 entries")
	assert.Contains(t, view, "Missing manga id: 1")
	assert.Contains(t, view, "backup_modified.json")
}

func TestProgressModel_FinishedViews(t *testing.T) {
	tests := []struct {
		name string
		msg  messages.Finished
		want string
	}{
		{"failed", messages.Finished{Err: errors.New("resolver down")}, "Migration failed: resolver down"},
		{"cancelled", messages.Finished{Err: context.Canceled}, "Migration cancelled"},
		{"empty", messages.Finished{}, "Nothing to report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewProgressModel("backup.json", nil)
			m.Update(tt.msg)
			assert.Contains(t, m.View(), tt.want)
		})
	}
}

func TestProgressModel_QuitAfterFinish(t *testing.T) {
	m := NewProgressModel("backup.json", nil)
	m.Update(messages.Finished{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestProgressModel_WindowSize(t *testing.T) {
	m := NewProgressModel("backup.json", nil)

	m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	assert.Equal(t, 36, m.bar.Width)

	m.Update(tea.WindowSizeMsg{Width: 200, Height: 20})
	assert.Equal(t, maxBarWidth, m.bar.Width)

	m.Update(tea.WindowSizeMsg{Width: 5, Height: 20})
	assert.Equal(t, 10, m.bar.Width)
}

func TestPhaseLabel(t *testing.T) {
	assert.Equal(t, "Preparing", phaseLabel(domain.PhasePreparing))
	assert.Equal(t, "Processing", phaseLabel(domain.PhaseProcessing))
	assert.Equal(t, "Finishing", phaseLabel(domain.PhaseFinishing))
	assert.Equal(t, "Idle", phaseLabel(domain.PhaseIdle))
}
