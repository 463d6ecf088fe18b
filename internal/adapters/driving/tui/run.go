package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/dexmigrate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
)

// MigrateFunc performs one migration run, reporting to progress.
type MigrateFunc func(ctx context.Context, progress driving.ProgressReporter) (*domain.MigrationResult, error)

// Run executes migrate while rendering its progress in the terminal and
// returns what migrate returned.
func Run(
	ctx context.Context,
	fileName string,
	migrate MigrateFunc,
	opts ...tea.ProgramOption,
) (*domain.MigrationResult, error) {
	if migrate == nil {
		return nil, ErrNoMigration
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewProgressModel(fileName, cancel)
	p := tea.NewProgram(model, opts...)

	go func() {
		reporter := driving.ProgressFunc(func(e domain.ProgressEvent) {
			p.Send(messages.Progress{Event: e})
		})
		result, err := migrate(ctx, reporter)
		p.Send(messages.Finished{Result: result, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}

	m, ok := final.(*ProgressModel)
	if !ok || !m.Finished() {
		return nil, ErrViewClosed
	}
	return m.Result()
}
