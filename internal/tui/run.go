package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/spicecat/internal/model"
)

// Run shows the review screen until the user quits or ctx is canceled.
func Run(ctx context.Context, items []model.BulkItem, opts ...Option) error {
	if len(items) == 0 {
		return errors.New("nothing to review")
	}

	program := tea.NewProgram(NewModel(items, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("review failed: %w", err)
	}
	return nil
}
