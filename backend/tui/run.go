package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

// Run starts the full-screen program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, s store.ProfileStore, adminPanel bool, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var m tea.Model = NewDirectoryModel(ctx, s, logger)
	if adminPanel {
		m = NewAdminModel(ctx, s, logger)
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		logger.Debug("tui exited", zap.Error(err))
		return err
	}
	return nil
}
