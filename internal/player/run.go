// SPDX-License-Identifier: EPL-2.0

package player

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts playback of ctl and blocks until the user quits or ctx ends.
func Run(ctx context.Context, title string, ctl Controller) error {
	ctl.Play()

	p := tea.NewProgram(New(title, ctl), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			ctl.Stop()
			return nil
		}
		return fmt.Errorf("player: %w", err)
	}

	return nil
}
