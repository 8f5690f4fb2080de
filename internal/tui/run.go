package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithProgress drives the progress UI around a long-running simulation.
// The run callback receives a derived context that is cancelled when the
// user quits, and a report function safe to call from any goroutine. The
// run's own error is returned after the UI shuts down.
func RunWithProgress(ctx context.Context, title string, total int, run func(ctx context.Context, report func(completed, total int)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(title, total, cancel))

	errc := make(chan error, 1)
	go func() {
		err := run(ctx, func(completed, total int) {
			p.Send(ProgressMsg{Completed: completed, Total: total})
		})
		errc <- err
		if err != nil {
			p.Send(ErrMsg{Err: err})
		} else {
			p.Send(DoneMsg{})
		}
	}()

	if _, uiErr := p.Run(); uiErr != nil {
		cancel()
		<-errc
		return uiErr
	}
	return <-errc
}
