package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/j-veylop/whoop-dashboard-tui/internal/session"
)

// ErrNotAwaitingCode is returned by SubmitCode when no authorization waits.
var ErrNotAwaitingCode = errors.New("no authorization is waiting for a code")

// tuiPrompter turns the blocking prompt of the session manager into an
// AuthRequiredEvent and waits for SubmitCode.
type tuiPrompter struct {
	m        *Manager
	codes    chan string
	waiting  atomic.Bool
	attempts atomic.Int32
}

func newTUIPrompter(m *Manager) *tuiPrompter {
	return &tuiPrompter{m: m, codes: make(chan string, 1)}
}

func (p *tuiPrompter) PromptCode(ctx context.Context, authURL string, lastErr error) (string, error) {
	// Drop a code submitted for an earlier prompt.
	select {
	case <-p.codes:
	default:
	}

	if p.attempts.Add(1) == 1 {
		p.m.notify("WHOOP authorization required", "Open the dashboard to connect your account.")
	}
	p.waiting.Store(true)
	defer p.waiting.Store(false)

	p.m.broadcast(AuthRequiredEvent{URL: authURL, LastError: lastErr})

	select {
	case code := <-p.codes:
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.m.stopChan:
		return "", ErrClosed
	}
}

func (p *tuiPrompter) submit(input string) error {
	if !p.waiting.Load() || p.m.session.State() != session.StateAwaitingCode {
		return ErrNotAwaitingCode
	}
	select {
	case p.codes <- input:
		return nil
	default:
		return errors.New("a code is already being checked")
	}
}

// prompted reports whether the user was asked for a code since the last
// call, and resets the flag.
func (p *tuiPrompter) prompted() bool {
	return p.attempts.Swap(0) > 0
}
