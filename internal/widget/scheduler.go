package widget

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// CallbackMsg carries a deferred callback into the update loop.
type CallbackMsg struct {
	Fn func()
}

// Scheduler routes callbacks from foreign goroutines (feed pushes, resolved
// fetches) onto the bubbletea update loop. Callbacks scheduled before the
// program is attached are buffered and flushed on attach.
type Scheduler struct {
	mu      sync.Mutex
	program *tea.Program
	pending []func()
}

// Schedule queues fn for execution on the update loop.
func (s *Scheduler) Schedule(fn func()) {
	s.mu.Lock()
	p := s.program
	if p == nil {
		s.pending = append(s.pending, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	p.Send(CallbackMsg{Fn: fn})
}

// Attach binds the running program and flushes buffered callbacks.
func (s *Scheduler) Attach(p *tea.Program) {
	s.mu.Lock()
	s.program = p
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range pending {
		p.Send(CallbackMsg{Fn: fn})
	}
}
