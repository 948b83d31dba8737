// Package discovery implements the discovery loop (C4): periodically
// broadcasting ENTITY_DISCOVER so the transport's ADP observers can build
// the entity registry.
package discovery

import (
	"time"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

// Sender is the subset of transport.ProtocolInterface the discovery loop
// needs.
type Sender interface {
	SendAdp(pdu protocol.Adpdu) error
}

// ErrorHandler receives send failures from the discovery loop; the loop
// keeps running afterwards, matching the "does not parse responses"
// posture of a fire-and-forget broadcast.
type ErrorHandler func(err error)

const defaultInterval = 10 * time.Second

// Loop drives periodic ENTITY_DISCOVER broadcasts on a dedicated goroutine
// (§4.4's "dedicated cooperative task"). The zero value is not usable; use
// New.
type Loop struct {
	sender   Sender
	interval time.Duration
	onError  ErrorHandler
	done     chan struct{}
	stopped  chan struct{}
}

// New builds a discovery loop broadcasting every interval (defaultInterval
// if zero). onError may be nil.
func New(sender Sender, interval time.Duration, onError ErrorHandler) *Loop {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Loop{
		sender:   sender,
		interval: interval,
		onError:  onError,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start sends an immediate broadcast and begins the periodic loop on its
// own goroutine.
func (l *Loop) Start() {
	go l.run()
}

// Stop signals shutdown and blocks until the loop goroutine has exited.
// Cancellation is immediate: select on done races the ticker regardless of
// interval, satisfying the ~10ms responsiveness the design calls for
// without needing a separate polling tick.
func (l *Loop) Stop() {
	close(l.done)
	<-l.stopped
}

func (l *Loop) run() {
	defer close(l.stopped)

	l.broadcast()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.broadcast()
		}
	}
}

func (l *Loop) broadcast() {
	pdu := protocol.Adpdu{
		MessageType: protocol.AdpEntityDiscover,
		EntityID:    avdeccid.UniqueID(0),
	}
	if err := l.sender.SendAdp(pdu); err != nil && l.onError != nil {
		l.onError(err)
	}
}
