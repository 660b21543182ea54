// Package notice is a single-slot mailbox for messages that must survive a
// screen change, such as the session-expired warning shown on the login screen.
package notice

import "sync"

// Notice is a message queued for the next screen that asks for it.
type Notice struct {
	Title       string
	Description string
}

// SessionExpired is posted when the backend rejects the session.
var SessionExpired = Notice{
	Title:       "Sesión expirada",
	Description: "Por favor inicie sesión nuevamente",
}

type mailbox struct {
	pending *Notice
	mu      sync.Mutex
}

// Producer posts notices.
type Producer struct {
	box *mailbox
}

// Consumer takes notices.
type Consumer struct {
	box *mailbox
}

// New returns the two ends of an empty mailbox.
func New() (Producer, Consumer) {
	box := &mailbox{}
	return Producer{box: box}, Consumer{box: box}
}

// Post stores n, replacing a notice nobody has taken yet.
func (p Producer) Post(n Notice) {
	p.box.mu.Lock()
	defer p.box.mu.Unlock()
	p.box.pending = &n
}

// Take returns the pending notice and empties the mailbox.
func (c Consumer) Take() (Notice, bool) {
	c.box.mu.Lock()
	defer c.box.mu.Unlock()
	if c.box.pending == nil {
		return Notice{}, false
	}
	n := *c.box.pending
	c.box.pending = nil
	return n, true
}

// Pending reports whether a notice is waiting, without taking it.
func (c Consumer) Pending() bool {
	c.box.mu.Lock()
	defer c.box.mu.Unlock()
	return c.box.pending != nil
}
