// Package tuitest drives Bubble Tea models in tests without a terminal.
package tuitest

import (
	"reflect"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	// DefaultTimeout is how long a command may run before it is treated as a
	// timer, such as a cursor blink or a toast expiry, and dropped.
	DefaultTimeout = 40 * time.Millisecond

	maxMessages = 2000
)

var cmdType = reflect.TypeOf(tea.Cmd(nil))

// Driver feeds messages to a model and runs the commands it returns until
// nothing is left to deliver.
type Driver struct {
	Model    tea.Model
	Messages []tea.Msg
	Timeout  time.Duration
	Quit     bool
}

// NewDriver wraps m.
func NewDriver(m tea.Model) *Driver {
	return &Driver{
		Model:   m,
		Timeout: DefaultTimeout,
	}
}

// Init runs the model's Init command.
func (d *Driver) Init() *Driver {
	return d.deliver(Collect(d.Model.Init(), d.Timeout))
}

// Send delivers msgs in order, each followed by everything its commands produce.
func (d *Driver) Send(msgs ...tea.Msg) *Driver {
	for _, msg := range msgs {
		d.deliver([]tea.Msg{msg})
	}
	return d
}

// SendAll is Send for a slice.
func (d *Driver) SendAll(msgs []tea.Msg) *Driver {
	return d.Send(msgs...)
}

func (d *Driver) deliver(queue []tea.Msg) *Driver {
	for n := 0; len(queue) > 0 && n < maxMessages; n++ {
		msg := queue[0]
		queue = queue[1:]

		if _, ok := msg.(tea.QuitMsg); ok {
			d.Quit = true
			continue
		}

		var cmd tea.Cmd
		d.Model, cmd = d.Model.Update(msg)
		d.Messages = append(d.Messages, msg)
		queue = append(queue, Collect(cmd, d.Timeout)...)
	}
	return d
}

// View returns the current view without ANSI codes.
func (d *Driver) View() string {
	return StripANSI(d.Model.View())
}

// Collect runs cmd and returns the messages it produces, expanding batches and
// sequences in order. Commands still running after timeout are dropped.
func Collect(cmd tea.Cmd, timeout time.Duration) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg, ok := run(cmd, timeout)
	if !ok || msg == nil {
		return nil
	}

	cmds, ok := asCmds(msg)
	if !ok {
		return []tea.Msg{msg}
	}

	results := make([][]tea.Msg, len(cmds))
	var wg sync.WaitGroup
	for i, c := range cmds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = Collect(c, timeout)
		}()
	}
	wg.Wait()

	var out []tea.Msg
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func run(cmd tea.Cmd, timeout time.Duration) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(timeout):
		return nil, false
	}
}

// asCmds unpacks tea.BatchMsg and the message tea.Sequence produces.
func asCmds(msg tea.Msg) ([]tea.Cmd, bool) {
	if batch, ok := msg.(tea.BatchMsg); ok {
		return batch, true
	}
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Slice || v.Type().Elem() != cmdType {
		return nil, false
	}
	cmds := make([]tea.Cmd, v.Len())
	for i := range cmds {
		cmds[i], _ = v.Index(i).Interface().(tea.Cmd)
	}
	return cmds, true
}

// Find returns the delivered messages of type T.
func Find[T tea.Msg](d *Driver) []T {
	var out []T
	for _, msg := range d.Messages {
		if m, ok := msg.(T); ok {
			out = append(out, m)
		}
	}
	return out
}
