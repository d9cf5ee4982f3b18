// Package tui is a terminal frontend for display.Display built on
// bubbletea. The bubbletea event loop is the UI context: bus events and key
// presses both reach the Display through Update.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/charlie0129/batmon/pkg/display"
	"github.com/charlie0129/batmon/pkg/events"
)

// ErrStreamClosed is shown when the event source goes away.
var ErrStreamClosed = errors.New("event stream closed")

// eventMsg carries a bus event into Update.
type eventMsg events.Event

// streamClosedMsg is sent once the event channel is closed.
type streamClosedMsg struct{}

// reconnectMsg asks for a new subscription.
type reconnectMsg struct{}

// subscribedMsg carries the channel of a new subscription.
type subscribedMsg struct {
	ch <-chan events.Event
}

// subscribeFailedMsg reports a failed resubscription.
type subscribeFailedMsg struct {
	err error
}

// SubscribeFunc opens a new event stream.
type SubscribeFunc func() (<-chan events.Event, error)

// Model is the bubbletea model of the level display.
type Model struct {
	display *display.Display
	events  <-chan events.Event
	keys    keyMap

	subscribe SubscribeFunc
	retry     time.Duration

	level  *label
	status *label
	start  *button
	stop   *button

	err error
}

// New returns a Model rendering events from ch and sending start/stop
// key presses to ctrl.
func New(ctrl display.ServiceController, ch <-chan events.Event, opts ...display.Option) Model {
	keys := defaultKeyMap()
	m := Model{
		events: ch,
		keys:   keys,
		level:  &label{},
		status: &label{},
		start:  &button{binding: keys.Start},
		stop:   &button{binding: keys.Stop},
	}
	m.display = display.New(display.Handles{
		Level:  m.level,
		Status: m.status,
		Start:  m.start,
		Stop:   m.stop,
	}, ctrl, opts...)
	return m
}

// WithReconnect makes the model subscribe again, every retry, after the
// event stream closes.
func (m Model) WithReconnect(subscribe SubscribeFunc, retry time.Duration) Model {
	m.subscribe = subscribe
	m.retry = retry
	return m
}

// Display returns the underlying display.
func (m Model) Display() *display.Display {
	return m.display
}

// Err returns the error shown in the footer, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return listen(m.events)
}

// listen waits for the next bus event.
func listen(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) scheduleReconnect() tea.Cmd {
	if m.subscribe == nil {
		return nil
	}
	return tea.Tick(m.retry, func(time.Time) tea.Msg { return reconnectMsg{} })
}

func resubscribe(subscribe SubscribeFunc) tea.Cmd {
	if subscribe == nil {
		return nil
	}
	return func() tea.Msg {
		ch, err := subscribe()
		if err != nil {
			return subscribeFailedMsg{err: err}
		}
		return subscribedMsg{ch: ch}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		if fn := display.Apply(events.Event(msg), m.display); fn != nil {
			fn()
		}
		return m, listen(m.events)

	case streamClosedMsg:
		m.err = ErrStreamClosed
		return m, m.scheduleReconnect()

	case reconnectMsg:
		return m, resubscribe(m.subscribe)

	case subscribeFailedMsg:
		m.err = fmt.Errorf("%w: %v", ErrStreamClosed, msg.err)
		return m, m.scheduleReconnect()

	case subscribedMsg:
		// The daemon sends its monitor state and last level first.
		m.events = msg.ch
		m.err = nil
		return m, listen(m.events)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Start):
			m.err = m.display.StartRequested()
		case key.Matches(msg, m.keys.Stop):
			m.err = m.display.StopRequested()
		}
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Battery level"))
	b.WriteString("\n\n")
	b.WriteString(m.level.view())
	b.WriteString("\n\n")
	b.WriteString("Monitoring: ")
	b.WriteString(m.status.view())
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, m.start.view(), " ", m.stop.view()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	var help []string
	for _, k := range m.keys.bindings() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Join(help, " • ")))

	return boxStyle.Render(b.String())
}

// Run runs the program until the user quits or ctx is done.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
