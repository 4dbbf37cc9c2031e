package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arctis-tools/novactl/internal/poll"
)

// updateMsg carries one scheduler update into the Bubble Tea loop.
type updateMsg poll.Update

// updatesClosedMsg signals the scheduler stopped.
type updatesClosedMsg struct{}

// MonitorModel renders the live adaptive-poll view.
type MonitorModel struct {
	updates <-chan poll.Update
	last    *poll.Update
	ticks   int
}

// NewMonitor builds the live view fed by a scheduler update stream.
func NewMonitor(updates <-chan poll.Update) MonitorModel {
	return MonitorModel{updates: updates}
}

func (m MonitorModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m MonitorModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return updatesClosedMsg{}
		}
		return updateMsg(u)
	}
}

func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	case updateMsg:
		u := poll.Update(msg)
		m.last = &u
		m.ticks++
		return m, m.waitForUpdate()
	case updatesClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m MonitorModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(Title("novactl monitor"))
	b.WriteString(Muted("  (q to quit)"))
	b.WriteString("\n\n")

	if m.last == nil {
		b.WriteString(Muted("  waiting for first status..."))
		b.WriteString("\n")
		return b.String()
	}

	u := *m.last
	if !u.Connected {
		fmt.Fprintf(&b, "  %s %s\n", Muted("State:"), Warning("offline"))
	} else {
		fmt.Fprintf(&b, "  %s %s\n", Muted("State:"), Success("online"))
		fmt.Fprintf(&b, "  %s %s\n", Muted("Battery:"), Value(formatBattery(u)))
		fmt.Fprintf(&b, "  %s %s\n", Muted("ChatMix:"), Value(formatChatMix(u.ChatMix)))
		if u.ChatMix != nil {
			fmt.Fprintf(&b, "  %s %s\n", Muted("Balance:"), chatMixBar(*u.ChatMix))
		}
	}

	fmt.Fprintf(&b, "\n  %s\n", Muted(fmt.Sprintf("updates: %d", m.ticks)))
	return b.String()
}

// chatMixBar draws the game/chat balance as a fixed-width gauge.
func chatMixBar(mix int) string {
	const width = 17
	pos := mix * (width - 1) / 128
	var b strings.Builder
	b.WriteString("game [")
	for i := 0; i < width; i++ {
		if i == pos {
			b.WriteString("|")
		} else {
			b.WriteString("-")
		}
	}
	b.WriteString("] chat")
	return Muted(b.String())
}
