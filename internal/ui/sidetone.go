package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/arctis-tools/novactl/internal/config"
)

// sidetoneSelectModel wraps the huh form in Bubble Tea so escape aborts
// cleanly.
type sidetoneSelectModel struct {
	form    *huh.Form
	aborted bool
}

func (m sidetoneSelectModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m sidetoneSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.aborted = true
			return m, tea.Quit
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, tea.Quit
	}
	return m, cmd
}

func (m sidetoneSelectModel) View() string {
	if m.form.State == huh.StateCompleted {
		return ""
	}
	return m.form.View()
}

// SelectSidetoneLevel presents the named sidetone levels and returns
// the chosen 0-128 value. The second result is false when the user
// cancelled.
func SelectSidetoneLevel() (int, bool, error) {
	options := make([]huh.Option[int], len(config.SidetoneOptions))
	for i, opt := range config.SidetoneOptions {
		label := fmt.Sprintf("%-7s %s", opt.Name, Muted(fmt.Sprintf("(%d)", opt.Value)))
		options[i] = huh.NewOption(label, opt.Value)
	}

	var level int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Sidetone Level").
				Description("Microphone feedback into the headset (esc to cancel)").
				Options(options...).
				Value(&level),
		),
	).WithTheme(pickerTheme()).WithShowHelp(false)

	model := sidetoneSelectModel{form: form}
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return 0, false, err
	}

	m := finalModel.(sidetoneSelectModel)
	if m.aborted {
		return 0, false, nil
	}
	return level, true, nil
}

func pickerTheme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorPrimary)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorPrimary)
	return t
}
