// Package widget is the terminal rendition of the companion widget.
package widget

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/i474232898/openwx/internal/session"
	"github.com/i474232898/openwx/internal/weather"
)

// Controller is the companion surface the model drives.
type Controller interface {
	Tap()
	RequestFocus()
	ToggleUnit() weather.Unit
	View() session.View
}

// ViewMsg carries a fresh view into the program, typically from Program.Send.
type ViewMsg session.View

// Model is the bubbletea model of the widget.
type Model struct {
	ctrl   Controller
	view   session.View
	status string
}

// New creates a model showing ctrl's current view.
func New(ctrl Controller) Model {
	return Model{ctrl: ctrl, view: ctrl.View()}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ViewMsg:
		m.view = session.View(msg)
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.ctrl.Tap()
			m.status = "Refreshing…"
		case "f":
			m.ctrl.RequestFocus()
			m.status = "Opening dashboard…"
		case "u":
			m.ctrl.ToggleUnit()
			m.view = m.ctrl.View()
		}
	}
	return m, nil
}

func (m Model) View() string {
	pane := Pane
	if accent, ok := categoryAccent[m.view.Category]; ok {
		pane = pane.BorderForeground(accent)
	}

	var b strings.Builder
	if m.view.Title == "" {
		b.WriteString(Muted.Render("Waiting for weather…"))
	} else {
		b.WriteString(Title.Render(m.view.Title))
		b.WriteString("\n")
		b.WriteString(Temp.Render(m.view.Temperature))
		b.WriteString("  ")
		b.WriteString(m.view.Condition)
		b.WriteString("\n")
		b.WriteString(Muted.Render(m.view.FeelsLike + " · " + m.view.Humidity + " · " + m.view.Wind))
	}
	if m.view.Error != "" {
		b.WriteString("\n")
		b.WriteString(Alert.Render(m.view.Error))
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(Muted.Render(m.status))
	}

	help := Muted.Render("r refresh · f dashboard · u °C/°F · q quit")
	return pane.Render(b.String()) + "\n" + help + "\n"
}
