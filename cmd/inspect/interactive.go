package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/native-runtime/runtime"
	"github.com/wippyai/native-runtime/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	reg      *runtime.Registry
	lib      *runtime.Library
	paths    []string
	libName  string
	result   string
	exports  []exportInfo
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type exportInfo struct {
	name    string
	retType string
	params  []schema.ParamDef
}

type modelState int

const (
	stateSelectExport modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(paths []string, libName string) *interactiveModel {
	return &interactiveModel{
		paths:   paths,
		libName: libName,
		state:   stateSelectExport,
	}
}

type loadedMsg struct {
	err     error
	reg     *runtime.Registry
	lib     *runtime.Library
	exports []exportInfo
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadLibrary
}

func (m *interactiveModel) loadLibrary() tea.Msg {
	reg := runtime.NewRegistry(runtime.Config{SearchPaths: m.paths})

	lib, err := reg.Load(m.libName)
	if err != nil {
		reg.Close()
		return loadedMsg{err: err}
	}

	var exports []exportInfo
	for _, name := range lib.Exports() {
		def, err := lib.Export(name)
		if err != nil {
			continue
		}
		ei := exportInfo{name: name, params: def.Params}
		if def.Returns.Kind != schema.KindVoid {
			ei.retType = def.Returns.String()
		}
		exports = append(exports, ei)
	}

	return loadedMsg{reg: reg, lib: lib, exports: exports}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputArgs && msg.String() == "q" {
				break
			}
			if m.reg != nil {
				m.reg.Close()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectExport && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectExport && m.selected < len(m.exports)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectExport:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callExport
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callExport

			case stateShowResult:
				m.state = stateSelectExport
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectExport
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectExport
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.reg = msg.reg
		m.lib = msg.lib
		m.exports = msg.exports

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	e := m.exports[m.selected]
	m.inputs = make([]textinput.Model, len(e.params))
	for i, p := range e.params {
		ti := textinput.New()
		ti.Placeholder = p.Type.String()
		ti.Prompt = p.Name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callExport() tea.Msg {
	e := m.exports[m.selected]

	args := make([]any, len(m.inputs))
	for i, input := range m.inputs {
		v, err := convertArg(strings.TrimSpace(input.Value()), e.params[i].Type)
		if err != nil {
			return callResultMsg{err: fmt.Errorf("argument %s: %w", e.params[i].Name, err)}
		}
		args[i] = v
	}

	result, err := m.lib.Call(e.name, args...)
	if err != nil {
		return callResultMsg{err: err}
	}
	if result == nil {
		return callResultMsg{result: "void"}
	}
	return callResultMsg{result: fmt.Sprintf("%v", result)}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.exports) == 0 {
		return "Loading library..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Library Inspector"))
	b.WriteString(" ")
	b.WriteString(m.libName)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectExport:
		b.WriteString("Select an export to call:\n\n")
		for i, e := range m.exports {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatExport(e)))
			} else {
				b.WriteString(cursor + m.formatExport(e))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		e := m.exports[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(e.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(e.params[i].Type.String()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		e := m.exports[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(e.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatExport(e exportInfo) string {
	var params []string
	for _, p := range e.params {
		params = append(params, p.Name+": "+typeStyle.Render(p.Type.String()))
	}
	result := ""
	if e.retType != "" {
		result = " -> " + typeStyle.Render(e.retType)
	}
	return funcStyle.Render(e.name) + "(" + strings.Join(params, ", ") + ")" + result
}

func runInteractive(paths []string, libName string) error {
	p := tea.NewProgram(newInteractiveModel(paths, libName), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
