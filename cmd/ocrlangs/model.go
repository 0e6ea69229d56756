package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"screen-ocr/internal/domain"
	"screen-ocr/internal/langs"
)

const pollInterval = 100 * time.Millisecond

type mode int

const (
	modeFetching mode = iota
	modeBrowsing
	modeInstalling
	modeFiltering
)

type tickMsg time.Time

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Mark    key.Binding
	Install key.Binding
	Remove  key.Binding
	Refresh key.Binding
	Filter  key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Mark:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "mark")),
	Install: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "install marked")),
	Remove:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type model struct {
	catalog  *langs.Catalog
	mode     mode
	entries  []domain.CatalogEntry
	cursor   int
	query    string
	spinner  spinner.Model
	progress progress.Model
	filter   textinput.Model
	install  domain.InstallProgress
	status   string
	err      error
}

func newModel(catalog *langs.Catalog) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "language code or name"
	ti.Prompt = "/ "

	return model{
		catalog:  catalog,
		mode:     modeFetching,
		entries:  catalog.Langs(),
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		filter:   ti,
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	if err := m.catalog.StartFetchExternal(); err != nil {
		return func() tea.Msg { return err }
	}
	return tea.Batch(m.spinner.Tick, tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case error:
		m.err = msg
		m.mode = modeBrowsing
		return m, nil
	case tickMsg:
		return m.poll()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd
	case tea.WindowSizeMsg:
		m.progress.Width = min(msg.Width-10, 60)
		return m, nil
	case tea.KeyMsg:
		if m.mode == modeFiltering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// poll advances the model from the catalog's operation statuses.
func (m model) poll() (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeFetching:
		if m.catalog.FetchStatus().Code == domain.OpStatusInProgress {
			return m, tick()
		}
		m.mode = modeBrowsing
		if err := m.catalog.LoadFetchedExternal(); err != nil {
			m.err = describe(err)
		} else {
			m.status = "language list updated"
		}
		m.refresh()
		return m, nil
	case modeInstalling:
		status := m.catalog.InstallStatus()
		if status.Code == domain.OpStatusInProgress {
			m.install = m.catalog.InstallProgress()
			var cmd tea.Cmd
			if m.install.Percent >= 0 {
				cmd = m.progress.SetPercent(float64(m.install.Percent) / 100)
			}
			return m, tea.Batch(cmd, tick())
		}
		m.mode = modeBrowsing
		m.install = domain.InstallProgress{}
		switch {
		case status.Code.IsError():
			m.err = describe(&domain.LangManagerError{
				Message: status.ErrorText,
				Network: status.Code == domain.OpStatusNetworkError,
			})
		case status.Code == domain.OpStatusNone:
			m.status = "install canceled"
		default:
			m.status = "install finished"
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		if m.mode == modeInstalling {
			m.catalog.CancelInstall()
		}
		return m, tea.Quit
	case m.mode == modeInstalling:
		if key.Matches(msg, keys.Cancel) {
			m.status = "canceling..."
			go m.catalog.CancelInstall()
		}
		return m, nil
	case m.mode != modeBrowsing:
		return m, nil
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Mark):
		if e, ok := m.selected(); ok {
			m.catalog.SetInstallMark(e.Code, !e.InstallMark)
			m.refresh()
		}
	case key.Matches(msg, keys.Install):
		m.err, m.status = nil, ""
		if err := m.catalog.StartInstall(); err != nil {
			m.err = err
			return m, nil
		}
		m.mode = modeInstalling
		return m, tea.Batch(m.progress.SetPercent(0), tick())
	case key.Matches(msg, keys.Remove):
		if e, ok := m.selected(); ok {
			m.err, m.status = nil, ""
			if err := m.catalog.RemoveLang(e.Code); err != nil {
				m.err = err
			} else if e.State != domain.LangStateNotInstalled {
				m.status = fmt.Sprintf("removed %s", e.Code)
			}
			m.refresh()
		}
	case key.Matches(msg, keys.Refresh):
		m.err, m.status = nil, ""
		if err := m.catalog.StartFetchExternal(); err != nil {
			m.err = err
			return m, nil
		}
		m.mode = modeFetching
		return m, tea.Batch(m.spinner.Tick, tick())
	case key.Matches(msg, keys.Filter):
		m.mode = modeFiltering
		m.filter.SetValue(m.query)
		return m, m.filter.Focus()
	case key.Matches(msg, keys.Cancel):
		m.query = ""
		m.refresh()
	}
	return m, nil
}

func (m model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.filter.Blur()
		m.mode = modeBrowsing
		if msg.Type == tea.KeyEsc {
			m.filter.SetValue("")
		}
		m.query = strings.TrimSpace(m.filter.Value())
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.query = strings.TrimSpace(m.filter.Value())
	m.refresh()
	return m, cmd
}

// refresh reloads entries from the catalog and clamps the cursor.
func (m *model) refresh() {
	m.entries = m.catalog.Search(m.query)
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m model) selected() (domain.CatalogEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return domain.CatalogEntry{}, false
	}
	return m.entries[m.cursor], true
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("OCR languages"))
	b.WriteString("\n\n")

	switch m.mode {
	case modeFetching:
		fmt.Fprintf(&b, "%s Downloading language list...\n\n", m.spinner.View())
	case modeInstalling:
		fmt.Fprintf(&b, "Installing %s [%d/%d]\n%s\n\n", m.install.Code, m.install.Index, m.install.Total, m.progress.View())
	case modeFiltering:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	b.WriteString(renderTable(m.entries, m.cursor))
	b.WriteByte('\n')

	switch {
	case m.err != nil && !errors.Is(m.err, domain.ErrOperationCanceled):
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteByte('\n')
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
		b.WriteByte('\n')
	}
	b.WriteString(dimText.Render(m.helpLine()))
	return b.String()
}

func (m model) helpLine() string {
	var bindings []key.Binding
	switch m.mode {
	case modeInstalling:
		bindings = []key.Binding{keys.Cancel, keys.Quit}
	case modeFiltering:
		return "enter apply • esc clear"
	default:
		bindings = []key.Binding{keys.Up, keys.Down, keys.Mark, keys.Install, keys.Remove, keys.Refresh, keys.Filter, keys.Quit}
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
