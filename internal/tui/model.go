package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wishlist/internal/mirror"
	"wishlist/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// RefreshMsg asks the view to redraw after the mirror changed on its own,
// e.g. when the error banner expires.
type RefreshMsg struct{}

type loadedMsg struct{ err error }

type settledMsg struct {
	id  int64
	err error
}

type createdMsg struct {
	item model.Item
	err  error
}

type mode int

const (
	modeBrowse mode = iota
	modeAddName
	modeAddLink
	modeEditName
	modeEditLink
)

type keyMap struct {
	Up, Down, Toggle, Delete, Add, Edit, Filter, Dismiss, Reload, Quit key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "bought")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss error")),
	Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Model is the Bubble Tea model for the wishlist screen. All item state lives
// in the mirror; the model only tracks the cursor, the filter and input mode.
type Model struct {
	mirror  *mirror.Mirror
	timeout time.Duration

	filter model.Filter
	cursor int
	mode   mode
	notice string // local hint, never from the store

	input   textinput.Model
	draft   model.Draft
	editID  int64
	spinner spinner.Model
}

func New(m *mirror.Mirror, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	return Model{
		mirror:  m,
		timeout: timeout,
		filter:  model.FilterAll,
		input:   ti,
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m Model) Filter() model.Filter { return m.filter }

// Selected returns the item under the cursor in the current filtered view.
func (m Model) Selected() (model.Item, bool) {
	items := m.mirror.Items(m.filter)
	if m.cursor < 0 || m.cursor >= len(items) {
		return model.Item{}, false
	}
	return items[m.cursor], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case RefreshMsg, loadedMsg, settledMsg, createdMsg:
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, keys.Filter):
		m.filter = m.filter.Next()
		m.clampCursor()
	case key.Matches(msg, keys.Dismiss):
		m.mirror.DismissError()
	case key.Matches(msg, keys.Reload):
		return m, m.load()
	case key.Matches(msg, keys.Toggle):
		if it, ok := m.Selected(); ok {
			return m.begin(m.mirror.BeginToggle(it.ID))
		}
	case key.Matches(msg, keys.Delete):
		if it, ok := m.Selected(); ok {
			return m.begin(m.mirror.BeginDelete(it.ID))
		}
	case key.Matches(msg, keys.Add):
		m.draft = model.Draft{}
		return m.prompt(modeAddName, "", "What do you want?")
	case key.Matches(msg, keys.Edit):
		if it, ok := m.Selected(); ok {
			m.editID = it.ID
			m.draft = model.Draft{Name: it.Name, Link: it.Link}
			return m.prompt(modeEditName, it.Name, "Item name")
		}
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.notice = ""
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		return m.submitInput()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case modeAddName, modeEditName:
		if value == "" {
			m.notice = "Name cannot be empty"
			return m, nil
		}
		m.notice = ""
		m.draft.Name = value
		next := modeAddLink
		if m.mode == modeEditName {
			next = modeEditLink
		}
		return m.prompt(next, m.draft.Link, "Link (optional)")

	case modeAddLink:
		m.draft.Link = value
		m.mode = modeBrowse
		m.input.Blur()
		return m, m.create(m.draft)

	case modeEditLink:
		m.mode = modeBrowse
		m.input.Blur()
		p := model.SetName(m.draft.Name).Merge(model.SetLink(value))
		return m.begin(m.mirror.BeginUpdate(m.editID, p))
	}
	return m, nil
}

func (m Model) prompt(next mode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = next
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = placeholder
	cmd := m.input.Focus()
	return m, cmd
}

// begin finishes the optimistic half of a change synchronously, so the next
// View already shows it, and hands the store round trip to a command.
func (m Model) begin(mu *mirror.Mutation, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		if errors.Is(err, mirror.ErrInFlight) {
			m.notice = "Still saving the previous change to this item"
		} else {
			m.notice = err.Error()
		}
		return m, nil
	}
	m.clampCursor()
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		_, err := mu.Commit(ctx)
		return settledMsg{id: mu.ID(), err: err}
	}
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return loadedMsg{err: m.mirror.Load(ctx)}
	}
}

func (m Model) create(d model.Draft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		it, err := m.mirror.Create(ctx, d)
		return createdMsg{item: it, err: err}
	}
}

func (m *Model) clampCursor() {
	n := len(m.mirror.Items(m.filter))
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	var b strings.Builder

	all := m.mirror.Items(model.FilterAll)
	bought := len(model.FilterPurchased.Apply(all))
	fmt.Fprintf(&b, "%s   %s %d  %s %d  %s %d\n",
		titleStyle.Render("Wishlist"),
		successStyle.Render("✔"), bought,
		pendingStyle.Render("•"), len(all)-bought,
		accentStyle.Render("Total"), len(all))
	b.WriteString(subtitleStyle.Render("Add what you want to buy!"))
	b.WriteString("\n\n")

	if msg := m.mirror.Error(); msg != "" {
		b.WriteString(bannerStyle.Render("✖ " + msg))
		b.WriteString("\n\n")
	}

	if m.mirror.Loading() {
		b.WriteString(m.spinner.View() + " Loading...\n")
		return panelStyle.Render(b.String())
	}

	b.WriteString(m.filterBar())
	b.WriteString("\n\n")
	b.WriteString(m.listView())

	if m.mirror.Submitting() {
		b.WriteString("\n" + m.spinner.View() + " Adding...")
	}
	if m.mode != modeBrowse {
		b.WriteString("\n" + m.inputView())
	}
	if m.notice != "" {
		b.WriteString("\n" + pendingStyle.Render(m.notice))
	}
	b.WriteString("\n" + helpStyle.Render(m.helpLine()))
	return panelStyle.Render(b.String())
}

func (m Model) filterBar() string {
	parts := make([]string, 0, 3)
	for _, f := range []model.Filter{model.FilterAll, model.FilterUnpurchased, model.FilterPurchased} {
		if f == m.filter {
			parts = append(parts, filterOnStyle.Render(f.Label()))
		} else {
			parts = append(parts, filterOffStyle.Render(f.Label()))
		}
	}
	return strings.Join(parts, mutedStyle.Render(" | "))
}

func (m Model) listView() string {
	items := m.mirror.Items(m.filter)
	if len(items) == 0 {
		return mutedStyle.Render("Your wishlist is empty. Add the first item!") + "\n"
	}

	var b strings.Builder
	for i, it := range items {
		box, name := mutedStyle.Render(boxUnchecked), it.Name
		if it.Purchased {
			box, name = successStyle.Render(boxChecked), doneStyle.Render(it.Name)
		}
		line := box + " " + name
		if it.Link != "" {
			line += "  " + linkStyle.Render(it.Link)
		}
		if m.mirror.StateOf(it.ID) == mirror.Pending {
			line += " " + pendingStyle.Render("…")
		}

		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render(">") + " "
		}
		b.WriteString(prefix + line + "\n")
	}
	return b.String()
}

func (m Model) inputView() string {
	title := "Add new item"
	if m.mode == modeEditName || m.mode == modeEditLink {
		title = "Edit item"
	}
	return panelStyle.Render(title + "\n" + m.input.View())
}

func (m Model) helpLine() string {
	if m.mode != modeBrowse {
		return "enter confirm • esc cancel"
	}
	bindings := []key.Binding{keys.Up, keys.Down, keys.Toggle, keys.Add, keys.Edit, keys.Delete, keys.Filter, keys.Dismiss, keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
