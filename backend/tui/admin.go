package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/admin"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

type (
	submittedMsg struct{ err error }
	deletedMsg   struct{ err error }
)

// AdminModel renders the admin panel: a sortable table and the add/edit form.
type AdminModel struct {
	ctx       context.Context
	screen    *admin.Screen
	styles    Styles
	search    textinput.Model
	searching bool
	cursor    int
	inputs    []textinput.Model
	focus     int
	notice    *admin.Notice
}

// NewAdminModel creates an admin model over s.
func NewAdminModel(ctx context.Context, s store.ProfileStore, logger *zap.Logger) AdminModel {
	ti := textinput.New()
	ti.Placeholder = "Search by name..."
	ti.Prompt = "/ "

	inputs := make([]textinput.Model, len(profile.Fields))
	for i, f := range profile.Fields {
		in := textinput.New()
		in.Placeholder = profile.Label(f)
		in.Prompt = ""
		in.CharLimit = 512
		inputs[i] = in
	}
	return AdminModel{
		ctx:    ctx,
		screen: admin.NewScreen(s, logger),
		styles: DefaultStyles(),
		search: ti,
		inputs: inputs,
	}
}

func (m AdminModel) Init() tea.Cmd {
	return m.load
}

func (m AdminModel) load() tea.Msg {
	return loadedMsg{err: m.screen.Load(m.ctx)}
}

func (m AdminModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg, deletedMsg:
		m.takeNotice()
		m.clampCursor()
		return m, nil
	case submittedMsg:
		m.takeNotice()
		if m.screen.State() == admin.Browsing {
			m.resetInputs()
		}
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen.State() == admin.FormOpen {
			return m.updateForm(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m AdminModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	_ = m.screen.SetSearch(m.search.Value())
	m.cursor = 0
	return m, cmd
}

func (m AdminModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.screen.Rows()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "s":
		_ = m.screen.ToggleSortOrder()
	case "r":
		return m, m.load
	case "a":
		if err := m.screen.OpenCreate(); err == nil {
			m.notice = nil
			m.fillInputs(profile.Profile{})
			return m, m.inputs[0].Focus()
		}
	case "e", "enter":
		if m.cursor < len(rows) {
			if err := m.screen.OpenEdit(rows[m.cursor].ID); err == nil {
				m.notice = nil
				m.fillInputs(rows[m.cursor])
				return m, m.inputs[0].Focus()
			}
		}
	case "d":
		if m.cursor < len(rows) {
			id := rows[m.cursor].ID
			return m, func() tea.Msg {
				return deletedMsg{err: m.screen.Delete(m.ctx, id)}
			}
		}
	}
	return m, nil
}

func (m AdminModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The draft is frozen until the store answers
	if f := m.screen.View().Form; f != nil && f.Submitting {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEsc:
		_ = m.screen.Cancel()
		m.resetInputs()
		return m, nil
	case tea.KeyCtrlS:
		return m, m.submit
	case tea.KeyTab, tea.KeyDown:
		return m, m.moveFocus(1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.moveFocus(-1)
	case tea.KeyEnter:
		if m.focus == len(m.inputs)-1 {
			return m, m.submit
		}
		return m, m.moveFocus(1)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	_ = m.screen.SetField(profile.Fields[m.focus], m.inputs[m.focus].Value())
	return m, cmd
}

func (m AdminModel) submit() tea.Msg {
	return submittedMsg{err: m.screen.Submit(m.ctx)}
}

func (m *AdminModel) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m *AdminModel) fillInputs(p profile.Profile) {
	for i, f := range profile.Fields {
		v, _ := p.Get(f)
		m.inputs[i].SetValue(v)
		m.inputs[i].Blur()
	}
	m.focus = 0
}

func (m *AdminModel) resetInputs() {
	m.fillInputs(profile.Profile{})
}

func (m *AdminModel) takeNotice() {
	if n, ok := m.screen.TakeNotice(); ok {
		m.notice = &n
	}
}

func (m *AdminModel) clampCursor() {
	if n := len(m.screen.Rows()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m AdminModel) View() string {
	v := m.screen.View()
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Admin Panel"))
	sb.WriteString("\n")

	if m.notice != nil {
		style := m.styles.Notice
		if m.notice.Error {
			style = m.styles.Error
		}
		sb.WriteString(style.Render(m.notice.Text) + "\n\n")
	}

	if v.Form != nil {
		sb.WriteString(m.formView(*v.Form))
		return sb.String()
	}

	sb.WriteString(m.search.View() + "\n")
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("Sort by name: %s  Total Profiles: %d", v.SortLabel, v.Total)))
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Header.Render(fmt.Sprintf("  %-24s %-16s %-28s", "Name", "Interest", "Contact Info")))
	sb.WriteString("\n")
	for i, p := range v.Rows {
		line := fmt.Sprintf("%-24s %-16s %-28s", truncate(p.Name, 24), truncate(p.Interest, 16), truncate(p.ContactInfo, 28))
		if i == m.cursor {
			sb.WriteString(m.styles.Selected.Render("> " + line))
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Help.Render("/ search  s sort  a add  e edit  d delete  r reload  q quit"))
	return sb.String()
}

func (m AdminModel) formView(f admin.Form) string {
	var sb strings.Builder
	title := "Add Profile"
	if f.Mode == admin.Edit {
		title = "Edit Profile"
	}
	sb.WriteString(m.styles.Header.Render(title) + "\n\n")
	for i, field := range profile.Fields {
		label := m.styles.Label.Render(profile.Label(field))
		if field == f.FieldError {
			label = m.styles.Error.Render(m.styles.Label.Render(profile.Label(field)))
		}
		sb.WriteString(label + " " + m.inputs[i].View() + "\n")
	}
	if f.Submitting {
		sb.WriteString("\n" + m.styles.Muted.Render("Saving...") + "\n")
	}
	sb.WriteString(m.styles.Help.Render("tab next  enter on last field or ctrl+s save  esc cancel"))
	return sb.String()
}
