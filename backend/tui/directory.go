package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/directory"
	"gitea.kood.tech/petrkubec/staff-directory/backend/mapview"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

type loadedMsg struct{ err error }

// DirectoryModel renders the employee directory.
type DirectoryModel struct {
	ctx       context.Context
	screen    *directory.Screen
	styles    Styles
	search    textinput.Model
	searching bool
	cursor    int
	filterIdx int // 0 means no filter
	width     int
	renderer  *glamour.TermRenderer
}

// NewDirectoryModel creates a directory model over s.
func NewDirectoryModel(ctx context.Context, s store.ProfileStore, logger *zap.Logger) DirectoryModel {
	ti := textinput.New()
	ti.Placeholder = "Search profiles..."
	ti.Prompt = "/ "

	r, _ := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(76))
	return DirectoryModel{
		ctx:      ctx,
		screen:   directory.NewScreen(s, logger),
		styles:   DefaultStyles(),
		search:   ti,
		width:    80,
		renderer: r,
	}
}

func (m DirectoryModel) Init() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.screen.Load(m.ctx)}
	}
}

func (m DirectoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case loadedMsg:
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen.State() {
		case directory.Loading:
			if msg.String() == "q" {
				return m, tea.Quit
			}
		case directory.DetailOpen:
			switch msg.String() {
			case "esc", "enter", "backspace", "q":
				_ = m.screen.Close()
			}
		case directory.Browsing:
			if m.searching {
				return m.updateSearch(msg)
			}
			return m.updateBrowsing(msg)
		}
	}
	return m, nil
}

func (m DirectoryModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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

func (m DirectoryModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
	case "f":
		interests := m.screen.Interests()
		m.filterIdx = (m.filterIdx + 1) % (len(interests) + 1)
		interest := ""
		if m.filterIdx > 0 {
			interest = interests[m.filterIdx-1]
		}
		_ = m.screen.SetInterest(interest)
		m.cursor = 0
	case "m":
		if m.cursor < len(rows) {
			_ = m.screen.ToggleMap(rows[m.cursor].ID)
		}
	case "enter":
		if m.cursor < len(rows) {
			_ = m.screen.Select(rows[m.cursor].ID)
		}
	}
	return m, nil
}

func (m DirectoryModel) View() string {
	v := m.screen.View()
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Employee Directory"))
	sb.WriteString("\n")

	if v.State == directory.Loading {
		sb.WriteString(v.Message + "\n")
		return sb.String()
	}
	if v.Detail != nil {
		sb.WriteString(m.renderDetail(*v.Detail))
		sb.WriteString(m.styles.Help.Render("esc close"))
		return sb.String()
	}

	sb.WriteString(m.search.View() + "\n")
	filter := "All interests"
	if v.Interest != "" {
		filter = v.Interest
	}
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("Filter: %s  Sort: %s", filter, v.SortLabel)))
	sb.WriteString("\n\n")

	if v.Empty {
		sb.WriteString(m.styles.Muted.Render(v.Message) + "\n")
	}
	for i, c := range v.Cards {
		line := fmt.Sprintf("%-24s %-16s %s", truncate(c.Name, 24), truncate(c.Interest, 16), truncate(c.Description, max(m.width-46, 12)))
		if i == m.cursor {
			sb.WriteString(m.styles.Selected.Render("> " + line))
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
		if c.Map != nil {
			sb.WriteString(m.styles.Muted.Render("    map: "+c.Map.EmbedURL) + "\n")
		}
	}
	sb.WriteString(m.styles.Help.Render("/ search  f filter  s sort  m map  enter details  q quit"))
	return sb.String()
}

func (m DirectoryModel) renderDetail(d directory.Detail) string {
	md := detailMarkdown(d.Profile, d.Map)
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

func detailMarkdown(p profile.Profile, w *mapview.Widget) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", p.Name)
	if p.PhotographURL != "" {
		fmt.Fprintf(&sb, "![%s](%s)\n\n", p.Name, p.PhotographURL)
	}
	fmt.Fprintf(&sb, "%s\n\n", p.Description)
	fmt.Fprintf(&sb, "**Contact:** %s\n\n", p.ContactInfo)
	fmt.Fprintf(&sb, "**Interests:** %s\n\n", p.Interest)
	if w != nil {
		fmt.Fprintf(&sb, "**Location:** %s, %s ([map](%s))\n", p.Latitude, p.Longitude, w.EmbedURL)
	}
	return sb.String()
}
