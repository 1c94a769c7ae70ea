package cli

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/scout-go/internal/episode"
)

// Theme holds the color scheme for the live research display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Tool    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Tool:    lipgloss.Color("#AF87FF"), // purple
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) toolStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Tool)
}

// maxActivityLines caps the visible tool activity log.
const maxActivityLines = 6

// eventMsg carries one episode event into the UI loop.
type eventMsg struct {
	event episode.Event
}

// streamDoneMsg signals that the event stream closed.
type streamDoneMsg struct{}

// researchModel is the bubbletea model for a live research episode.
type researchModel struct {
	spinner   spinner.Model
	theme     Theme
	episodeID string
	status    string
	activity  []string
	text      string
	noteID    string
	done      bool
	quitting  bool
	err       error
}

func newResearchModel() researchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return researchModel{
		spinner: sp,
		theme:   defaultTheme,
		status:  "starting",
	}
}

// Init returns the initial command (start the spinner).
func (m researchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and returns the updated model.
func (m researchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case eventMsg:
		m.apply(msg.event)
		return m, nil

	case streamDoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// apply folds one episode event into the display state.
func (m *researchModel) apply(e episode.Event) {
	switch e.Type {
	case episode.EventEpisodeCreated:
		m.episodeID = e.EpisodeID
	case episode.EventStatus:
		m.status = e.Status
	case episode.EventPartial:
		m.text += e.Text
	case episode.EventToolCall:
		m.addActivity(m.theme.toolStyle().Render("⚙ " + e.Tool))
	case episode.EventSearchResults:
		for _, r := range e.Results {
			m.addActivity(m.theme.hintStyle().Render("  " + r.URL))
		}
	case episode.EventLearningExtracted:
		for _, l := range e.Learnings {
			m.addActivity("  " + l)
		}
	case episode.EventNoteCreated:
		m.noteID = e.NoteID
	case episode.EventError:
		m.err = fmt.Errorf("%s", e.Error)
	}
}

func (m *researchModel) addActivity(line string) {
	m.activity = append(m.activity, line)
	if len(m.activity) > maxActivityLines {
		m.activity = m.activity[len(m.activity)-maxActivityLines:]
	}
}

// View renders the live display.
func (m researchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m researchModel) renderContent() string {
	if m.done || m.err != nil {
		return m.finalView()
	}

	var b strings.Builder
	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.status))
	fmt.Fprintf(&b, "%s %s episode %s\n", m.spinner.View(), status, m.episodeID)

	for _, line := range m.activity {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString(m.theme.hintStyle().Render("Press Ctrl+C to stop watching (the episode keeps running)"))
	b.WriteByte('\n')
	return b.String()
}

// finalView renders the completion message plus the accumulated findings.
func (m researchModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render(
			fmt.Sprintf("\nEpisode %s continues in background.\n", m.episodeID))
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Episode failed: %s\n", m.err))
	}

	var b strings.Builder
	b.WriteString(m.theme.completedStyle().Render("✓ Research complete") + "\n\n")
	if text := strings.TrimSpace(m.text); text != "" {
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	if m.noteID != "" {
		fmt.Fprintf(&b, "  Note saved:  %s\n", m.noteID)
	}
	fmt.Fprintf(&b, "  Episode:     %s\n", m.episodeID)
	return b.String()
}

// runResearchUI runs the interactive display over an episode's event stream.
// Returns an error if the episode failed.
func runResearchUI(events <-chan episode.Event) error {
	p := tea.NewProgram(newResearchModel())

	go func() {
		for e := range events {
			p.Send(eventMsg{event: e})
		}
		p.Send(streamDoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(researchModel); ok {
		// Quitting early leaves the episode running in background - not an error
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}
