package audit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/applyhawk/applyhawk/internal/llm"
)

// Lines per entry in the list view (time line + usage subtitle + blank separator).
const entryItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	entryTitleStyle = lipgloss.NewStyle().
			Bold(true)

	entrySubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedEntryTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedEntrySubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	sectionDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	sectionBodyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))
)

type auditModel struct {
	modelName     string
	entries       []llm.LogEntry
	listViewport  viewport.Model
	sideViewport  viewport.Model
	activePane    int // 0=list, 1=side detail
	cursor        int
	width         int
	height        int
	ready         bool

	view           viewState
	detailViewport viewport.Model

	wantQuit bool
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m auditModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		if m.activePane == 0 {
			m.cursor = clamp(m.cursor-1, 0, max(len(m.entries)-1, 0))
			m.recalcContent()
			m.ensureCursorVisible()
			return m, nil
		}
	case "down", "j":
		if m.activePane == 0 {
			m.cursor = clamp(m.cursor+1, 0, max(len(m.entries)-1, 0))
			m.recalcContent()
			m.ensureCursorVisible()
			return m, nil
		}
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.listViewport, cmd = m.listViewport.Update(msg)
	} else {
		m.sideViewport, cmd = m.sideViewport.Update(msg)
	}
	return m, cmd
}

func (m auditModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m auditModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.entries) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *auditModel) ensureCursorVisible() {
	cursorTop := m.cursor * entryItemHeight
	cursorBottom := cursorTop + entryItemHeight - 1

	if cursorTop < m.listViewport.YOffset {
		m.listViewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(cursorBottom - m.listViewport.Height + 1)
	}
}

func (m *auditModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(paneWidth, paneHeight)
		m.sideViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.listViewport.Width = paneWidth
		m.listViewport.Height = paneHeight
		m.sideViewport.Width = paneWidth
		m.sideViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *auditModel) recalcContent() {
	m.listViewport.SetContent(renderEntries(m.entries, m.cursor, m.activePane == 0))
	m.sideViewport.SetContent(m.renderDetail())
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m auditModel) viewList() string {
	paneWidth := m.listViewport.Width

	leftHeader := fmt.Sprintf(" Calls (%d)", len(m.entries))
	rightHeader := " Detail"

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.listViewport.View())
	rightPane := rightBorder.Render(m.sideViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	var totalTokens int
	var totalCost float64
	for _, e := range m.entries {
		totalTokens += e.TotalTokens
		totalCost += e.TotalCost
	}
	statusText := fmt.Sprintf(" %s | %d calls | %d tokens | $%.6f    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		m.modelName, len(m.entries), totalTokens, totalCost)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m auditModel) viewDetail() string {
	title := detailTitleStyle.Render("Call Details")

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusText := " esc/backspace back  ↑/↓ scroll  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m auditModel) renderDetail() string {
	if len(m.entries) == 0 {
		return "  (no calls)"
	}
	e := m.entries[m.cursor]

	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Model", e.Model)
	addField("Time", e.Time)
	addField("Input Tokens", fmt.Sprintf("%d", e.InputTokens))
	addField("Output Tokens", fmt.Sprintf("%d", e.OutputTokens))
	addField("Total Tokens", fmt.Sprintf("%d", e.TotalTokens))
	addField("Cost", fmt.Sprintf("$%.6f", e.TotalCost))

	wrapWidth := m.detailWrapWidth()
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return sectionDividerStyle.Render(label + fill)
	}

	b.WriteByte('\n')
	b.WriteString(divider("── Prompts ") + "\n\n")
	for _, line := range promptLines(e.Prompts) {
		b.WriteString(sectionBodyStyle.Render(wordWrap(line, wrapWidth)) + "\n\n")
	}

	b.WriteString(divider("── Reply ") + "\n\n")
	b.WriteString(sectionBodyStyle.Render(wordWrap(e.Replies, wrapWidth)) + "\n")

	return b.String()
}

func (m auditModel) detailWrapWidth() int {
	if m.view == viewDetail {
		return max(m.width-8, 20)
	}
	return max(m.sideViewport.Width-2, 20)
}

func renderEntries(entries []llm.LogEntry, cursor int, isActive bool) string {
	if len(entries) == 0 {
		return "  (no calls)"
	}

	var b strings.Builder
	for i, e := range entries {
		isSelected := isActive && i == cursor

		titleSt := entryTitleStyle
		subtitleSt := entrySubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedEntryTitleStyle
			subtitleSt = selectedEntrySubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(e.Time))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %d tok · $%.6f", e.Model, e.TotalTokens, e.TotalCost)))
		b.WriteByte('\n')

		if i < len(entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RunCallLogTUI shows the split-pane browser over the given entries.
// Returns true when the user quit outright, false to go back to the picker.
func RunCallLogTUI(modelName string, entries []llm.LogEntry) (bool, error) {
	sortEntriesNewestFirst(entries)

	m := auditModel{
		modelName: modelName,
		entries:   entries,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(auditModel)
	return final.wantQuit, nil
}
