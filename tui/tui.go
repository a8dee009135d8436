package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todomvc/app"
	"todomvc/model"
)

type uiMode int

const (
	modeNormal uiMode = iota
	modeAdd
	modeEdit
)

// StorageChangedMsg tells the model that the persisted snapshot changed
// outside this session.
type StorageChangedMsg struct{}

type Model struct {
	store *app.TodoStore

	keys  keyMap
	help  help.Model
	input textinput.Model

	mode   uiMode
	editID string
	cursor int

	status    string
	statusErr bool

	width  int
	height int
}

func NewModel(store *app.TodoStore, startupStatus string) *Model {
	status := strings.TrimSpace(startupStatus)
	if status == "" {
		status = "Ready"
	}

	input := textinput.New()
	input.Placeholder = "What needs to be done?"
	input.Prompt = "❯ "
	input.CharLimit = 500

	m := &Model{
		store:  store,
		keys:   defaultKeyMap(),
		help:   help.New(),
		input:  input,
		mode:   modeNormal,
		status: status,
	}
	if startupStatus == "" && store.Len() == 0 {
		m.setStatus("No todos yet. Press 'a' to add one.", false)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = m.viewportWidth()
		m.input.Width = clamp(m.viewportWidth()-8, 10, 200)
	case StorageChangedMsg:
		m.reload()
	case tea.KeyMsg:
		if m.mode != modeNormal {
			return m, m.updateInputMode(msg)
		}
		return m, m.updateNormalMode(msg)
	}
	return m, nil
}

func (m *Model) updateNormalMode(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.New):
		cmd = m.startAdd()
	case key.Matches(msg, m.keys.Edit):
		cmd = m.startEdit()
	case key.Matches(msg, m.keys.Toggle):
		m.toggleSelected()
	case key.Matches(msg, m.keys.Delete):
		m.deleteSelected()
	case key.Matches(msg, m.keys.ToggleAll):
		m.toggleAll()
	case key.Matches(msg, m.keys.ClearCompleted):
		m.clearCompleted()
	case key.Matches(msg, m.keys.CycleFilter):
		m.setFilter(m.store.Filter().Next())
	case key.Matches(msg, m.keys.FilterAll):
		m.setFilter(model.FilterAll)
	case key.Matches(msg, m.keys.FilterActive):
		m.setFilter(model.FilterActive)
	case key.Matches(msg, m.keys.FilterDone):
		m.setFilter(model.FilterCompleted)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case msg.String() == "esc":
		m.help.ShowAll = false
	}
	m.ensureSelection()
	return cmd
}

func (m *Model) updateInputMode(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.mode == modeEdit {
			m.store.CancelEditing(m.editID)
		}
		m.closeInput()
		m.setStatus("Cancelled", false)
		return nil
	case key.Matches(msg, m.keys.Submit):
		m.applyInput()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) applyInput() {
	text := strings.TrimSpace(m.input.Value())
	switch m.mode {
	case modeAdd:
		if text == "" {
			m.closeInput()
			m.setStatus("Nothing to add", false)
			return
		}
		item, _ := m.store.Add(text)
		m.closeInput()
		m.selectID(item.ID)
		m.persisted("Todo added")
	case modeEdit:
		id := m.editID
		m.closeInput()
		if text == "" {
			m.store.Delete(id)
			m.persisted("Empty todo removed")
			return
		}
		if !m.store.Update(id, text) {
			m.setStatus("Todo no longer exists", true)
			return
		}
		m.persisted("Todo updated")
	}
	m.ensureSelection()
}

func (m *Model) startAdd() tea.Cmd {
	m.mode = modeAdd
	m.input.Reset()
	m.input.Placeholder = "What needs to be done?"
	return m.input.Focus()
}

func (m *Model) startEdit() tea.Cmd {
	item, ok := m.selectedItem()
	if !ok {
		m.setStatus("No todo selected", false)
		return nil
	}
	m.store.SetEditing(item.ID)
	m.mode = modeEdit
	m.editID = item.ID
	m.input.SetValue(item.Content)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = modeNormal
	m.editID = ""
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) toggleSelected() {
	item, ok := m.selectedItem()
	if !ok {
		m.setStatus("No todo selected", false)
		return
	}
	m.store.ToggleComplete(item.ID)
	if item.Complete {
		m.persisted("Todo reopened")
	} else {
		m.persisted("Todo completed")
	}
}

func (m *Model) deleteSelected() {
	item, ok := m.selectedItem()
	if !ok {
		m.setStatus("No todo selected", false)
		return
	}
	m.store.Delete(item.ID)
	m.persisted(fmt.Sprintf("Deleted %q", truncateRunes(item.Content, 40)))
}

func (m *Model) toggleAll() {
	if m.store.Len() == 0 {
		m.setStatus("Nothing to toggle", false)
		return
	}
	m.store.ToggleAll()
	if len(m.store.ActiveItems()) == 0 {
		m.persisted("All todos completed")
	} else {
		m.persisted("All todos reopened")
	}
}

func (m *Model) clearCompleted() {
	n := m.store.ClearCompleted()
	if n == 0 {
		m.setStatus("No completed todos", false)
		return
	}
	m.persisted(fmt.Sprintf("Cleared %d completed", n))
}

func (m *Model) setFilter(f model.Filter) {
	current := m.selectedID()
	m.store.SetFilter(string(f))
	m.selectID(current)
	m.setStatus("Showing "+string(m.store.Filter()), false)
}

func (m *Model) reload() {
	current := m.selectedID()
	if !m.store.Reload() {
		return
	}
	if m.mode == modeEdit {
		if _, ok := m.store.Get(m.editID); !ok {
			m.closeInput()
		}
	}
	m.selectID(current)
	m.setStatus("Reloaded changes from storage", false)
}

// persisted reports the outcome of a mutation, surfacing write failures.
func (m *Model) persisted(success string) {
	m.ensureSelection()
	if err := m.store.SaveErr(); err != nil {
		m.setStatus("Change applied but saving failed: "+err.Error(), true)
		return
	}
	m.setStatus(success, false)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) moveCursor(delta int) {
	items := m.store.FilteredItems()
	if len(items) == 0 {
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(items)-1)
}

func (m *Model) ensureSelection() {
	n := len(m.store.FilteredItems())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, n-1)
}

func (m *Model) selectedItem() (model.TodoItem, bool) {
	items := m.store.FilteredItems()
	if m.cursor < 0 || m.cursor >= len(items) {
		return model.TodoItem{}, false
	}
	return items[m.cursor], true
}

func (m *Model) selectedID() string {
	item, ok := m.selectedItem()
	if !ok {
		return ""
	}
	return item.ID
}

// selectID moves the cursor to id when it is visible.
func (m *Model) selectID(id string) {
	for i, item := range m.store.FilteredItems() {
		if item.ID == id {
			m.cursor = i
			return
		}
	}
	m.ensureSelection()
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	viewW := m.viewportWidth()
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("168")).Render("todos")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
		Render(fmt.Sprintf("  %d total • filter: %s", m.store.Len(), m.store.Filter()))
	header := lipgloss.JoinHorizontal(lipgloss.Left, title, summary)

	frameColor := lipgloss.Color("240")
	if m.mode == modeNormal {
		frameColor = lipgloss.Color("39")
	}
	innerW := viewW - 2
	if innerW < 20 {
		innerW = viewW
	}
	listH := m.height - 8
	if listH < 3 {
		listH = 3
	}

	body := []string{m.renderNewTodo(innerW)}
	if m.store.Len() > 0 {
		body = append(body, m.renderItems(innerW, listH), m.renderTodoFooter(innerW))
	}
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(frameColor).
		Width(innerW).
		Render(strings.Join(body, "\n"))

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	if m.statusErr {
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
	statusLine := m.renderFooter(m.status, statusStyle, m.modeHint())

	var helpView string
	if m.mode == modeNormal {
		helpView = m.help.View(m.keys)
	} else {
		helpView = m.help.View(inputKeys{Submit: m.keys.Submit, Cancel: m.keys.Cancel})
	}

	return strings.Join([]string{header, panel, statusLine, helpView}, "\n")
}

func (m *Model) renderNewTodo(width int) string {
	if m.mode == modeAdd {
		return m.input.View()
	}
	hint := "❯ " + m.input.Placeholder
	return lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(truncateRunes(hint, width))
}

func (m *Model) renderItems(width, height int) string {
	items := m.store.FilteredItems()
	if len(items) == 0 {
		msg := fmt.Sprintf("No %s todos (press f to change filter)", strings.ToLower(string(m.store.Filter())))
		return lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(msg)
	}

	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := start + height
	if end > len(items) {
		end = len(items)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		t := items[i]
		selected := i == m.cursor

		cursor := " "
		if selected {
			cursor = "▸"
		}
		check := "[ ]"
		if t.Complete {
			check = "[x]"
		}

		if m.mode == modeEdit && t.ID == m.editID {
			lines = append(lines, cursor+" "+check+" "+m.input.View())
			continue
		}

		textStyle := lipgloss.NewStyle()
		if t.Complete {
			textStyle = textStyle.Faint(true).Strikethrough(true)
		}
		rowStyle := lipgloss.NewStyle()
		if selected && m.mode == modeNormal {
			rowStyle = rowStyle.Bold(true).Foreground(lipgloss.Color("229"))
		}

		text := truncateRunes(t.Content, width-7)
		line := lipgloss.JoinHorizontal(lipgloss.Left,
			rowStyle.Render(cursor+" "+check+" "),
			rowStyle.Inherit(textStyle).Render(text),
		)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// renderTodoFooter draws the count, the filter selector and "Clear completed".
func (m *Model) renderTodoFooter(width int) string {
	active := len(m.store.ActiveItems())
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	filters := make([]string, 0, len(model.Filters))
	for _, f := range model.Filters {
		if f == m.store.Filter() {
			filters = append(filters, lipgloss.NewStyle().Bold(true).Underline(true).Render(string(f)))
			continue
		}
		filters = append(filters, dim.Render(string(f)))
	}

	parts := []string{dim.Render(ItemsLeft(active)), strings.Join(filters, " ")}
	if showClearCompleted(active, m.store.Len()) {
		parts = append(parts, dim.Render("Clear completed"))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(parts, "   "))
}

func (m *Model) modeHint() string {
	switch m.mode {
	case modeAdd:
		return "new todo"
	case modeEdit:
		return "editing"
	}
	if m.help.ShowAll {
		return "?/esc close help"
	}
	return "? help"
}

func (m *Model) viewportWidth() int {
	if m.width <= 0 {
		return 1
	}
	// One spare column keeps the right border from wrapping in some terminals.
	if m.width > 1 {
		return m.width - 1
	}
	return m.width
}

func (m *Model) renderFooter(statusText string, statusStyle lipgloss.Style, rightHint string) string {
	left := strings.TrimSpace(statusText)
	right := strings.TrimSpace(rightHint)
	if left == "" {
		left = "Ready"
	}

	leftW := utf8.RuneCountInString(left)
	rightW := utf8.RuneCountInString(right)
	width := m.viewportWidth()

	if leftW+rightW+1 > width {
		maxLeft := width - rightW - 1
		if maxLeft < 8 {
			maxLeft = 8
		}
		left = truncateRunes(left, maxLeft)
		leftW = utf8.RuneCountInString(left)
	}

	padding := width - leftW - rightW
	if padding < 1 {
		padding = 1
	}

	rightStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	line := statusStyle.Render(left) + strings.Repeat(" ", padding) + rightStyle.Render(right)
	return lipgloss.NewStyle().Width(width).Render(line)
}

// ItemsLeft renders the active count, singular for zero and one.
func ItemsLeft(n int) string {
	if n <= 1 {
		return fmt.Sprintf("%d item left", n)
	}
	return fmt.Sprintf("%d items left", n)
}

func showClearCompleted(active, total int) bool {
	return active < total
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
