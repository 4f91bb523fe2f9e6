// Package view is the interactive terminal interface for exploring a scan
// while it runs.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/patrickmn/go-cache"

	"github.com/priyxstudio/burrow/filesystem"
	"github.com/priyxstudio/burrow/system"
)

// Source is a scan that can be explored.
type Source interface {
	Root() *filesystem.Node
	Progress() *filesystem.Progress
	Done() bool
}

// DoneMsg tells the model the scan has finished so it can stop polling.
type DoneMsg struct{}

type tickMsg time.Time

// Model is the bubbletea model of the explorer.
type Model struct {
	src     Source
	device  *system.DeviceUsage
	refresh time.Duration

	// listings memoises the sorted children of each directory between
	// refreshes. Once the scan is done nothing changes any more, so entries
	// are kept forever.
	listings *cache.Cache

	stack []*filesystem.Node
	rows  []*filesystem.Node
	table table.Model
	help  help.Model
	keys  keyMap

	frame  int
	done   bool
	files  uint64
	total  uint64
	width  int
	height int
}

// New returns a model exploring src, redrawing every refresh while the scan
// is running. The device may be nil when its usage is unknown.
func New(src Source, device *system.DeviceUsage, refresh time.Duration) *Model {
	if refresh <= 0 {
		refresh = 150 * time.Millisecond
	}
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	t.SetStyles(tableStyles())

	m := &Model{
		src:      src,
		device:   device,
		refresh:  refresh,
		listings: cache.New(refresh, 10*refresh),
		stack:    []*filesystem.Node{src.Root()},
		table:    t,
		help:     help.New(),
		keys:     defaultKeyMap(),
	}
	m.sync()
	return m
}

func columns(width int) []table.Column {
	usage, kind := 12, 14
	name := width - usage - kind - 8
	if name < 20 {
		name = 20
	}
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Disk Usage", Width: usage},
		{Title: "Type", Width: kind},
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return m.tick()
}

// Current returns the directory being shown.
func (m *Model) Current() *filesystem.Node {
	return m.stack[len(m.stack)-1]
}

// Selected returns the highlighted entry, or nil for an empty directory.
func (m *Model) Selected() *filesystem.Node {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return nil
	}
	return m.rows[i]
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.frame++
		m.sync()
		if m.done {
			return m, nil
		}
		return m, m.tick()

	case DoneMsg:
		m.sync()
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(3, msg.Height-12))
		return m, nil

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.table.MoveUp(1)
		case tea.MouseButtonWheelDown:
			m.table.MoveDown(1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Exit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			if !m.back() {
				return m, tea.Quit
			}
			return m, nil
		case key.Matches(msg, m.keys.Open):
			m.open()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// open descends into the selected entry when it is a directory.
func (m *Model) open() {
	sel := m.Selected()
	if sel == nil || !sel.IsDir() {
		return
	}
	m.stack = append(m.stack, sel)
	m.table.SetCursor(0)
	m.refreshRows()
}

// back returns to the parent directory and highlights the directory that was
// just left. It reports false when already at the root.
func (m *Model) back() bool {
	if len(m.stack) == 1 {
		return false
	}
	left := m.Current()
	m.stack = m.stack[:len(m.stack)-1]
	m.refreshRows()
	for i, n := range m.rows {
		if n == left {
			m.table.SetCursor(i)
			break
		}
	}
	return true
}

// sync reads the scan state. The listings are flushed once when the scan
// completes so the final sizes are picked up.
func (m *Model) sync() {
	if !m.done && m.src.Done() {
		m.done = true
		m.listings.Flush()
	}
	m.files = m.src.Progress().Files()
	m.total = m.src.Root().Aggregate()
	m.refreshRows()
}

func (m *Model) listing(n *filesystem.Node) []*filesystem.Node {
	if v, ok := m.listings.Get(n.Path()); ok {
		return v.([]*filesystem.Node)
	}
	children := n.SortedChildren()
	d := cache.DefaultExpiration
	if m.done {
		d = cache.NoExpiration
	}
	m.listings.Set(n.Path(), children, d)
	return children
}

func (m *Model) refreshRows() {
	var selected *filesystem.Node
	if s := m.Selected(); s != nil {
		selected = s
	}
	m.rows = m.listing(m.Current())

	rows := make([]table.Row, 0, len(m.rows))
	cursor := -1
	for i, n := range m.rows {
		name := n.Name()
		if n.IsDir() {
			name = fmt.Sprintf("%s/ (%d)", name, n.Len())
		}
		rows = append(rows, table.Row{name, humanize.IBytes(n.Aggregate()), n.Kind()})
		if n == selected {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	// Entries move around as their sizes grow; keep following the same one.
	if cursor >= 0 {
		m.table.SetCursor(cursor)
	}
}

func (m *Model) View() string {
	header := fmt.Sprintf("%s %s    %s %s",
		labelStyle.Render("Total Scanned Files:"), valueStyle.Render(humanize.Comma(int64(m.files))),
		labelStyle.Render("Total Disk Usage:"), valueStyle.Render(humanize.IBytes(m.total)))

	var status string
	if m.done {
		status = doneStyle.Render("Scanning Done") + "\n" + m.Current().Path()
	} else {
		dots := strings.Repeat(".", m.frame%4)
		status = titleStyle.Render("Scanning"+dots) + "\n" + m.src.Progress().Current()
	}
	box := boxStyle
	if m.width > 4 {
		box = box.Width(m.width - 2)
	}

	parts := []string{header, box.Render(status)}
	if d := m.device; d != nil {
		parts = append(parts, faintStyle.Render(fmt.Sprintf("Device: %s %s used of %s",
			strings.TrimSpace(d.Device+" "+d.Fstype), humanize.IBytes(d.UsedSpace), humanize.IBytes(d.TotalSpace))))
	}
	parts = append(parts, m.table.View())
	if sel := m.Selected(); sel != nil {
		parts = append(parts, selectedStyle.Render("Selected: "+sel.Path()))
	} else {
		parts = append(parts, faintStyle.Render("Selected: -"))
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
