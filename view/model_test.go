package view

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priyxstudio/burrow/filesystem"
	"github.com/priyxstudio/burrow/internal/pool"
	"github.com/priyxstudio/burrow/system"
)

func init() {
	log.SetHandler(discard.New())
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	dir := t.TempDir()
	files := map[string]int{
		"a/one.bin":       256 * 1024,
		"a/inner/two.bin": 8 * 1024,
		"b/three.bin":     64 * 1024,
		"c.txt":           10,
	}
	for name, size := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, bytes.Repeat([]byte{'x'}, size), 0o644))
	}

	p := pool.New(2)
	t.Cleanup(p.Stop)
	s := filesystem.NewScanner(p)
	_, err := s.Start(dir)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))

	return New(s, &system.DeviceUsage{Device: "/dev/test", Fstype: "ext4", TotalSpace: 1 << 30, UsedSpace: 1 << 20}, 10*time.Millisecond)
}

func press(m *Model, msg tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_ListsChildrenBySize(t *testing.T) {
	m := newTestModel(t)

	require.Len(t, m.rows, 3)
	assert.Equal(t, "a", m.rows[0].Name())
	assert.Equal(t, "b", m.rows[1].Name())
	assert.Equal(t, "c.txt", m.rows[2].Name())
	assert.Equal(t, "a", m.Selected().Name())
	assert.Equal(t, uint64(4), m.files)
	assert.True(t, m.done)
}

func TestModel_OpenAndBack(t *testing.T) {
	m := newTestModel(t)
	root := m.Current()

	press(m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "b", m.Selected().Name())

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "b", m.Current().Name())
	assert.Equal(t, "three.bin", m.Selected().Name())

	// Going back selects the directory that was just left.
	assert.False(t, isQuit(press(m, runes("q"))))
	assert.Same(t, root, m.Current())
	assert.Equal(t, "b", m.Selected().Name())

	press(m, runes("o"))
	assert.Equal(t, "b", m.Current().Name())
}

func TestModel_OpenIgnoresFiles(t *testing.T) {
	m := newTestModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyDown})
	press(m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "c.txt", m.Selected().Name())

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, m.src.Root(), m.Current())
}

func TestModel_Exit(t *testing.T) {
	m := newTestModel(t)
	assert.True(t, isQuit(press(m, runes("q"))), "q at the root exits")

	m = newTestModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, isQuit(press(m, tea.KeyMsg{Type: tea.KeyEsc})), "esc exits from anywhere")
	assert.True(t, isQuit(press(m, tea.KeyMsg{Type: tea.KeyCtrlC})))
}

func TestModel_HelpToggle(t *testing.T) {
	m := newTestModel(t)
	assert.False(t, m.help.ShowAll)
	press(m, runes("h"))
	assert.True(t, m.help.ShowAll)
	press(m, runes("h"))
	assert.False(t, m.help.ShowAll)
}

func TestModel_MouseWheel(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Equal(t, "b", m.Selected().Name())
	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	assert.Equal(t, "a", m.Selected().Name())
}

func TestModel_TickStopsWhenDone(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tickMsg(time.Now()))
	assert.Nil(t, cmd)
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	out := m.View()
	assert.Contains(t, out, "Total Scanned Files:")
	assert.Contains(t, out, "Total Disk Usage:")
	assert.Contains(t, out, "Scanning Done")
	assert.Contains(t, out, "/dev/test ext4")
	assert.Contains(t, out, "a/ (2)")
	assert.Contains(t, out, "Selected: "+m.Selected().Path())
}
