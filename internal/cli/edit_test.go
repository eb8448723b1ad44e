package cli

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/flowgrid/flowgrid/pkg/editor"
	"github.com/flowgrid/flowgrid/pkg/wire"
)

func newTestEditModel(t *testing.T) editModel {
	t.Helper()
	ed, err := editor.New(editor.DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatalf("editor.New: %v", err)
	}
	return newEditModel(ed, filepath.Join(t.TempDir(), "diagram.json"))
}

func press(m editModel, key string) editModel {
	var msg tea.Msg
	switch key {
	case "up", "down", "esc":
		msg = tea.KeyMsg{Type: keyType(key)}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(editModel)
}

func keyType(key string) tea.KeyType {
	switch key {
	case "up":
		return tea.KeyUp
	case "down":
		return tea.KeyDown
	case "esc":
		return tea.KeyEsc
	}
	return tea.KeyRunes
}

func TestEditModelAddAndDelete(t *testing.T) {
	m := newTestEditModel(t)

	m = press(m, "a")
	m = press(m, "a")
	if got := len(m.nodes()); got != 2 {
		t.Fatalf("nodes = %d, want 2", got)
	}
	if !m.dirty {
		t.Error("adding did not mark the model dirty")
	}

	m = press(m, "x")
	if got := len(m.nodes()); got != 1 {
		t.Errorf("nodes after delete = %d, want 1", got)
	}
}

func TestEditModelConnectFlow(t *testing.T) {
	m := newTestEditModel(t)
	m = press(m, "a")
	m = press(m, "a")

	m = press(m, "c") // mark first node as source
	if m.connectFr == "" {
		t.Fatal("no connection source marked")
	}
	m = press(m, "down")
	m = press(m, "c") // connect to second node

	ids := m.nodes()
	if !m.editor.Store().Connected(ids[0], ids[1], "output_1", "input_1") {
		t.Error("connection not created")
	}
	if m.connectFr != "" {
		t.Error("connect source not cleared")
	}
}

func TestEditModelEscCancelsConnect(t *testing.T) {
	m := newTestEditModel(t)
	m = press(m, "a")
	m = press(m, "c")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(editModel)
	if cmd != nil {
		t.Error("esc during connect should not quit")
	}
	if m.connectFr != "" {
		t.Error("connect source survived esc")
	}
}

func TestEditModelMoveNode(t *testing.T) {
	m := newTestEditModel(t)
	m = press(m, "a")
	id := m.nodes()[0]
	n, _ := m.editor.Store().Node(id)
	startX := n.Pos.X

	m = press(m, "L")
	n, _ = m.editor.Store().Node(id)
	if n.Pos.X != startX+nodeStep {
		t.Errorf("pos.X = %v, want %v", n.Pos.X, startX+nodeStep)
	}
}

func TestEditModelSaveWritesFile(t *testing.T) {
	m := newTestEditModel(t)
	m = press(m, "a")
	m = press(m, "s")

	if m.dirty {
		t.Error("save did not clear the dirty flag")
	}
	snap, err := wire.ImportFile(m.path)
	if err != nil {
		t.Fatalf("saved file unreadable: %v", err)
	}
	if len(snap.Graph) == 0 {
		t.Error("saved snapshot is empty")
	}
}

func TestEditModelViewListsNodes(t *testing.T) {
	m := newTestEditModel(t)
	m = press(m, "a")
	m = press(m, "a")

	view := m.View()
	if !strings.Contains(view, "node 1") || !strings.Contains(view, "node 2") {
		t.Errorf("view missing nodes:\n%s", view)
	}
}
