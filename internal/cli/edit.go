package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/flowgrid/flowgrid/pkg/editor"
	"github.com/flowgrid/flowgrid/pkg/flow"
	"github.com/flowgrid/flowgrid/pkg/wire"
)

// newEditCmd creates the edit command opening a diagram in the terminal.
func newEditCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [file]",
		Short: "Open a diagram in the terminal editor",
		Long: `Open a diagram JSON file in an interactive terminal editor.
The file is created on first save if it does not exist.

Keys:
  a         add a node
  x         delete the node under the cursor
  c         connect: mark the cursor node as source, then pick a target
  ↑/↓, j/k  move the cursor
  H/J/K/L   shift the cursor node on the canvas
  s         save
  q         quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			return runEdit(cfg, args[0])
		},
	}
}

func runEdit(cfg Config, path string) error {
	ed, err := editor.New(cfg.Editor, nil, nil)
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(path); statErr == nil {
		snap, err := wire.ImportFile(path)
		if err != nil {
			return err
		}
		if err := ed.Import(snap); err != nil {
			return err
		}
	}

	m := newEditModel(ed, path)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(editModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

// =============================================================================
// editModel - interactive diagram editing
// =============================================================================

// nodeStep is the canvas distance one shift keypress moves a node.
const nodeStep = 20.0

// editModel is the bubbletea model for diagram editing.
type editModel struct {
	editor *editor.Editor
	path   string

	cursor    int
	connectFr string // node marked as connection source, "" when none
	status    string
	dirty     bool
	err       error
}

func newEditModel(ed *editor.Editor, path string) editModel {
	return editModel{editor: ed, path: path, status: "ready"}
}

func (m editModel) Init() tea.Cmd { return nil }

// nodes returns the active module's node ids in stable order.
func (m editModel) nodes() []string {
	return m.editor.Store().NodeIDs(m.editor.ActiveModule())
}

func (m editModel) cursorNode() (string, bool) {
	ids := m.nodes()
	if m.cursor < 0 || m.cursor >= len(ids) {
		return "", false
	}
	return ids[m.cursor], true
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		if m.connectFr != "" {
			m.connectFr = ""
			m.status = "connect cancelled"
			return m, nil
		}
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.nodes())-1 {
			m.cursor++
		}

	case "a":
		id, err := m.editor.AddNode(flow.NodeSpec{
			Name:    fmt.Sprintf("node %d", len(m.nodes())+1),
			Inputs:  1,
			Outputs: 1,
			Pos:     flow.Position{X: float64(len(m.nodes())) * 40, Y: float64(len(m.nodes())) * 30},
		})
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = "added " + id
		m.dirty = true

	case "x":
		id, ok := m.cursorNode()
		if !ok {
			return m, nil
		}
		m.editor.RemoveNode(id)
		if m.cursor >= len(m.nodes()) && m.cursor > 0 {
			m.cursor--
		}
		m.status = "removed " + id
		m.dirty = true

	case "c":
		id, ok := m.cursorNode()
		if !ok {
			return m, nil
		}
		if m.connectFr == "" {
			m.connectFr = id
			m.status = "connecting from " + id + ", pick a target and press c"
			return m, nil
		}
		if err := m.editor.Connect(m.connectFr, id, "output_1", "input_1"); err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("connected %s -> %s", m.connectFr, id)
			m.dirty = true
		}
		m.connectFr = ""

	case "H", "J", "K", "L":
		id, ok := m.cursorNode()
		if !ok {
			return m, nil
		}
		n, _ := m.editor.Store().Node(id)
		pos := n.Pos
		switch key.String() {
		case "H":
			pos.X -= nodeStep
		case "L":
			pos.X += nodeStep
		case "K":
			pos.Y -= nodeStep
		case "J":
			pos.Y += nodeStep
		}
		if err := m.editor.MoveNode(id, pos); err == nil {
			m.dirty = true
		}

	case "s":
		if err := wire.ExportFile(m.editor.Export(), m.path); err != nil {
			m.status = err.Error()
			m.err = err
			return m, nil
		}
		m.status = "saved " + m.path
		m.dirty = false
	}

	return m, nil
}

func (m editModel) View() string {
	var b strings.Builder

	title := m.path
	if m.dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render("flowgrid " + title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("a add  x delete  c connect  H/J/K/L move  s save  q quit"))
	b.WriteString("\n\n")

	ids := m.nodes()
	if len(ids) == 0 {
		b.WriteString(StyleDim.Render("  (empty diagram, press a to add a node)"))
		b.WriteString("\n")
	}
	for i, id := range ids {
		n, ok := m.editor.Store().Node(id)
		if !ok {
			continue
		}
		cursor := "  "
		style := StyleValue
		if i == m.cursor {
			cursor = "▸ "
			style = StyleHighlight
		}
		marker := ""
		if id == m.connectFr {
			marker = StyleWarning.Render("  [source]")
		}
		b.WriteString(cursor + style.Render(fmt.Sprintf("%-4s %-18s (%.0f, %.0f)  %d in / %d out",
			id, n.Name, n.Pos.X, n.Pos.Y, len(n.Inputs), len(n.Outputs))) + marker)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for _, id := range ids {
		for _, key := range m.editor.Store().ConnectionsOf(id) {
			if key.OutNode != id {
				continue
			}
			b.WriteString(StyleDim.Render(fmt.Sprintf("  %s %s %s %s %s",
				key.OutNode, key.OutPort, iconArrow, key.InNode, key.InPort)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(m.status))
	b.WriteString("\n")
	return b.String()
}
