package render

import (
	"strings"
	"testing"

	"github.com/flowgrid/flowgrid/pkg/flow"
	"github.com/flowgrid/flowgrid/pkg/wire"
)

func sampleSnapshot(t *testing.T) *wire.Snapshot {
	t.Helper()
	store := flow.New(false)
	a, err := store.AddNode(flow.DefaultModule, flow.NodeSpec{
		Name: "fetch", Outputs: 2, Class: "io",
		Data: map[string]any{"url": "https://example.com"},
	})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	b, err := store.AddNode(flow.DefaultModule, flow.NodeSpec{Name: "parse", Inputs: 1, Outputs: 1})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := store.Connect(a, b, "output_1", "input_1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return wire.FromStore(store)
}

func TestToDOTStructure(t *testing.T) {
	snap := sampleSnapshot(t)
	dot := ToDOT(snap, flow.DefaultModule, Options{})

	for _, want := range []string{
		"digraph flow {",
		"rankdir=LR;",
		"shape=record",
		`"1" [label=`,
		`"2" [label=`,
		`"1":"output_1" -> "2":"input_1";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if !strings.HasSuffix(dot, "}\n") {
		t.Error("DOT not terminated")
	}
}

func TestToDOTEdgeDrawnOnce(t *testing.T) {
	dot := ToDOT(sampleSnapshot(t), flow.DefaultModule, Options{})
	if got := strings.Count(dot, "->"); got != 1 {
		t.Errorf("edges = %d, want 1:\n%s", got, dot)
	}
}

func TestToDOTDetailedLabels(t *testing.T) {
	snap := sampleSnapshot(t)

	plain := ToDOT(snap, flow.DefaultModule, Options{})
	if strings.Contains(plain, "class: io") {
		t.Error("plain labels leaked metadata")
	}

	detailed := ToDOT(snap, flow.DefaultModule, Options{Detailed: true})
	if !strings.Contains(detailed, "class: io") {
		t.Errorf("detailed label missing class:\n%s", detailed)
	}
	if !strings.Contains(detailed, "url: https://example.com") {
		t.Errorf("detailed label missing data:\n%s", detailed)
	}
}

func TestToDOTUnknownModule(t *testing.T) {
	dot := ToDOT(sampleSnapshot(t), "missing", Options{})
	if strings.Contains(dot, "->") || strings.Contains(dot, "label=") {
		t.Errorf("unknown module produced content:\n%s", dot)
	}
}

func TestToDOTPortOrderingIsNumeric(t *testing.T) {
	store := flow.New(false)
	id, err := store.AddNode(flow.DefaultModule, flow.NodeSpec{Name: "wide", Inputs: 11})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	_ = id
	dot := ToDOT(wire.FromStore(store), flow.DefaultModule, Options{})

	i2 := strings.Index(dot, "<input_2>")
	i10 := strings.Index(dot, "<input_10>")
	if i2 < 0 || i10 < 0 {
		t.Fatalf("port cells missing:\n%s", dot)
	}
	if i2 > i10 {
		t.Error("input_10 ordered before input_2")
	}
}

func TestRecordEscaping(t *testing.T) {
	store := flow.New(false)
	if _, err := store.AddNode(flow.DefaultModule, flow.NodeSpec{Name: "a|b{c}"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	dot := ToDOT(wire.FromStore(store), flow.DefaultModule, Options{})
	if !strings.Contains(dot, `a\|b\{c\}`) {
		t.Errorf("record characters not escaped:\n%s", dot)
	}
}
