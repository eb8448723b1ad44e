package wire

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/flowgrid/flowgrid/pkg/errors"
	"github.com/flowgrid/flowgrid/pkg/flow"
)

// buildPair creates the canonical two-node graph: n1 at (0,0) and n2 at
// (300,0), each with one input and one output, connected n1.output_1 ->
// n2.input_1.
func buildPair(t *testing.T) (*flow.Store, string, string) {
	t.Helper()
	s := flow.New(false)
	n1, err := s.AddNode(flow.DefaultModule, flow.NodeSpec{Name: "n1", Inputs: 1, Outputs: 1})
	if err != nil {
		t.Fatalf("AddNode n1: %v", err)
	}
	n2, err := s.AddNode(flow.DefaultModule, flow.NodeSpec{Name: "n2", Inputs: 1, Outputs: 1, Pos: flow.Position{X: 300}})
	if err != nil {
		t.Fatalf("AddNode n2: %v", err)
	}
	if err := s.Connect(n1, n2, "output_1", "input_1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return s, n1, n2
}

func TestExportCrossLabeledShape(t *testing.T) {
	s, n1, n2 := buildPair(t)

	snap := FromStore(s)
	mod, ok := snap.Graph[flow.DefaultModule]
	if !ok {
		t.Fatalf("missing module %q in export", flow.DefaultModule)
	}

	out := mod.Data[n1].Outputs["output_1"].Connections
	if len(out) != 1 {
		t.Fatalf("n1.outputs.output_1.connections = %d entries, want 1", len(out))
	}
	// Output side: peer input port travels in the "output" field.
	if out[0].Node != n2 || out[0].Output != "input_1" || out[0].Input != "" {
		t.Errorf("output entry = %+v, want {node:%s output:input_1}", out[0], n2)
	}

	in := mod.Data[n2].Inputs["input_1"].Connections
	if len(in) != 1 {
		t.Fatalf("n2.inputs.input_1.connections = %d entries, want 1", len(in))
	}
	// Input side: peer output port travels in the "input" field.
	if in[0].Node != n1 || in[0].Input != "output_1" || in[0].Output != "" {
		t.Errorf("input entry = %+v, want {node:%s input:output_1}", in[0], n1)
	}

	if mod.Data[n2].PosX != 300 {
		t.Errorf("pos_x = %v, want 300", mod.Data[n2].PosX)
	}
}

func TestExportAfterNodeRemoval(t *testing.T) {
	s, n1, n2 := buildPair(t)
	s.RemoveNode(n1)

	snap := FromStore(s)
	mod := snap.Graph[flow.DefaultModule]
	if _, ok := mod.Data[n1]; ok {
		t.Error("removed node still present in export")
	}
	if got := mod.Data[n2].Inputs["input_1"].Connections; len(got) != 0 {
		t.Errorf("n2.inputs.input_1.connections = %+v, want empty", got)
	}
}

func TestRoundTrip(t *testing.T) {
	s, n1, n2 := buildPair(t)
	if err := s.AddModule("secondary"); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	n3, _ := s.AddNode("secondary", flow.NodeSpec{
		Name:    "logger",
		Inputs:  2,
		Outputs: 1,
		Pos:     flow.Position{X: 40, Y: 120},
		Class:   "logger-node",
		Content: "logview",
		Typed:   true,
		Data:    map[string]any{"level": "debug", "opts": map[string]any{"buffer": float64(64)}},
	})
	_ = n3
	key := flow.ConnKey{OutNode: n1, OutPort: "output_1", InNode: n2, InPort: "input_1"}
	s.AddPoint(key, 0, flow.Position{X: 120, Y: 30})
	s.AddPoint(key, 1, flow.Position{X: 220, Y: -10})

	exported := FromStore(s)
	restored, err := ToStore(exported, false)
	if err != nil {
		t.Fatalf("ToStore: %v", err)
	}
	again := FromStore(restored)

	if !reflect.DeepEqual(exported, again) {
		a, _ := json.Marshal(exported)
		b, _ := json.Marshal(again)
		t.Errorf("round trip diverged:\n first = %s\nsecond = %s", a, b)
	}

	// Waypoints survive with order intact.
	pts, err := restored.Points(key)
	if err != nil {
		t.Fatalf("Points: %v", err)
	}
	if len(pts) != 2 || pts[0].X != 120 || pts[1].Y != -10 {
		t.Errorf("points = %+v", pts)
	}

	// Restored ids must not be reissued to new nodes.
	fresh, _ := restored.AddNode(flow.DefaultModule, flow.NodeSpec{Name: "new"})
	if fresh == n1 || fresh == n2 {
		t.Errorf("restored store reissued id %s", fresh)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s, _, _ := buildPair(t)
	snap := FromStore(s)

	var buf bytes.Buffer
	if err := WriteJSON(snap, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	decoded, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if !reflect.DeepEqual(snap, decoded) {
		t.Error("JSON round trip diverged")
	}
}

func TestWriteJSONIsByteStable(t *testing.T) {
	s, _, _ := buildPair(t)
	snap := FromStore(s)

	var a, b bytes.Buffer
	WriteJSON(snap, &a)
	WriteJSON(snap, &b)
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("two exports of the same graph differ byte-wise")
	}
}

func TestToStoreRejectsBrokenMirror(t *testing.T) {
	snap := &Snapshot{Graph: map[string]Module{
		flow.DefaultModule: {Data: map[string]Node{
			"1": {
				ID: "1", Name: "a",
				Inputs: map[string]Port{},
				Outputs: map[string]Port{"output_1": {Connections: []Link{
					{Node: "2", Output: "input_1"},
				}}},
			},
			"2": {
				ID: "2", Name: "b",
				// input_1 exists but has no back-reference to 1.
				Inputs:  map[string]Port{"input_1": {}},
				Outputs: map[string]Port{},
			},
		}},
	}}

	if _, err := ToStore(snap, false); !errors.Is(err, errors.ErrCodeInvalidSnapshot) {
		t.Errorf("ToStore = %v, want INVALID_SNAPSHOT", err)
	}
}

func TestToStoreNil(t *testing.T) {
	s, err := ToStore(nil, false)
	if err != nil {
		t.Fatalf("ToStore(nil): %v", err)
	}
	if !s.HasModule(flow.DefaultModule) {
		t.Error("nil snapshot did not produce a default store")
	}
}
