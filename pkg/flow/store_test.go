package flow

import (
	"errors"
	"testing"
)

// twoNodes builds a store with two connected-ready nodes in the default
// module and returns their ids.
func twoNodes(t *testing.T, s *Store) (string, string) {
	t.Helper()
	a, err := s.AddNode(DefaultModule, NodeSpec{Name: "a", Inputs: 1, Outputs: 1})
	if err != nil {
		t.Fatalf("AddNode a: %v", err)
	}
	b, err := s.AddNode(DefaultModule, NodeSpec{Name: "b", Inputs: 1, Outputs: 1, Pos: Position{X: 300}})
	if err != nil {
		t.Fatalf("AddNode b: %v", err)
	}
	return a, b
}

func TestAddNodeSequentialIDs(t *testing.T) {
	s := New(false)
	a, b := twoNodes(t, s)
	if a != "1" || b != "2" {
		t.Errorf("ids = %s, %s, want 1, 2", a, b)
	}

	n, ok := s.Node(a)
	if !ok {
		t.Fatal("node 1 not found")
	}
	if len(n.Inputs) != 1 || len(n.Outputs) != 1 {
		t.Errorf("ports = %d in / %d out, want 1/1", len(n.Inputs), len(n.Outputs))
	}
	if _, ok := n.Inputs["input_1"]; !ok {
		t.Error("missing input_1")
	}
}

func TestAddNodeUUIDMode(t *testing.T) {
	s := New(true)
	a, b := twoNodes(t, s)
	if a == b {
		t.Error("uuid mode issued duplicate ids")
	}
	if len(a) < 32 {
		t.Errorf("id %q does not look like a uuid", a)
	}
}

func TestIDsNeverReused(t *testing.T) {
	s := New(false)
	a, _ := twoNodes(t, s)
	s.RemoveNode(a)
	c, _ := s.AddNode(DefaultModule, NodeSpec{Name: "c"})
	if c == a {
		t.Errorf("id %s was reused after removal", a)
	}
}

func TestNodeReturnsDeepCopy(t *testing.T) {
	s := New(false)
	id, _ := s.AddNode(DefaultModule, NodeSpec{
		Name: "n",
		Data: map[string]any{"form": map[string]any{"email": "x@y.z"}},
	})

	n, _ := s.Node(id)
	n.Name = "mutated"
	n.Data["form"].(map[string]any)["email"] = "hacked"
	n.Pos.X = 999

	fresh, _ := s.Node(id)
	if fresh.Name != "n" {
		t.Error("name mutation leaked into store")
	}
	if fresh.Data["form"].(map[string]any)["email"] != "x@y.z" {
		t.Error("payload mutation leaked into store")
	}
	if fresh.Pos.X != 0 {
		t.Error("position mutation leaked into store")
	}
}

func TestConnectRejections(t *testing.T) {
	s := New(false)
	a, b := twoNodes(t, s)
	if err := s.AddModule("other"); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	c, _ := s.AddNode("other", NodeSpec{Name: "c", Inputs: 1, Outputs: 1})

	tests := []struct {
		name    string
		connect func() error
		want    error
	}{
		{"SelfLoop", func() error { return s.Connect(a, a, "output_1", "input_1") }, ErrSelfConnection},
		{"UnknownOutNode", func() error { return s.Connect("99", b, "output_1", "input_1") }, ErrUnknownNode},
		{"UnknownInNode", func() error { return s.Connect(a, "99", "output_1", "input_1") }, ErrUnknownNode},
		{"CrossModule", func() error { return s.Connect(a, c, "output_1", "input_1") }, ErrCrossModule},
		{"UnknownOutPort", func() error { return s.Connect(a, b, "output_9", "input_1") }, ErrUnknownPort},
		{"UnknownInPort", func() error { return s.Connect(a, b, "output_1", "input_9") }, ErrUnknownPort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.connect(); !errors.Is(err, tt.want) {
				t.Errorf("Connect = %v, want %v", err, tt.want)
			}
		})
	}

	// None of the rejected attempts may have touched the store.
	n, _ := s.Node(a)
	if len(n.Outputs["output_1"].Connections) != 0 {
		t.Error("rejected connect left a connection behind")
	}
}

func TestConnectMirror(t *testing.T) {
	s := New(false)
	a, b := twoNodes(t, s)
	if err := s.Connect(a, b, "output_1", "input_1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	src, _ := s.Node(a)
	dst, _ := s.Node(b)
	out := src.Outputs["output_1"].Connections
	in := dst.Inputs["input_1"].Connections
	if len(out) != 1 || out[0].Node != b || out[0].Port != "input_1" {
		t.Errorf("output side = %+v", out)
	}
	if len(in) != 1 || in[0].Node != a || in[0].Port != "output_1" {
		t.Errorf("input side = %+v", in)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestConnectDuplicateIsRejected(t *testing.T) {
	s := New(false)
	a, b := twoNodes(t, s)
	if err := s.Connect(a, b, "output_1", "input_1"); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if err := s.Connect(a, b, "output_1", "input_1"); !errors.Is(err, ErrDuplicateConnection) {
		t.Fatalf("second Connect = %v, want ErrDuplicateConnection", err)
	}
	src, _ := s.Node(a)
	if got := len(src.Outputs["output_1"].Connections); got != 1 {
		t.Errorf("stored connections = %d, want exactly 1", got)
	}
}

func TestDisconnect(t *testing.T) {
	s := New(false)
	a, b := twoNodes(t, s)
	s.Connect(a, b, "output_1", "input_1")

	if !s.Disconnect(a, b, "output_1", "input_1") {
		t.Fatal("Disconnect reported no removal")
	}
	if s.Disconnect(a, b, "output_1", "input_1") {
		t.Error("second Disconnect reported a removal")
	}
	src, _ := s.Node(a)
	dst, _ := s.Node(b)
	if len(src.Outputs["output_1"].Connections) != 0 || len(dst.Inputs["input_1"].Connections) != 0 {
		t.Error("disconnect left dangling references")
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	s := New(false)
	a, _ := s.AddNode(DefaultModule, NodeSpec{Name: "a", Outputs: 2})
	b, _ := s.AddNode(DefaultModule, NodeSpec{Name: "b", Inputs: 1})
	c, _ := s.AddNode(DefaultModule, NodeSpec{Name: "c", Inputs: 1, Outputs: 1})
	d, _ := s.AddNode(DefaultModule, NodeSpec{Name: "d", Inputs: 1})
	s.Connect(a, b, "output_1", "input_1")
	s.Connect(a, c, "output_2", "input_1")
	s.Connect(c, d, "output_1", "input_1")

	removed, ok := s.RemoveNode(a)
	if !ok {
		t.Fatal("RemoveNode reported unknown id")
	}
	if len(removed) != 2 {
		t.Errorf("cascaded %d connections, want 2", len(removed))
	}
	if _, ok := s.Node(a); ok {
		t.Error("node still present after removal")
	}

	nb, _ := s.Node(b)
	nc, _ := s.Node(c)
	if len(nb.Inputs["input_1"].Connections) != 0 {
		t.Error("b retains a reference to removed node")
	}
	if len(nc.Inputs["input_1"].Connections) != 0 {
		t.Error("c retains a reference to removed node")
	}
	// The unrelated c->d connection must survive.
	if !s.Connected(c, d, "output_1", "input_1") {
		t.Error("unrelated connection was dropped")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestRemoveNodeUnknownIsNoop(t *testing.T) {
	s := New(false)
	if _, ok := s.RemoveNode("nope"); ok {
		t.Error("RemoveNode of unknown id reported success")
	}
}

func TestAddPort(t *testing.T) {
	s := New(false)
	a, _ := s.AddNode(DefaultModule, NodeSpec{Name: "a", Inputs: 1})
	label, err := s.AddPort(a, SideInput)
	if err != nil {
		t.Fatalf("AddPort: %v", err)
	}
	if label != "input_2" {
		t.Errorf("label = %s, want input_2", label)
	}
}

func TestRemovePortRenumbers(t *testing.T) {
	// Node b has inputs {1,2,3}; input_2 is removed. Remaining ports must
	// be exactly {input_1, input_2}, and the connection formerly on
	// input_3 must now reference input_2 with its peer mirror updated.
	s := New(false)
	a, _ := s.AddNode(DefaultModule, NodeSpec{Name: "a", Outputs: 3})
	b, _ := s.AddNode(DefaultModule, NodeSpec{Name: "b", Inputs: 3})
	s.Connect(a, b, "output_1", "input_1")
	s.Connect(a, b, "output_2", "input_2")
	s.Connect(a, b, "output_3", "input_3")

	removed, renamed, err := s.RemovePort(b, SideInput, "input_2")
	if err != nil {
		t.Fatalf("RemovePort: %v", err)
	}
	if len(removed) != 1 || removed[0].OutPort != "output_2" {
		t.Errorf("cascaded = %+v, want the output_2 connection", removed)
	}
	want := PortRename{
		Old: ConnKey{OutNode: a, OutPort: "output_3", InNode: b, InPort: "input_3"},
		New: ConnKey{OutNode: a, OutPort: "output_3", InNode: b, InPort: "input_2"},
	}
	if len(renamed) != 1 || renamed[0] != want {
		t.Errorf("renamed = %+v, want %+v", renamed, want)
	}

	nb, _ := s.Node(b)
	if len(nb.Inputs) != 2 {
		t.Fatalf("inputs = %d, want 2", len(nb.Inputs))
	}
	if _, ok := nb.Inputs["input_3"]; ok {
		t.Error("input_3 still present after renumbering")
	}

	// output_3's connection must now point at input_2.
	na, _ := s.Node(a)
	conns := na.Outputs["output_3"].Connections
	if len(conns) != 1 || conns[0].Port != "input_2" {
		t.Errorf("output_3 connections = %+v, want peer port input_2", conns)
	}
	// And the renumbered port keeps its own back-reference.
	got := nb.Inputs["input_2"].Connections
	if len(got) != 1 || got[0].Node != a || got[0].Port != "output_3" {
		t.Errorf("input_2 connections = %+v", got)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestRemovePortOutputSide(t *testing.T) {
	s := New(false)
	a, _ := s.AddNode(DefaultModule, NodeSpec{Name: "a", Outputs: 2})
	b, _ := s.AddNode(DefaultModule, NodeSpec{Name: "b", Inputs: 1})
	s.Connect(a, b, "output_2", "input_1")

	_, renamed, err := s.RemovePort(a, SideOutput, "output_1")
	if err != nil {
		t.Fatalf("RemovePort: %v", err)
	}
	want := PortRename{
		Old: ConnKey{OutNode: a, OutPort: "output_2", InNode: b, InPort: "input_1"},
		New: ConnKey{OutNode: a, OutPort: "output_1", InNode: b, InPort: "input_1"},
	}
	if len(renamed) != 1 || renamed[0] != want {
		t.Errorf("renamed = %+v, want %+v", renamed, want)
	}

	// The surviving connection slid from output_2 to output_1; b's mirror
	// must follow.
	if !s.Connected(a, b, "output_1", "input_1") {
		t.Error("connection did not follow the renumbered port")
	}
	nb, _ := s.Node(b)
	in := nb.Inputs["input_1"].Connections
	if len(in) != 1 || in[0].Port != "output_1" {
		t.Errorf("mirror = %+v, want peer port output_1", in)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestUpdateNodeData(t *testing.T) {
	s := New(false)
	a, b := twoNodes(t, s)
	s.Connect(a, b, "output_1", "input_1")

	if err := s.UpdateNodeData(a, map[string]any{"k": "v"}); err != nil {
		t.Fatalf("UpdateNodeData: %v", err)
	}
	n, _ := s.Node(a)
	if n.Data["k"] != "v" {
		t.Errorf("data = %+v", n.Data)
	}
	if !s.Connected(a, b, "output_1", "input_1") {
		t.Error("data update disturbed connections")
	}
	if err := s.UpdateNodeData("99", nil); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown id = %v, want ErrUnknownNode", err)
	}
}

func TestModules(t *testing.T) {
	s := New(false)
	if err := s.AddModule("flows"); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	if err := s.AddModule("flows"); !errors.Is(err, ErrDuplicateModule) {
		t.Errorf("duplicate AddModule = %v, want ErrDuplicateModule", err)
	}
	if err := s.RemoveModule("nope"); !errors.Is(err, ErrUnknownModule) {
		t.Errorf("RemoveModule unknown = %v, want ErrUnknownModule", err)
	}

	id, _ := s.AddNode("flows", NodeSpec{Name: "n"})
	if err := s.RemoveModule("flows"); err != nil {
		t.Fatalf("RemoveModule: %v", err)
	}
	if _, ok := s.Node(id); ok {
		t.Error("node survived module removal")
	}

	// The default module is cleared, never unregistered.
	twoNodes(t, s)
	if err := s.RemoveModule(DefaultModule); err != nil {
		t.Fatalf("RemoveModule default: %v", err)
	}
	if !s.HasModule(DefaultModule) {
		t.Error("default module was unregistered")
	}
	if ids := s.NodeIDs(DefaultModule); len(ids) != 0 {
		t.Errorf("default module still holds %d nodes", len(ids))
	}
}

func TestReroutePoints(t *testing.T) {
	s := New(false)
	a, b := twoNodes(t, s)
	s.Connect(a, b, "output_1", "input_1")
	key := ConnKey{OutNode: a, OutPort: "output_1", InNode: b, InPort: "input_1"}

	if err := s.AddPoint(key, 0, Position{X: 100, Y: 50}); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	if err := s.AddPoint(key, 1, Position{X: 200, Y: 80}); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	if err := s.MovePoint(key, 0, Position{X: 110, Y: 55}); err != nil {
		t.Fatalf("MovePoint: %v", err)
	}

	pts, err := s.Points(key)
	if err != nil {
		t.Fatalf("Points: %v", err)
	}
	if len(pts) != 2 || pts[0].X != 110 || pts[1].X != 200 {
		t.Errorf("points = %+v", pts)
	}

	if err := s.RemovePoint(key, 0); err != nil {
		t.Fatalf("RemovePoint: %v", err)
	}
	pts, _ = s.Points(key)
	if len(pts) != 1 || pts[0].X != 200 {
		t.Errorf("points after removal = %+v", pts)
	}

	missing := ConnKey{OutNode: a, OutPort: "output_1", InNode: b, InPort: "input_9"}
	if err := s.AddPoint(missing, 0, Position{}); !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("AddPoint on missing connection = %v, want ErrUnknownConnection", err)
	}
}

func TestConnectionsOfIsDeterministic(t *testing.T) {
	s := New(false)
	a, _ := s.AddNode(DefaultModule, NodeSpec{Name: "a", Inputs: 1, Outputs: 2})
	b, _ := s.AddNode(DefaultModule, NodeSpec{Name: "b", Inputs: 1, Outputs: 1})
	s.Connect(a, b, "output_1", "input_1")
	s.Connect(a, b, "output_2", "input_1")
	s.Connect(b, a, "output_1", "input_1")

	first := s.ConnectionsOf(a)
	for range 10 {
		if got := s.ConnectionsOf(a); len(got) != len(first) {
			t.Fatalf("ConnectionsOf length changed: %d vs %d", len(got), len(first))
		}
	}
	if len(first) != 3 {
		t.Errorf("ConnectionsOf = %d keys, want 3", len(first))
	}
}
