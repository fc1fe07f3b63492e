package types

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func newTestMindmap() *Mindmap {
	return &Mindmap{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Name:   "test map",
		Layout: MindmapLayout{Style: LayoutForceDirected},
	}
}

func TestAddNodeDefaults(t *testing.T) {
	m := newTestMindmap()
	node := m.AddNode(m.UserID, NodeInput{Position: Position{X: 10, Y: 20}})
	if node.ID == "" {
		t.Fatalf("expected generated node id")
	}
	if node.Size != DefaultNodeSize {
		t.Fatalf("size = %d, want %d", node.Size, DefaultNodeSize)
	}
	if node.Color != DefaultNodeColor {
		t.Fatalf("color = %q, want %q", node.Color, DefaultNodeColor)
	}
	if node.Status != NodeStatusNotStarted {
		t.Fatalf("status = %q, want %q", node.Status, NodeStatusNotStarted)
	}
	if m.Stats.TotalNodes != 1 {
		t.Fatalf("total nodes = %d, want 1", m.Stats.TotalNodes)
	}
	last := m.ActivityLog[len(m.ActivityLog)-1]
	if last.Action != ActionNodeAdded || last.Target != node.ID {
		t.Fatalf("last entry = %q/%q, want node_added/%q", last.Action, last.Target, node.ID)
	}
}

func TestAddNodeKeepsCallerValues(t *testing.T) {
	m := newTestMindmap()
	node := m.AddNode(m.UserID, NodeInput{
		ID: "n1", Size: 90, Color: "#ff0000", Status: NodeStatusInProgress,
	})
	if node.ID != "n1" || node.Size != 90 || node.Color != "#ff0000" || node.Status != NodeStatusInProgress {
		t.Fatalf("caller values not preserved: %+v", node)
	}
}

func TestRemoveNodeCascadesEdges(t *testing.T) {
	m := newTestMindmap()
	a := m.AddNode(m.UserID, NodeInput{ID: "a"})
	b := m.AddNode(m.UserID, NodeInput{ID: "b"})
	c := m.AddNode(m.UserID, NodeInput{ID: "c"})
	m.AddEdge(m.UserID, EdgeInput{Source: a.ID, Target: b.ID})
	m.AddEdge(m.UserID, EdgeInput{Source: b.ID, Target: c.ID})
	m.AddEdge(m.UserID, EdgeInput{Source: a.ID, Target: c.ID})

	if !m.RemoveNode(m.UserID, "b") {
		t.Fatalf("expected RemoveNode to report success")
	}
	if m.Stats.TotalNodes != 2 {
		t.Fatalf("total nodes = %d, want 2", m.Stats.TotalNodes)
	}
	if m.Stats.TotalConnections != 1 {
		t.Fatalf("total connections = %d, want 1", m.Stats.TotalConnections)
	}
	for _, e := range m.Layout.Edges {
		if e.Source == "b" || e.Target == "b" {
			t.Fatalf("dangling edge survived: %+v", e)
		}
	}
	if m.RemoveNode(m.UserID, "missing") {
		t.Fatalf("expected RemoveNode of unknown id to report false")
	}
}

func TestAddEdgeDefaults(t *testing.T) {
	m := newTestMindmap()
	m.AddNode(m.UserID, NodeInput{ID: "a"})
	m.AddNode(m.UserID, NodeInput{ID: "b"})
	edge := m.AddEdge(m.UserID, EdgeInput{Source: "a", Target: "b"})
	if edge.Type != EdgeTypeRelated {
		t.Fatalf("type = %q, want %q", edge.Type, EdgeTypeRelated)
	}
	if edge.Strength != DefaultEdgeStrength {
		t.Fatalf("strength = %v, want %v", edge.Strength, DefaultEdgeStrength)
	}
	if edge.Style.Color != DefaultEdgeColor || edge.Style.Width != DefaultEdgeWidth {
		t.Fatalf("unexpected default style: %+v", edge.Style)
	}
	last := m.ActivityLog[len(m.ActivityLog)-1]
	if last.Action != ActionEdgeAdded {
		t.Fatalf("last action = %q, want edge_added", last.Action)
	}
	if last.Details.Edge == nil || last.Details.Edge.Source != "a" || last.Details.Edge.Target != "b" {
		t.Fatalf("edge details missing or wrong: %+v", last.Details.Edge)
	}
}

func TestRemoveEdge(t *testing.T) {
	m := newTestMindmap()
	m.AddNode(m.UserID, NodeInput{ID: "a"})
	m.AddNode(m.UserID, NodeInput{ID: "b"})
	edge := m.AddEdge(m.UserID, EdgeInput{Source: "a", Target: "b"})
	if !m.RemoveEdge(m.UserID, edge.ID) {
		t.Fatalf("expected RemoveEdge to report success")
	}
	if m.Stats.TotalConnections != 0 {
		t.Fatalf("total connections = %d, want 0", m.Stats.TotalConnections)
	}
	if m.RemoveEdge(m.UserID, edge.ID) {
		t.Fatalf("expected second RemoveEdge to report false")
	}
}

func TestUpdateNodeStatusCompletionDate(t *testing.T) {
	m := newTestMindmap()
	m.AddNode(m.UserID, NodeInput{ID: "n"})

	if !m.UpdateNodeStatus(m.UserID, "n", NodeStatusCompleted, nil) {
		t.Fatalf("expected status update to succeed")
	}
	n := m.FindNode("n")
	if n.CompletionDate == nil {
		t.Fatalf("completion date not stamped on transition into completed")
	}
	if n.ProgressPercentage != 0 {
		t.Fatalf("progress = %d, want 0 when caller supplies none", n.ProgressPercentage)
	}
	first := *n.CompletionDate

	// Re-completing an already-completed node keeps the original stamp.
	m.UpdateNodeStatus(m.UserID, "n", NodeStatusCompleted, nil)
	if !m.FindNode("n").CompletionDate.Equal(first) {
		t.Fatalf("completion date changed on completed -> completed")
	}

	// Leaving completed keeps the stamp; only the caller-supplied
	// progress is applied.
	progress := 40
	m.UpdateNodeStatus(m.UserID, "n", NodeStatusInProgress, &progress)
	if got := m.FindNode("n"); got.CompletionDate == nil || !got.CompletionDate.Equal(first) {
		t.Fatalf("completion date must survive leaving completed")
	}
	if m.FindNode("n").ProgressPercentage != 40 {
		t.Fatalf("progress = %d, want 40", m.FindNode("n").ProgressPercentage)
	}

	last := m.ActivityLog[len(m.ActivityLog)-1]
	if last.Action != ActionNodeCompleted {
		t.Fatalf("status changes must log under node_completed, got %q", last.Action)
	}
	if last.Details.Status == nil || last.Details.Status.OldStatus != NodeStatusCompleted ||
		last.Details.Status.NewStatus != NodeStatusInProgress {
		t.Fatalf("status details wrong: %+v", last.Details.Status)
	}
}

func TestUpdateNodeStatusUnknownNode(t *testing.T) {
	m := newTestMindmap()
	if m.UpdateNodeStatus(m.UserID, "missing", NodeStatusCompleted, nil) {
		t.Fatalf("expected update on unknown node to report false")
	}
}

func TestStatsCounters(t *testing.T) {
	m := newTestMindmap()
	m.AddNode(m.UserID, NodeInput{ID: "a", Status: NodeStatusCompleted})
	m.AddNode(m.UserID, NodeInput{ID: "b", Status: NodeStatusInProgress})
	m.AddNode(m.UserID, NodeInput{ID: "c"})
	m.AddEdge(m.UserID, EdgeInput{Source: "a", Target: "b"})

	s := m.Stats
	if s.TotalNodes != 3 || s.CompletedNodes != 1 || s.InProgressNodes != 1 || s.PlannedNodes != 1 {
		t.Fatalf("counters wrong: %+v", s)
	}
	if s.TotalConnections != 1 {
		t.Fatalf("total connections = %d, want 1", s.TotalConnections)
	}
	if s.LastAccessed == nil {
		t.Fatalf("last accessed not refreshed")
	}
}

func TestComplexityScore(t *testing.T) {
	cases := []struct {
		nodes, edges int
		want         float64
	}{
		{0, 0, 0},
		{10, 10, 0.15},
		{100, 0, 1},
		{4, 2, 0.065},
	}
	for _, tc := range cases {
		got := complexityScore(tc.nodes, tc.edges)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("complexity(%d, %d) = %v, want %v", tc.nodes, tc.edges, got, tc.want)
		}
	}
}

func TestComplexityScoreZeroAfterLastNodeRemoved(t *testing.T) {
	m := newTestMindmap()
	m.AddNode(m.UserID, NodeInput{ID: "a"})
	m.RemoveNode(m.UserID, "a")
	if m.Stats.ComplexityScore != 0 {
		t.Fatalf("complexity = %v after last node removed, want 0", m.Stats.ComplexityScore)
	}
}

func TestActivityLogCap(t *testing.T) {
	m := newTestMindmap()
	for i := 0; i < ActivityLogCap+20; i++ {
		m.LogActivity(m.UserID, ActionNodeAdded, fmt.Sprintf("n%d", i), ActivityDetails{})
	}
	if len(m.ActivityLog) != ActivityLogCap {
		t.Fatalf("log length = %d, want %d", len(m.ActivityLog), ActivityLogCap)
	}
	if m.ActivityLog[0].Target != "n20" {
		t.Fatalf("oldest surviving entry = %q, want n20", m.ActivityLog[0].Target)
	}
	if m.ActivityLog[len(m.ActivityLog)-1].Target != fmt.Sprintf("n%d", ActivityLogCap+19) {
		t.Fatalf("newest entry = %q", m.ActivityLog[len(m.ActivityLog)-1].Target)
	}
}

func TestAddCollaboratorIdempotent(t *testing.T) {
	m := newTestMindmap()
	other := uuid.New()

	m.AddCollaborator(m.UserID, other, PermissionView)
	if len(m.SharedWith) != 1 {
		t.Fatalf("shared list length = %d, want 1", len(m.SharedWith))
	}
	shares := countAction(m, ActionMindmapShared)

	// Same user again: permission updated in place, no new log entry.
	m.AddCollaborator(m.UserID, other, PermissionEdit)
	if len(m.SharedWith) != 1 {
		t.Fatalf("duplicate collaborator appended")
	}
	if m.SharedWith[0].Permission != PermissionEdit {
		t.Fatalf("permission = %q, want edit", m.SharedWith[0].Permission)
	}
	if got := countAction(m, ActionMindmapShared); got != shares {
		t.Fatalf("mindmap_shared logged on permission update: %d -> %d", shares, got)
	}
}

func countAction(m *Mindmap, action string) int {
	n := 0
	for _, e := range m.ActivityLog {
		if e.Action == action {
			n++
		}
	}
	return n
}

func TestCompletionPercentage(t *testing.T) {
	m := newTestMindmap()
	if m.CompletionPercentage() != 0 {
		t.Fatalf("empty map completion = %d, want 0", m.CompletionPercentage())
	}
	m.AddNode(m.UserID, NodeInput{ID: "a", Status: NodeStatusCompleted})
	m.AddNode(m.UserID, NodeInput{ID: "b"})
	m.AddNode(m.UserID, NodeInput{ID: "c"})
	if got := m.CompletionPercentage(); got != 33 {
		t.Fatalf("completion = %d, want 33", got)
	}
}

func TestPermissions(t *testing.T) {
	m := newTestMindmap()
	viewer := uuid.New()
	editor := uuid.New()
	stranger := uuid.New()
	m.AddCollaborator(m.UserID, viewer, PermissionView)
	m.AddCollaborator(m.UserID, editor, PermissionEdit)

	if !m.CanEdit(m.UserID) {
		t.Fatalf("owner must be able to edit")
	}
	if m.CanEdit(viewer) {
		t.Fatalf("view collaborator must not edit")
	}
	if !m.CanEdit(editor) {
		t.Fatalf("edit collaborator must edit")
	}
	if m.CanView(stranger) {
		t.Fatalf("stranger must not view a private map")
	}
	m.Visibility = VisibilityPublic
	if !m.CanView(stranger) {
		t.Fatalf("anyone may view a public map")
	}
}
