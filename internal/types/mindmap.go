package types

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NodeStatusNotStarted = "not-started"
	NodeStatusInProgress = "in-progress"
	NodeStatusCompleted  = "completed"

	EdgeTypePrerequisite = "prerequisite"
	EdgeTypeRelated      = "related"
	EdgeTypeAdvanced     = "advanced"
	EdgeTypeAlternative  = "alternative"

	VisibilityPrivate = "private"
	VisibilityShared  = "shared"
	VisibilityPublic  = "public"

	PermissionView  = "view"
	PermissionEdit  = "edit"
	PermissionAdmin = "admin"

	LayoutForceDirected = "force_directed"
	LayoutHierarchical  = "hierarchical"
	LayoutCircular      = "circular"
	LayoutCustom        = "custom"

	TemplateCustom           = "custom"
	TemplateProgramming      = "programming"
	TemplateLanguageLearning = "language_learning"
	TemplateScience          = "science"
	TemplateBusiness         = "business"

	ActionNodeAdded      = "node_added"
	ActionNodeRemoved    = "node_removed"
	ActionNodeMoved      = "node_moved"
	ActionNodeCompleted  = "node_completed"
	ActionEdgeAdded      = "edge_added"
	ActionEdgeRemoved    = "edge_removed"
	ActionEdgeModified   = "edge_modified"
	ActionMindmapCreated = "mindmap_created"
	ActionMindmapRenamed = "mindmap_renamed"
	ActionMindmapShared  = "mindmap_shared"

	DefaultNodeSize  = 60
	DefaultNodeColor = "#2563eb"

	DefaultEdgeStrength = 0.5
	DefaultEdgeColor    = "#666"
	DefaultEdgeWidth    = 2

	// ActivityLogCap bounds the embedded activity log: the oldest
	// entries are dropped once a mindmap accumulates more than this.
	ActivityLogCap = 100
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type MindmapNode struct {
	ID                 string     `json:"id"`
	TopicID            string     `json:"topic_id,omitempty"`
	Position           Position   `json:"position"`
	Size               int        `json:"size"`
	Color              string     `json:"color"`
	Status             string     `json:"status"`
	CompletionDate     *time.Time `json:"completion_date,omitempty"`
	ProgressPercentage int        `json:"progress_percentage"`
	UnlockDate         *time.Time `json:"unlock_date,omitempty"`
	CustomLabel        string     `json:"custom_label,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

type EdgeStyle struct {
	Color  string `json:"color"`
	Width  int    `json:"width"`
	Dashed bool   `json:"dashed"`
}

type MindmapEdge struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Type     string    `json:"type"`
	Strength float64   `json:"strength"`
	Style    EdgeStyle `json:"style"`
	Label    string    `json:"label,omitempty"`
}

type MindmapLayout struct {
	Style string        `json:"style"`
	Nodes []MindmapNode `json:"nodes"`
	Edges []MindmapEdge `json:"edges"`
}

type MindmapStats struct {
	TotalNodes           int        `json:"total_nodes"`
	CompletedNodes       int        `json:"completed_nodes"`
	InProgressNodes      int        `json:"in_progress_nodes"`
	PlannedNodes         int        `json:"planned_nodes"`
	TotalConnections     int        `json:"total_connections"`
	LearningTimeMinutes  int        `json:"learning_time_minutes"`
	LastAccessed         *time.Time `json:"last_accessed,omitempty"`
	ViewCount            int        `json:"view_count"`
	ComplexityScore      float64    `json:"complexity_score"`
}

type Collaborator struct {
	UserID     uuid.UUID `json:"user_id"`
	Permission string    `json:"permission"`
	AddedAt    time.Time `json:"added_at"`
	AddedBy    uuid.UUID `json:"added_by"`
}

// Per-action detail payloads for activity entries. Exactly one pointer
// is set on ActivityDetails, matching the entry's action.

type NodeActivityDetails struct {
	TopicID  string    `json:"topic_id,omitempty"`
	Position *Position `json:"position,omitempty"`
}

type StatusChangeDetails struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

type EdgeActivityDetails struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
}

type ShareDetails struct {
	SharedWith uuid.UUID `json:"shared_with"`
	Permission string    `json:"permission"`
}

type RenameDetails struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

type ActivityDetails struct {
	Node   *NodeActivityDetails `json:"node,omitempty"`
	Status *StatusChangeDetails `json:"status,omitempty"`
	Edge   *EdgeActivityDetails `json:"edge,omitempty"`
	Share  *ShareDetails        `json:"share,omitempty"`
	Rename *RenameDetails       `json:"rename,omitempty"`
}

type ActivityEntry struct {
	UserID    uuid.UUID       `json:"user_id"`
	Action    string          `json:"action"`
	Target    string          `json:"target,omitempty"`
	Details   ActivityDetails `json:"details,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Mindmap is the aggregate root: the layout graph, derived stats,
// collaborator list and activity log live inside the row as jsonb and
// are only ever written together, guarded by the version column.
type Mindmap struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	User             *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name             string          `gorm:"not null;column:name" json:"name"`
	Description      string          `gorm:"column:description" json:"description,omitempty"`
	Visibility       string          `gorm:"not null;default:'private';index;column:visibility" json:"visibility"`
	SharedWith       []Collaborator  `gorm:"type:jsonb;serializer:json;column:shared_with" json:"shared_with,omitempty"`
	Layout           MindmapLayout   `gorm:"type:jsonb;serializer:json;column:layout" json:"layout"`
	Stats            MindmapStats    `gorm:"type:jsonb;serializer:json;column:stats" json:"stats"`
	ActivityLog      []ActivityEntry `gorm:"type:jsonb;serializer:json;column:activity_log" json:"activity_log,omitempty"`
	Tags             []string        `gorm:"type:jsonb;serializer:json;column:tags" json:"tags,omitempty"`
	Template         string          `gorm:"not null;default:'custom';column:template" json:"template"`
	IsTemplate       bool            `gorm:"not null;default:false;index;column:is_template" json:"is_template"`
	ParentTemplateID *uuid.UUID      `gorm:"type:uuid;column:parent_template_id" json:"parent_template_id,omitempty"`
	Version          int             `gorm:"not null;default:0;column:version" json:"version"`
	CreatedAt        time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (Mindmap) TableName() string {
	return "mindmap"
}

// BeforeSave keeps the derived stats consistent with the layout on
// every persisted write.
func (m *Mindmap) BeforeSave(tx *gorm.DB) error {
	m.UpdateStats()
	return nil
}

// NodeInput carries the caller-supplied fields for AddNode. Zero
// values fall back to the node defaults.
type NodeInput struct {
	ID          string
	TopicID     string
	Position    Position
	Size        int
	Color       string
	Status      string
	CustomLabel string
	Notes       string
}

// EdgeInput carries the caller-supplied fields for AddEdge.
type EdgeInput struct {
	ID       string
	Source   string
	Target   string
	Type     string
	Strength float64
	Style    *EdgeStyle
	Label    string
}

// AddNode appends a node with defaults applied, refreshes the derived
// stats and records a node_added entry attributed to actorID.
func (m *Mindmap) AddNode(actorID uuid.UUID, in NodeInput) *MindmapNode {
	node := MindmapNode{
		ID:          in.ID,
		TopicID:     in.TopicID,
		Position:    in.Position,
		Size:        in.Size,
		Color:       in.Color,
		Status:      in.Status,
		CustomLabel: in.CustomLabel,
		Notes:       in.Notes,
	}
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.Size == 0 {
		node.Size = DefaultNodeSize
	}
	if node.Color == "" {
		node.Color = DefaultNodeColor
	}
	if node.Status == "" {
		node.Status = NodeStatusNotStarted
	}
	m.Layout.Nodes = append(m.Layout.Nodes, node)
	m.UpdateStats()
	pos := node.Position
	m.LogActivity(actorID, ActionNodeAdded, node.ID, ActivityDetails{
		Node: &NodeActivityDetails{TopicID: node.TopicID, Position: &pos},
	})
	return &m.Layout.Nodes[len(m.Layout.Nodes)-1]
}

// RemoveNode drops the node and every edge touching it. It reports
// whether the node existed.
func (m *Mindmap) RemoveNode(actorID uuid.UUID, nodeID string) bool {
	idx := -1
	for i := range m.Layout.Nodes {
		if m.Layout.Nodes[i].ID == nodeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	m.Layout.Nodes = append(m.Layout.Nodes[:idx], m.Layout.Nodes[idx+1:]...)
	kept := m.Layout.Edges[:0]
	for _, e := range m.Layout.Edges {
		if e.Source != nodeID && e.Target != nodeID {
			kept = append(kept, e)
		}
	}
	m.Layout.Edges = kept
	m.UpdateStats()
	m.LogActivity(actorID, ActionNodeRemoved, nodeID, ActivityDetails{})
	return true
}

// AddEdge appends an edge with defaults applied and records an
// edge_added entry. Endpoint existence is checked by the caller.
func (m *Mindmap) AddEdge(actorID uuid.UUID, in EdgeInput) *MindmapEdge {
	edge := MindmapEdge{
		ID:       in.ID,
		Source:   in.Source,
		Target:   in.Target,
		Type:     in.Type,
		Strength: in.Strength,
		Label:    in.Label,
	}
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	if edge.Type == "" {
		edge.Type = EdgeTypeRelated
	}
	if edge.Strength == 0 {
		edge.Strength = DefaultEdgeStrength
	}
	if in.Style != nil {
		edge.Style = *in.Style
	} else {
		edge.Style = EdgeStyle{Color: DefaultEdgeColor, Width: DefaultEdgeWidth}
	}
	m.Layout.Edges = append(m.Layout.Edges, edge)
	m.UpdateStats()
	m.LogActivity(actorID, ActionEdgeAdded, edge.ID, ActivityDetails{
		Edge: &EdgeActivityDetails{Source: edge.Source, Target: edge.Target, Type: edge.Type},
	})
	return &m.Layout.Edges[len(m.Layout.Edges)-1]
}

// RemoveEdge drops one edge by id and reports whether it existed.
func (m *Mindmap) RemoveEdge(actorID uuid.UUID, edgeID string) bool {
	for i := range m.Layout.Edges {
		if m.Layout.Edges[i].ID == edgeID {
			removed := m.Layout.Edges[i]
			m.Layout.Edges = append(m.Layout.Edges[:i], m.Layout.Edges[i+1:]...)
			m.UpdateStats()
			m.LogActivity(actorID, ActionEdgeRemoved, edgeID, ActivityDetails{
				Edge: &EdgeActivityDetails{Source: removed.Source, Target: removed.Target, Type: removed.Type},
			})
			return true
		}
	}
	return false
}

// MoveNode repositions a node without touching its status.
func (m *Mindmap) MoveNode(actorID uuid.UUID, nodeID string, pos Position) bool {
	for i := range m.Layout.Nodes {
		if m.Layout.Nodes[i].ID == nodeID {
			m.Layout.Nodes[i].Position = pos
			m.UpdateStats()
			p := pos
			m.LogActivity(actorID, ActionNodeMoved, nodeID, ActivityDetails{
				Node: &NodeActivityDetails{Position: &p},
			})
			return true
		}
	}
	return false
}

// UpdateNodeStatus sets a node's status and optionally its progress
// percentage. The completion date is stamped only on a transition into
// completed and is never cleared afterwards. Every change is logged
// under the node_completed action regardless of the new status.
func (m *Mindmap) UpdateNodeStatus(actorID uuid.UUID, nodeID, status string, progress *int) bool {
	for i := range m.Layout.Nodes {
		n := &m.Layout.Nodes[i]
		if n.ID != nodeID {
			continue
		}
		old := n.Status
		n.Status = status
		if progress != nil {
			n.ProgressPercentage = *progress
		}
		if status == NodeStatusCompleted && old != NodeStatusCompleted {
			now := time.Now().UTC()
			n.CompletionDate = &now
		}
		m.UpdateStats()
		m.LogActivity(actorID, ActionNodeCompleted, nodeID, ActivityDetails{
			Status: &StatusChangeDetails{OldStatus: old, NewStatus: status},
		})
		return true
	}
	return false
}

// UpdateStats recomputes every derived counter from the layout and
// refreshes the last-accessed timestamp.
func (m *Mindmap) UpdateStats() {
	var completed, inProgress, planned int
	for i := range m.Layout.Nodes {
		switch m.Layout.Nodes[i].Status {
		case NodeStatusCompleted:
			completed++
		case NodeStatusInProgress:
			inProgress++
		default:
			planned++
		}
	}
	m.Stats.TotalNodes = len(m.Layout.Nodes)
	m.Stats.CompletedNodes = completed
	m.Stats.InProgressNodes = inProgress
	m.Stats.PlannedNodes = planned
	m.Stats.TotalConnections = len(m.Layout.Edges)
	m.Stats.ComplexityScore = complexityScore(len(m.Layout.Nodes), len(m.Layout.Edges))
	now := time.Now().UTC()
	m.Stats.LastAccessed = &now
}

// complexityScore blends node count and edge density into [0, 1].
func complexityScore(nodes, edges int) float64 {
	if nodes == 0 {
		return 0
	}
	nodeComplexity := float64(nodes) * 0.1
	edgeComplexity := float64(edges) / float64(nodes) * 0.5
	return math.Min(1, (nodeComplexity+edgeComplexity)/10)
}

// LogActivity appends an entry and drops the oldest ones beyond the
// cap.
func (m *Mindmap) LogActivity(actorID uuid.UUID, action, target string, details ActivityDetails) {
	m.ActivityLog = append(m.ActivityLog, ActivityEntry{
		UserID:    actorID,
		Action:    action,
		Target:    target,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
	if len(m.ActivityLog) > ActivityLogCap {
		m.ActivityLog = m.ActivityLog[len(m.ActivityLog)-ActivityLogCap:]
	}
}

// AddCollaborator grants or updates access for one user. A user
// already on the list has their permission replaced in place; only a
// genuinely new collaborator produces a mindmap_shared entry.
func (m *Mindmap) AddCollaborator(actorID, userID uuid.UUID, permission string) *Collaborator {
	for i := range m.SharedWith {
		if m.SharedWith[i].UserID == userID {
			m.SharedWith[i].Permission = permission
			return &m.SharedWith[i]
		}
	}
	m.SharedWith = append(m.SharedWith, Collaborator{
		UserID:     userID,
		Permission: permission,
		AddedAt:    time.Now().UTC(),
		AddedBy:    actorID,
	})
	m.LogActivity(actorID, ActionMindmapShared, userID.String(), ActivityDetails{
		Share: &ShareDetails{SharedWith: userID, Permission: permission},
	})
	return &m.SharedWith[len(m.SharedWith)-1]
}

// CompletionPercentage reports completed nodes over total nodes,
// rounded to the nearest whole percent. Empty maps are 0.
func (m *Mindmap) CompletionPercentage() int {
	if m.Stats.TotalNodes == 0 {
		return 0
	}
	return int(math.Round(float64(m.Stats.CompletedNodes) / float64(m.Stats.TotalNodes) * 100))
}

// CollaboratorPermission resolves the effective permission a user has
// on this map. The owner always holds admin.
func (m *Mindmap) CollaboratorPermission(userID uuid.UUID) (string, bool) {
	if m.UserID == userID {
		return PermissionAdmin, true
	}
	for i := range m.SharedWith {
		if m.SharedWith[i].UserID == userID {
			return m.SharedWith[i].Permission, true
		}
	}
	return "", false
}

// CanEdit reports whether the user may perform structural writes.
func (m *Mindmap) CanEdit(userID uuid.UUID) bool {
	perm, ok := m.CollaboratorPermission(userID)
	return ok && (perm == PermissionEdit || perm == PermissionAdmin)
}

// CanView reports whether the user may read this map at all.
func (m *Mindmap) CanView(userID uuid.UUID) bool {
	if m.Visibility == VisibilityPublic {
		return true
	}
	_, ok := m.CollaboratorPermission(userID)
	return ok
}

// FindNode returns a pointer into the layout, valid until the slice is
// next mutated.
func (m *Mindmap) FindNode(nodeID string) *MindmapNode {
	for i := range m.Layout.Nodes {
		if m.Layout.Nodes[i].ID == nodeID {
			return &m.Layout.Nodes[i]
		}
	}
	return nil
}

func ValidNodeStatus(s string) bool {
	switch s {
	case NodeStatusNotStarted, NodeStatusInProgress, NodeStatusCompleted:
		return true
	}
	return false
}

func ValidEdgeType(s string) bool {
	switch s {
	case EdgeTypePrerequisite, EdgeTypeRelated, EdgeTypeAdvanced, EdgeTypeAlternative:
		return true
	}
	return false
}

func ValidVisibility(s string) bool {
	switch s {
	case VisibilityPrivate, VisibilityShared, VisibilityPublic:
		return true
	}
	return false
}

func ValidPermission(s string) bool {
	switch s {
	case PermissionView, PermissionEdit, PermissionAdmin:
		return true
	}
	return false
}

func ValidLayoutStyle(s string) bool {
	switch s {
	case LayoutForceDirected, LayoutHierarchical, LayoutCircular, LayoutCustom:
		return true
	}
	return false
}

func ValidTemplate(s string) bool {
	switch s {
	case TemplateCustom, TemplateProgramming, TemplateLanguageLearning,
		TemplateScience, TemplateBusiness:
		return true
	}
	return false
}
