package aggregates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/dbctx"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

// MindmapAggregate is the write boundary for the mindmap root. Every
// mutation loads the row inside a transaction, applies the change
// in memory, and persists it with a compare-and-swap on the version
// column so concurrent writers cannot silently overwrite each other.
type MindmapAggregate interface {
	Create(ctx context.Context, in CreateMindmapInput) (*types.Mindmap, error)
	UpdateMeta(ctx context.Context, in UpdateMindmapMetaInput) (*types.Mindmap, error)
	ReplaceLayout(ctx context.Context, in ReplaceLayoutInput) (*types.Mindmap, error)
	AddNode(ctx context.Context, in AddNodeInput) (*types.Mindmap, *types.MindmapNode, error)
	RemoveNode(ctx context.Context, in NodeRefInput) (*types.Mindmap, error)
	MoveNode(ctx context.Context, in MoveNodeInput) (*types.Mindmap, error)
	UpdateNodeStatus(ctx context.Context, in UpdateNodeStatusInput) (*types.Mindmap, *types.MindmapNode, error)
	AddEdge(ctx context.Context, in AddEdgeInput) (*types.Mindmap, *types.MindmapEdge, error)
	RemoveEdge(ctx context.Context, in EdgeRefInput) (*types.Mindmap, error)
	AddCollaborator(ctx context.Context, in AddCollaboratorInput) (*types.Mindmap, error)
	RecordView(ctx context.Context, mindmapID, actorID uuid.UUID) (*types.Mindmap, error)
	Delete(ctx context.Context, mindmapID, actorID uuid.UUID) error
}

type CreateMindmapInput struct {
	ActorID          uuid.UUID
	Name             string
	Description      string
	Visibility       string
	Template         string
	IsTemplate       bool
	ParentTemplateID *uuid.UUID
	LayoutStyle      string
	Tags             []string
}

type UpdateMindmapMetaInput struct {
	ActorID     uuid.UUID
	MindmapID   uuid.UUID
	IfVersion   *int
	Name        *string
	Description *string
	Visibility  *string
	Tags        *[]string
}

type ReplaceLayoutInput struct {
	ActorID   uuid.UUID
	MindmapID uuid.UUID
	IfVersion *int
	Layout    types.MindmapLayout
}

type AddNodeInput struct {
	ActorID   uuid.UUID
	MindmapID uuid.UUID
	IfVersion *int
	Node      types.NodeInput
}

type NodeRefInput struct {
	ActorID   uuid.UUID
	MindmapID uuid.UUID
	IfVersion *int
	NodeID    string
}

type MoveNodeInput struct {
	ActorID   uuid.UUID
	MindmapID uuid.UUID
	IfVersion *int
	NodeID    string
	Position  types.Position
}

type UpdateNodeStatusInput struct {
	ActorID   uuid.UUID
	MindmapID uuid.UUID
	IfVersion *int
	NodeID    string
	Status    string
	Progress  *int
}

type AddEdgeInput struct {
	ActorID   uuid.UUID
	MindmapID uuid.UUID
	IfVersion *int
	Edge      types.EdgeInput
}

type EdgeRefInput struct {
	ActorID   uuid.UUID
	MindmapID uuid.UUID
	IfVersion *int
	EdgeID    string
}

type AddCollaboratorInput struct {
	ActorID    uuid.UUID
	MindmapID  uuid.UUID
	IfVersion  *int
	UserID     uuid.UUID
	Permission string
}

type mindmapAggregate struct {
	deps BaseDeps
}

func NewMindmapAggregate(deps BaseDeps) MindmapAggregate {
	return &mindmapAggregate{deps: deps.withDefaults()}
}

func (a *mindmapAggregate) Create(ctx context.Context, in CreateMindmapInput) (*types.Mindmap, error) {
	const op = "mindmap.create"
	if in.ActorID == uuid.Nil {
		return nil, MapError(op, ValidationError("actor id is required"))
	}
	if in.Name == "" || len(in.Name) > 200 {
		return nil, MapError(op, ValidationError("name must be 1-200 characters"))
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = types.VisibilityPrivate
	}
	if !types.ValidVisibility(visibility) {
		return nil, MapError(op, ValidationError("invalid visibility"))
	}
	template := in.Template
	if template == "" {
		template = types.TemplateCustom
	}
	if !types.ValidTemplate(template) {
		return nil, MapError(op, ValidationError("invalid template"))
	}
	style := in.LayoutStyle
	if style == "" {
		style = types.LayoutForceDirected
	}
	if !types.ValidLayoutStyle(style) {
		return nil, MapError(op, ValidationError("invalid layout style"))
	}

	m := &types.Mindmap{
		ID:               uuid.New(),
		UserID:           in.ActorID,
		Name:             in.Name,
		Description:      in.Description,
		Visibility:       visibility,
		Template:         template,
		IsTemplate:       in.IsTemplate,
		ParentTemplateID: in.ParentTemplateID,
		Tags:             in.Tags,
		Layout:           types.MindmapLayout{Style: style},
	}
	m.LogActivity(in.ActorID, types.ActionMindmapCreated, m.ID.String(), types.ActivityDetails{})

	err := executeWrite(ctx, a.deps, op, func(dbc dbctx.Context) error {
		return dbc.Tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// mutate is the shared load -> check -> apply -> CAS-save path for
// every structural write.
func (a *mindmapAggregate) mutate(ctx context.Context, op string, mindmapID, actorID uuid.UUID, ifVersion *int, apply func(m *types.Mindmap) error) (*types.Mindmap, error) {
	if mindmapID == uuid.Nil {
		return nil, MapError(op, ValidationError("mindmap id is required"))
	}
	if actorID == uuid.Nil {
		return nil, MapError(op, ValidationError("actor id is required"))
	}
	var out *types.Mindmap
	err := executeWrite(ctx, a.deps, op, func(dbc dbctx.Context) error {
		var m types.Mindmap
		if err := dbc.Tx.WithContext(dbc.Ctx).First(&m, "id = ?", mindmapID).Error; err != nil {
			return err
		}
		if !m.CanEdit(actorID) {
			return domainagg.NewError(domainagg.CodePermissionDenied, op, "editing requires edit or admin permission", nil)
		}
		if ifVersion != nil && *ifVersion != m.Version {
			return ConflictError("mindmap version has advanced since it was loaded")
		}
		loaded := m.Version
		if err := apply(&m); err != nil {
			return err
		}
		updates, err := a.persistedColumns(&m)
		if err != nil {
			return err
		}
		ok, err := a.deps.CASGuard.UpdateByVersion(dbc, m.TableName(), m.ID, loaded, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ConflictError("mindmap version has advanced since it was loaded")
		}
		m.Version = loaded + 1
		out = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// persistedColumns serializes the embedded documents by hand because
// the CAS update goes through Table(), which bypasses model hooks and
// serializers.
func (a *mindmapAggregate) persistedColumns(m *types.Mindmap) (map[string]any, error) {
	layout, err := jsonColumn(m.Layout)
	if err != nil {
		return nil, err
	}
	stats, err := jsonColumn(m.Stats)
	if err != nil {
		return nil, err
	}
	shared, err := jsonColumn(m.SharedWith)
	if err != nil {
		return nil, err
	}
	activity, err := jsonColumn(m.ActivityLog)
	if err != nil {
		return nil, err
	}
	tags, err := jsonColumn(m.Tags)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"name":        m.Name,
		"description": m.Description,
		"visibility":  m.Visibility,
		"shared_with": shared,
		"layout":      layout,
		"stats":       stats,
		"activity_log": activity,
		"tags":        tags,
		"version":     m.Version + 1,
		"updated_at":  time.Now().UTC(),
	}, nil
}

func jsonColumn(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func (a *mindmapAggregate) UpdateMeta(ctx context.Context, in UpdateMindmapMetaInput) (*types.Mindmap, error) {
	const op = "mindmap.update_meta"
	return a.mutate(ctx, op, in.MindmapID, in.ActorID, in.IfVersion, func(m *types.Mindmap) error {
		if in.Name != nil && *in.Name != m.Name {
			if *in.Name == "" || len(*in.Name) > 200 {
				return ValidationError("name must be 1-200 characters")
			}
			old := m.Name
			m.Name = *in.Name
			m.LogActivity(in.ActorID, types.ActionMindmapRenamed, m.ID.String(), types.ActivityDetails{
				Rename: &types.RenameDetails{OldName: old, NewName: m.Name},
			})
		}
		if in.Description != nil {
			m.Description = *in.Description
		}
		if in.Visibility != nil {
			if !types.ValidVisibility(*in.Visibility) {
				return ValidationError("invalid visibility")
			}
			m.Visibility = *in.Visibility
		}
		if in.Tags != nil {
			m.Tags = *in.Tags
		}
		m.UpdateStats()
		return nil
	})
}

func (a *mindmapAggregate) ReplaceLayout(ctx context.Context, in ReplaceLayoutInput) (*types.Mindmap, error) {
	const op = "mindmap.replace_layout"
	return a.mutate(ctx, op, in.MindmapID, in.ActorID, in.IfVersion, func(m *types.Mindmap) error {
		if in.Layout.Style != "" && !types.ValidLayoutStyle(in.Layout.Style) {
			return ValidationError("invalid layout style")
		}
		if err := validateLayout(in.Layout); err != nil {
			return err
		}
		if in.Layout.Style == "" {
			in.Layout.Style = m.Layout.Style
		}
		m.Layout = in.Layout
		m.UpdateStats()
		return nil
	})
}

// validateLayout checks the structural invariants of a full layout
// replacement: unique ids and edges that point at present nodes.
func validateLayout(layout types.MindmapLayout) error {
	nodeIDs := make(map[string]struct{}, len(layout.Nodes))
	for _, n := range layout.Nodes {
		if n.ID == "" {
			return ValidationError("every node requires an id")
		}
		if _, dup := nodeIDs[n.ID]; dup {
			return InvariantError("duplicate node id " + n.ID)
		}
		if n.Status != "" && !types.ValidNodeStatus(n.Status) {
			return ValidationError("invalid node status " + n.Status)
		}
		nodeIDs[n.ID] = struct{}{}
	}
	edgeIDs := make(map[string]struct{}, len(layout.Edges))
	for _, e := range layout.Edges {
		if e.ID == "" {
			return ValidationError("every edge requires an id")
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return InvariantError("duplicate edge id " + e.ID)
		}
		if e.Type != "" && !types.ValidEdgeType(e.Type) {
			return ValidationError("invalid edge type " + e.Type)
		}
		if _, ok := nodeIDs[e.Source]; !ok {
			return InvariantError("edge " + e.ID + " references missing source node")
		}
		if _, ok := nodeIDs[e.Target]; !ok {
			return InvariantError("edge " + e.ID + " references missing target node")
		}
		edgeIDs[e.ID] = struct{}{}
	}
	return nil
}

func (a *mindmapAggregate) AddNode(ctx context.Context, in AddNodeInput) (*types.Mindmap, *types.MindmapNode, error) {
	const op = "mindmap.add_node"
	var node types.MindmapNode
	m, err := a.mutate(ctx, op, in.MindmapID, in.ActorID, in.IfVersion, func(m *types.Mindmap) error {
		if in.Node.ID != "" && m.FindNode(in.Node.ID) != nil {
			return ConflictError("node id already present")
		}
		if in.Node.Status != "" && !types.ValidNodeStatus(in.Node.Status) {
			return ValidationError("invalid node status")
		}
		node = *m.AddNode(in.ActorID, in.Node)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return m, &node, nil
}

func (a *mindmapAggregate) RemoveNode(ctx context.Context, in NodeRefInput) (*types.Mindmap, error) {
	const op = "mindmap.remove_node"
	return a.mutate(ctx, op, in.MindmapID, in.ActorID, in.IfVersion, func(m *types.Mindmap) error {
		if !m.RemoveNode(in.ActorID, in.NodeID) {
			return domainagg.NewError(domainagg.CodeNotFound, op, "node not found", nil)
		}
		return nil
	})
}

func (a *mindmapAggregate) MoveNode(ctx context.Context, in MoveNodeInput) (*types.Mindmap, error) {
	const op = "mindmap.move_node"
	return a.mutate(ctx, op, in.MindmapID, in.ActorID, in.IfVersion, func(m *types.Mindmap) error {
		if !m.MoveNode(in.ActorID, in.NodeID, in.Position) {
			return domainagg.NewError(domainagg.CodeNotFound, op, "node not found", nil)
		}
		return nil
	})
}

func (a *mindmapAggregate) UpdateNodeStatus(ctx context.Context, in UpdateNodeStatusInput) (*types.Mindmap, *types.MindmapNode, error) {
	const op = "mindmap.update_node_status"
	if !types.ValidNodeStatus(in.Status) {
		return nil, nil, MapError(op, ValidationError("invalid node status"))
	}
	if in.Progress != nil && (*in.Progress < 0 || *in.Progress > 100) {
		return nil, nil, MapError(op, ValidationError("progress must be between 0 and 100"))
	}
	var node types.MindmapNode
	m, err := a.mutate(ctx, op, in.MindmapID, in.ActorID, in.IfVersion, func(m *types.Mindmap) error {
		if !m.UpdateNodeStatus(in.ActorID, in.NodeID, in.Status, in.Progress) {
			return domainagg.NewError(domainagg.CodeNotFound, op, "node not found", nil)
		}
		node = *m.FindNode(in.NodeID)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return m, &node, nil
}

func (a *mindmapAggregate) AddEdge(ctx context.Context, in AddEdgeInput) (*types.Mindmap, *types.MindmapEdge, error) {
	const op = "mindmap.add_edge"
	var edge types.MindmapEdge
	m, err := a.mutate(ctx, op, in.MindmapID, in.ActorID, in.IfVersion, func(m *types.Mindmap) error {
		if in.Edge.Type != "" && !types.ValidEdgeType(in.Edge.Type) {
			return ValidationError("invalid edge type")
		}
		if in.Edge.Strength < 0 || in.Edge.Strength > 1 {
			return ValidationError("edge strength must be between 0 and 1")
		}
		if m.FindNode(in.Edge.Source) == nil || m.FindNode(in.Edge.Target) == nil {
			return InvariantError("edge endpoints must reference existing nodes")
		}
		edge = *m.AddEdge(in.ActorID, in.Edge)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return m, &edge, nil
}

func (a *mindmapAggregate) RemoveEdge(ctx context.Context, in EdgeRefInput) (*types.Mindmap, error) {
	const op = "mindmap.remove_edge"
	return a.mutate(ctx, op, in.MindmapID, in.ActorID, in.IfVersion, func(m *types.Mindmap) error {
		if !m.RemoveEdge(in.ActorID, in.EdgeID) {
			return domainagg.NewError(domainagg.CodeNotFound, op, "edge not found", nil)
		}
		return nil
	})
}

// AddCollaborator requires admin permission rather than edit: sharing
// is an ownership concern.
func (a *mindmapAggregate) AddCollaborator(ctx context.Context, in AddCollaboratorInput) (*types.Mindmap, error) {
	const op = "mindmap.add_collaborator"
	if in.UserID == uuid.Nil {
		return nil, MapError(op, ValidationError("collaborator user id is required"))
	}
	if in.Permission == "" {
		in.Permission = types.PermissionView
	}
	if !types.ValidPermission(in.Permission) {
		return nil, MapError(op, ValidationError("invalid permission"))
	}
	if in.MindmapID == uuid.Nil || in.ActorID == uuid.Nil {
		return nil, MapError(op, ValidationError("mindmap id and actor id are required"))
	}
	var out *types.Mindmap
	err := executeWrite(ctx, a.deps, op, func(dbc dbctx.Context) error {
		var m types.Mindmap
		if err := dbc.Tx.WithContext(dbc.Ctx).First(&m, "id = ?", in.MindmapID).Error; err != nil {
			return err
		}
		if perm, ok := m.CollaboratorPermission(in.ActorID); !ok || perm != types.PermissionAdmin {
			return domainagg.NewError(domainagg.CodePermissionDenied, op, "sharing requires admin permission", nil)
		}
		if in.UserID == m.UserID {
			return ValidationError("owner already holds admin access")
		}
		if in.IfVersion != nil && *in.IfVersion != m.Version {
			return ConflictError("mindmap version has advanced since it was loaded")
		}
		var count int64
		if err := dbc.Tx.WithContext(dbc.Ctx).Model(&types.User{}).Where("id = ?", in.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, "collaborator user does not exist", nil)
		}
		loaded := m.Version
		m.AddCollaborator(in.ActorID, in.UserID, in.Permission)
		if m.Visibility == types.VisibilityPrivate {
			m.Visibility = types.VisibilityShared
		}
		updates, err := a.persistedColumns(&m)
		if err != nil {
			return err
		}
		ok, err := a.deps.CASGuard.UpdateByVersion(dbc, m.TableName(), m.ID, loaded, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ConflictError("mindmap version has advanced since it was loaded")
		}
		m.Version = loaded + 1
		out = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordView bumps the view counter and last-accessed stamp for a
// reader who may not hold edit rights, so it bypasses the edit check
// but still goes through the version guard.
func (a *mindmapAggregate) RecordView(ctx context.Context, mindmapID, actorID uuid.UUID) (*types.Mindmap, error) {
	const op = "mindmap.record_view"
	if mindmapID == uuid.Nil {
		return nil, MapError(op, ValidationError("mindmap id is required"))
	}
	var out *types.Mindmap
	err := executeWrite(ctx, a.deps, op, func(dbc dbctx.Context) error {
		var m types.Mindmap
		if err := dbc.Tx.WithContext(dbc.Ctx).First(&m, "id = ?", mindmapID).Error; err != nil {
			return err
		}
		if !m.CanView(actorID) {
			return domainagg.NewError(domainagg.CodeNotFound, op, "mindmap not found", nil)
		}
		loaded := m.Version
		m.Stats.ViewCount++
		m.UpdateStats()
		updates, err := a.persistedColumns(&m)
		if err != nil {
			return err
		}
		ok, err := a.deps.CASGuard.UpdateByVersion(dbc, m.TableName(), m.ID, loaded, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ConflictError("mindmap version has advanced since it was loaded")
		}
		m.Version = loaded + 1
		out = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *mindmapAggregate) Delete(ctx context.Context, mindmapID, actorID uuid.UUID) error {
	const op = "mindmap.delete"
	if mindmapID == uuid.Nil || actorID == uuid.Nil {
		return MapError(op, ValidationError("mindmap id and actor id are required"))
	}
	return executeWrite(ctx, a.deps, op, func(dbc dbctx.Context) error {
		var m types.Mindmap
		if err := dbc.Tx.WithContext(dbc.Ctx).First(&m, "id = ?", mindmapID).Error; err != nil {
			return err
		}
		if m.UserID != actorID {
			return domainagg.NewError(domainagg.CodePermissionDenied, op, "only the owner may delete a mindmap", nil)
		}
		return dbc.Tx.WithContext(dbc.Ctx).Delete(&types.Mindmap{}, "id = ?", mindmapID).Error
	})
}
