package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/pkg/dbctx"
	"github.com/yungbote/knowledgebase-backend/internal/repos/testutil"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

func seedOwner(t *testing.T, tx *gorm.DB) *types.User {
	t.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@test.dev",
		Profile:  types.UserProfile{Name: "Owner"},
		IsActive: true,
	}
	if err := u.SetPassword("integration-pw"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := tx.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestMindmapWriteVersioning(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	owner := seedOwner(t, tx)
	agg := NewMindmapAggregate(BaseDeps{DB: tx, Log: testutil.Logger(t)})

	m, err := agg.Create(ctx, CreateMindmapInput{ActorID: owner.ID, Name: "Versioned"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	loaded := m.Version

	m, node, err := agg.AddNode(ctx, AddNodeInput{
		ActorID:   owner.ID,
		MindmapID: m.ID,
		Node:      types.NodeInput{Position: types.Position{X: 1, Y: 2}},
	})
	if err != nil {
		t.Fatalf("add node: %v", err)
	}
	if node.ID == "" {
		t.Fatal("expected generated node id")
	}
	if m.Version != loaded+1 {
		t.Fatalf("got version %d, want %d", m.Version, loaded+1)
	}

	// A precondition pinned to an old version must be rejected.
	stale := loaded
	_, _, err = agg.AddNode(ctx, AddNodeInput{
		ActorID:   owner.ID,
		MindmapID: m.ID,
		IfVersion: &stale,
		Node:      types.NodeInput{Position: types.Position{X: 3, Y: 4}},
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("got %v, want conflict", err)
	}

	// And the matching version must be accepted.
	current := m.Version
	if _, _, err := agg.AddNode(ctx, AddNodeInput{
		ActorID:   owner.ID,
		MindmapID: m.ID,
		IfVersion: &current,
		Node:      types.NodeInput{Position: types.Position{X: 5, Y: 6}},
	}); err != nil {
		t.Fatalf("add node with matching version: %v", err)
	}
}

func TestAddCollaboratorDefaultsToView(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	owner := seedOwner(t, tx)
	invited := seedOwner(t, tx)
	agg := NewMindmapAggregate(BaseDeps{DB: tx, Log: testutil.Logger(t)})

	m, err := agg.Create(ctx, CreateMindmapInput{ActorID: owner.ID, Name: "Shared"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m, err = agg.AddCollaborator(ctx, AddCollaboratorInput{
		ActorID:   owner.ID,
		MindmapID: m.ID,
		UserID:    invited.ID,
	})
	if err != nil {
		t.Fatalf("add collaborator: %v", err)
	}
	perm, ok := m.CollaboratorPermission(invited.ID)
	if !ok {
		t.Fatal("collaborator not recorded")
	}
	if perm != types.PermissionView {
		t.Fatalf("permission = %q, want %q", perm, types.PermissionView)
	}
}

func TestCASGuardRejectsStaleVersion(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	owner := seedOwner(t, tx)
	agg := NewMindmapAggregate(BaseDeps{DB: tx, Log: testutil.Logger(t)})
	m, err := agg.Create(ctx, CreateMindmapInput{ActorID: owner.ID, Name: "Guarded"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	guard := NewCASGuard(tx)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	ok, err := guard.UpdateByVersion(dbc, m.TableName(), m.ID, m.Version+5, map[string]any{
		"name":    "never applied",
		"version": m.Version + 6,
	})
	if err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if ok {
		t.Fatal("expected stale version to update nothing")
	}

	ok, err = guard.UpdateByVersion(dbc, m.TableName(), m.ID, m.Version, map[string]any{
		"name":    "applied",
		"version": m.Version + 1,
	})
	if err != nil {
		t.Fatalf("matching update: %v", err)
	}
	if !ok {
		t.Fatal("expected matching version to update the row")
	}
}
