package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/repos/testutil"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

func seedUser(t *testing.T, tx *gorm.DB, email string) *types.User {
	t.Helper()
	user := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "x",
		Profile:      types.UserProfile{Name: "Test User"},
		Preferences:  types.DefaultUserPreferences(),
		IsActive:     true,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestMindmapRepoQueries(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMindmapRepo(db, testutil.Logger(t))

	owner := seedUser(t, tx, "owner@example.com")
	collab := seedUser(t, tx, "collab@example.com")
	stranger := seedUser(t, tx, "stranger@example.com")

	owned := &types.Mindmap{
		ID:     uuid.New(),
		UserID: owner.ID,
		Name:   "owned map",
		Layout: types.MindmapLayout{Style: types.LayoutForceDirected},
	}
	owned.AddNode(owner.ID, types.NodeInput{ID: "n1"})
	if err := tx.Create(owned).Error; err != nil {
		t.Fatalf("create owned: %v", err)
	}

	shared := &types.Mindmap{
		ID:         uuid.New(),
		UserID:     stranger.ID,
		Name:       "shared map",
		Visibility: types.VisibilityShared,
		Layout:     types.MindmapLayout{Style: types.LayoutForceDirected},
	}
	shared.AddCollaborator(stranger.ID, collab.ID, types.PermissionView)
	if err := tx.Create(shared).Error; err != nil {
		t.Fatalf("create shared: %v", err)
	}

	public := &types.Mindmap{
		ID:         uuid.New(),
		UserID:     stranger.ID,
		Name:       "public map",
		Visibility: types.VisibilityPublic,
		Layout:     types.MindmapLayout{Style: types.LayoutCircular},
	}
	if err := tx.Create(public).Error; err != nil {
		t.Fatalf("create public: %v", err)
	}

	template := &types.Mindmap{
		ID:         uuid.New(),
		UserID:     stranger.ID,
		Name:       "starter template",
		Visibility: types.VisibilityPublic,
		IsTemplate: true,
		Template:   types.TemplateProgramming,
		Layout:     types.MindmapLayout{Style: types.LayoutHierarchical},
	}
	if err := tx.Create(template).Error; err != nil {
		t.Fatalf("create template: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, owned.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Stats.TotalNodes != 1 {
		t.Fatalf("stats not persisted: %+v", got.Stats)
	}
	if got.Layout.Nodes[0].ID != "n1" {
		t.Fatalf("layout not round-tripped: %+v", got.Layout)
	}

	ownerMaps, err := repo.GetByUser(ctx, tx, owner.ID)
	if err != nil || len(ownerMaps) != 1 {
		t.Fatalf("GetByUser(owner): err=%v len=%d", err, len(ownerMaps))
	}

	collabMaps, err := repo.GetByUser(ctx, tx, collab.ID)
	if err != nil || len(collabMaps) != 1 {
		t.Fatalf("GetByUser(collab): err=%v len=%d", err, len(collabMaps))
	}
	if collabMaps[0].ID != shared.ID {
		t.Fatalf("collaborator sees wrong map: %v", collabMaps[0].ID)
	}

	publicMaps, err := repo.GetPublic(ctx, tx, 10)
	if err != nil || len(publicMaps) != 2 {
		t.Fatalf("GetPublic: err=%v len=%d", err, len(publicMaps))
	}

	templates, err := repo.GetTemplates(ctx, tx)
	if err != nil || len(templates) != 1 {
		t.Fatalf("GetTemplates: err=%v len=%d", err, len(templates))
	}
	if templates[0].ID != template.ID {
		t.Fatalf("wrong template: %v", templates[0].ID)
	}

	count, err := repo.CountByUser(ctx, tx, stranger.ID)
	if err != nil || count != 3 {
		t.Fatalf("CountByUser: err=%v count=%d", err, count)
	}
}

func TestMindmapRepoOrdering(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMindmapRepo(db, testutil.Logger(t))

	owner := seedUser(t, tx, "ordering@example.com")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seedPublic := func(name string, views int, createdAt time.Time, isTemplate bool) uuid.UUID {
		m := &types.Mindmap{
			ID:         uuid.New(),
			UserID:     owner.ID,
			Name:       name,
			Visibility: types.VisibilityPublic,
			IsTemplate: isTemplate,
			Template:   types.TemplateCustom,
			Layout:     types.MindmapLayout{Style: types.LayoutForceDirected},
			Stats:      types.MindmapStats{ViewCount: views},
			CreatedAt:  createdAt,
		}
		if err := tx.Create(m).Error; err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		return m.ID
	}

	older := seedPublic("older quiet", 5, base, false)
	popular := seedPublic("popular", 10, base.Add(time.Hour), false)
	newer := seedPublic("newer quiet", 5, base.Add(2*time.Hour), false)

	publicMaps, err := repo.GetPublic(ctx, tx, 10)
	if err != nil || len(publicMaps) != 3 {
		t.Fatalf("GetPublic: err=%v len=%d", err, len(publicMaps))
	}
	wantPublic := []uuid.UUID{popular, newer, older}
	for i, want := range wantPublic {
		if publicMaps[i].ID != want {
			t.Fatalf("public[%d] = %s (%q), want %s", i, publicMaps[i].ID, publicMaps[i].Name, want)
		}
	}

	quietTpl := seedPublic("quiet template", 1, base, true)
	busyTpl := seedPublic("busy template", 7, base, true)

	templates, err := repo.GetTemplates(ctx, tx)
	if err != nil || len(templates) != 2 {
		t.Fatalf("GetTemplates: err=%v len=%d", err, len(templates))
	}
	if templates[0].ID != busyTpl || templates[1].ID != quietTpl {
		t.Fatalf("templates not ordered by view count: %q, %q", templates[0].Name, templates[1].Name)
	}
}
