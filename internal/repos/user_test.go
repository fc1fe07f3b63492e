package repos

import (
	"context"
	"testing"

	"github.com/yungbote/knowledgebase-backend/internal/repos/testutil"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	user := seedUser(t, tx, "repo@example.com")

	got, err := repo.GetByEmail(ctx, tx, "repo@example.com")
	if err != nil || got.ID != user.ID {
		t.Fatalf("GetByEmail: err=%v", err)
	}

	exists, err := repo.EmailExists(ctx, tx, "repo@example.com")
	if err != nil || !exists {
		t.Fatalf("EmailExists: err=%v exists=%v", err, exists)
	}
	exists, err = repo.EmailExists(ctx, tx, "nobody@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists(missing): err=%v exists=%v", err, exists)
	}

	prefs := types.UserPreferences{
		LearningStyle:        types.LearningStyleVisual,
		DifficultyPreference: types.DifficultyAdvanced,
	}
	if err := repo.UpdatePreferences(ctx, tx, user.ID, prefs); err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Preferences.LearningStyle != types.LearningStyleVisual {
		t.Fatalf("preferences not persisted: %+v", got.Preferences)
	}

	if err := repo.TouchLastLogin(ctx, tx, user.ID); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, user.ID)
	if err != nil || got.Profile.LastLogin == nil {
		t.Fatalf("last login not stamped: err=%v profile=%+v", err, got.Profile)
	}
}
