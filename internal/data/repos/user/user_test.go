package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf-backend/internal/data/repos/testutil"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
)

func TestUserAndProfileRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	userRepo := NewUserRepo(db, log)
	profileRepo := NewProfileRepo(db, log)

	u := &types.User{
		ID:        uuid.New(),
		Email:     "userrepo@example.com",
		Password:  "pw",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
	if _, err := userRepo.Create(dbc, []*types.User{u}); err != nil {
		t.Fatalf("Create user: %v", err)
	}

	byEmail, err := userRepo.GetByEmail(dbc, "userrepo@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("GetByEmail: err=%v", err)
	}

	p := &types.Profile{
		ID:        uuid.New(),
		UserID:    u.ID,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      types.RoleFaculty,
	}
	if _, err := profileRepo.Create(dbc, []*types.Profile{p}); err != nil {
		t.Fatalf("Create profile: %v", err)
	}

	got, err := profileRepo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got.Role != types.RoleFaculty {
		t.Fatalf("role = %q", got.Role)
	}

	if err := profileRepo.UpdateFields(dbc, u.ID, map[string]interface{}{"occupation": "Professor"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, _ = profileRepo.GetByUserID(dbc, u.ID)
	if got.Occupation != "Professor" {
		t.Fatalf("occupation = %q", got.Occupation)
	}

	if err := profileRepo.FullDeleteByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil {
		t.Fatalf("FullDeleteByUserIDs: %v", err)
	}
	if err := userRepo.FullDeleteByIDs(dbc, []uuid.UUID{u.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
}

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	userID := uuid.New()
	tok := &types.UserToken{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  "access",
		RefreshToken: "refresh-" + uuid.NewString(),
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
	}
	if _, err := repo.Create(dbc, []*types.UserToken{tok}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByRefreshToken(dbc, tok.RefreshToken)
	if err != nil || got.UserID != userID {
		t.Fatalf("GetByRefreshToken: err=%v", err)
	}

	if err := repo.FullDeleteByUserIDs(dbc, []uuid.UUID{userID}); err != nil {
		t.Fatalf("FullDeleteByUserIDs: %v", err)
	}
	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{userID}); err != nil || len(rows) != 0 {
		t.Fatalf("after delete: err=%v len=%d", err, len(rows))
	}
}
