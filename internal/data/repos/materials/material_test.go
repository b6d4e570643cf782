package materials

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf-backend/internal/data/repos/testutil"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
)

func seedUser(t *testing.T, dbc dbctx.Context, email string) *types.User {
	t.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestMaterialRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMaterialRepo(db, testutil.Logger(t))

	author := seedUser(t, dbc, "materialrepo@example.com")

	m := &types.Material{
		ID:              uuid.New(),
		Title:           "Intro to Databases",
		PrimaryAuthorID: author.ID,
		StorageKey:      "materials/" + uuid.NewString(),
		ContentHash:     "abc",
		Disciplines:     []byte(`["Computer Science","Databases"]`),
		Accessibility:   []byte(`{"open":true}`),
	}
	if _, err := repo.Create(dbc, []*types.Material{m}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(dbc, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Intro to Databases" {
		t.Fatalf("GetByID title = %q", got.Title)
	}

	if rows, err := repo.GetByPrimaryAuthorID(dbc, author.ID); err != nil || len(rows) != 1 {
		t.Fatalf("GetByPrimaryAuthorID: err=%v len=%d", err, len(rows))
	}

	if err := repo.IncrementReads(dbc, m.ID); err != nil {
		t.Fatalf("IncrementReads: %v", err)
	}
	if err := repo.IncrementReads(dbc, m.ID); err != nil {
		t.Fatalf("IncrementReads: %v", err)
	}
	got, err = repo.GetByID(dbc, m.ID)
	if err != nil {
		t.Fatalf("GetByID after increments: %v", err)
	}
	if got.TotalReads != 2 {
		t.Fatalf("TotalReads = %d, want 2", got.TotalReads)
	}

	other := &types.Material{
		ID:              uuid.New(),
		Title:           "Relational Algebra",
		PrimaryAuthorID: author.ID,
		StorageKey:      "materials/" + uuid.NewString(),
		ContentHash:     "def",
		Disciplines:     []byte(`["Databases"]`),
	}
	if _, err := repo.Create(dbc, []*types.Material{other}); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	similar, err := repo.GetByDisciplines(dbc, []string{"Databases"}, m.ID, 10)
	if err != nil {
		t.Fatalf("GetByDisciplines: %v", err)
	}
	if len(similar) != 1 || similar[0].ID != other.ID {
		t.Fatalf("GetByDisciplines: got %d rows", len(similar))
	}

	names, err := repo.DistinctDisciplines(dbc)
	if err != nil {
		t.Fatalf("DistinctDisciplines: %v", err)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["Computer Science"] || !seen["Databases"] {
		t.Fatalf("DistinctDisciplines = %v", names)
	}

	if err := repo.UpdateFields(dbc, m.ID, map[string]interface{}{"title": "Updated"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, _ = repo.GetByID(dbc, m.ID)
	if got.Title != "Updated" {
		t.Fatalf("title after UpdateFields = %q", got.Title)
	}

	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{m.ID, other.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{m.ID, other.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after FullDeleteByIDs: err=%v len=%d", err, len(rows))
	}
}

func TestGetByDisciplinesHandlesQuotedNames(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMaterialRepo(db, testutil.Logger(t))

	author := seedUser(t, dbc, "quoteddisciplines@example.com")

	// Names with quotes and backslashes come straight from user input.
	names := []string{`Sci"Fi Studies`, `Path\ology`}
	raw, err := json.Marshal(names)
	if err != nil {
		t.Fatalf("marshal disciplines: %v", err)
	}
	m := &types.Material{
		ID:              uuid.New(),
		Title:           "Oddly Named Fields",
		PrimaryAuthorID: author.ID,
		StorageKey:      "materials/" + uuid.NewString(),
		ContentHash:     "ghi",
		Disciplines:     raw,
	}
	if _, err := repo.Create(dbc, []*types.Material{m}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, name := range names {
		rows, err := repo.GetByDisciplines(dbc, []string{name}, uuid.Nil, 10)
		if err != nil {
			t.Fatalf("GetByDisciplines(%q): %v", name, err)
		}
		if len(rows) != 1 || rows[0].ID != m.ID {
			t.Fatalf("GetByDisciplines(%q): got %d rows", name, len(rows))
		}
	}
}
