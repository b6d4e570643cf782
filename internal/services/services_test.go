package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/content"
	"github.com/openshelf/openshelf-backend/internal/data/repos"
	"github.com/openshelf/openshelf-backend/internal/data/repos/testutil"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/media"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/ledger"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

// harness wires the full service stack against the test database with an
// in-memory content store and a disabled ledger. Service transactions
// commit, so tests seed with fresh uuids and clean up after themselves.
type harness struct {
	db  *gorm.DB
	log *logger.Logger

	userRepo     repos.UserRepo
	profileRepo  repos.ProfileRepo
	materialRepo repos.MaterialRepo
	requestRepo  repos.CollabRequestRepo
	pendingRepo  repos.PendingCollabRepo
	rosterRepo   repos.CollabRosterRepo
	ratingRepo   repos.RatingRepo

	store content.Store

	ingest     IngestionService
	collab     CollaborationService
	retrieval  RetrievalService
	engagement EngagementService
	materials  MaterialService
	analytics  AnalyticsService
}

// nopCache always misses so analytics tests read fresh aggregates.
type nopCache struct{}

func (nopCache) GetJSON(ctx context.Context, key string, dest interface{}) bool { return false }

func (nopCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {}

func (nopCache) Invalidate(ctx context.Context, keys ...string) {}

func (nopCache) Close() error { return nil }

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.DB(t)
	log := testutil.Logger(t)

	h := &harness{
		db:           db,
		log:          log,
		userRepo:     repos.NewUserRepo(db, log),
		profileRepo:  repos.NewProfileRepo(db, log),
		materialRepo: repos.NewMaterialRepo(db, log),
		requestRepo:  repos.NewCollabRequestRepo(db, log),
		pendingRepo:  repos.NewPendingCollabRepo(db, log),
		rosterRepo:   repos.NewCollabRosterRepo(db, log),
		ratingRepo:   repos.NewRatingRepo(db, log),
		store:        content.NewMemoryStore(),
	}

	commentRepo := repos.NewCommentRepo(db, log)
	readingRepo := repos.NewReadingListRepo(db, log)
	covers := media.NewCoverMaker(log)
	gate := NewAccessGateService(db, log, h.profileRepo, ledger.Noop{}, false)

	h.ingest = NewIngestionService(db, log, h.userRepo, h.materialRepo, h.requestRepo, h.pendingRepo, h.store, covers, ledger.Noop{})
	h.collab = NewCollaborationService(db, log, h.materialRepo, h.requestRepo, h.pendingRepo, h.rosterRepo)
	h.retrieval = NewRetrievalService(db, log, h.materialRepo, h.profileRepo, h.ratingRepo, commentRepo, readingRepo, h.store, gate)
	h.engagement = NewEngagementService(db, log, h.materialRepo, h.ratingRepo, commentRepo, readingRepo)
	h.materials = NewMaterialService(db, log, h.materialRepo, h.requestRepo, h.pendingRepo, h.rosterRepo, h.ratingRepo, commentRepo, readingRepo, h.store, covers, gate, ledger.Noop{})
	h.analytics = NewAnalyticsService(db, log, h.userRepo, h.materialRepo, h.profileRepo, nopCache{})
	return h
}

func (h *harness) seedUser(t *testing.T, firstName, role string) *types.User {
	t.Helper()
	dbc := dbctx.Context{Ctx: context.Background()}

	u := &types.User{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  "Tester",
		Email:     fmt.Sprintf("%s-%s@test.local", firstName, uuid.NewString()[:8]),
		Password:  "not-a-real-hash",
	}
	created, err := h.userRepo.Create(dbc, []*types.User{u})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := h.profileRepo.Create(dbc, []*types.Profile{{UserID: created[0].ID, Role: role}}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	t.Cleanup(func() {
		dbc := dbctx.Context{}
		_ = h.profileRepo.FullDeleteByUserIDs(dbc, []uuid.UUID{created[0].ID})
		_ = h.userRepo.FullDeleteByIDs(dbc, []uuid.UUID{created[0].ID})
	})
	return created[0]
}

// uploadMaterial ingests a small text payload and registers a cleanup that
// cascades the material away even when the test fails midway.
func (h *harness) uploadMaterial(t *testing.T, input UploadMaterialInput) *UploadMaterialResult {
	t.Helper()

	result, err := h.ingest.Upload(context.Background(), input)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	t.Cleanup(func() {
		_ = h.materials.Delete(context.Background(), result.Material.ID, input.PrimaryAuthorID)
	})
	return result
}
