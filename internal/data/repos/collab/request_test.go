package collab

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf-backend/internal/data/repos/testutil"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
)

func TestCollabRequestAndPendingRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	requestRepo := NewCollabRequestRepo(db, log)
	pendingRepo := NewPendingCollabRepo(db, log)

	materialID := uuid.New()
	requester := uuid.New()
	inviteeA := uuid.New()
	inviteeB := uuid.New()

	req := &types.CollabRequest{
		ID:          uuid.New(),
		MaterialID:  materialID,
		RequestedBy: requester,
	}
	if err := req.SetInvitees(types.NewInvitees([]uuid.UUID{inviteeA, inviteeB})); err != nil {
		t.Fatalf("SetInvitees: %v", err)
	}
	if _, err := requestRepo.Create(dbc, []*types.CollabRequest{req}); err != nil {
		t.Fatalf("Create request: %v", err)
	}

	entries := []*types.PendingCollabEntry{
		{ID: uuid.New(), RequestID: req.ID, RequestedTo: inviteeA},
		{ID: uuid.New(), RequestID: req.ID, RequestedTo: inviteeB},
	}
	if _, err := pendingRepo.Create(dbc, entries); err != nil {
		t.Fatalf("Create pending entries: %v", err)
	}

	got, err := requestRepo.GetByID(dbc, req.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.CollabStatusPending {
		t.Fatalf("status = %q, want pending", got.Status)
	}
	if len(got.Invitees()) != 2 {
		t.Fatalf("invitees = %d, want 2", len(got.Invitees()))
	}

	entry, err := pendingRepo.GetByRequestAndInvitee(dbc, req.ID, inviteeA)
	if err != nil {
		t.Fatalf("GetByRequestAndInvitee: %v", err)
	}
	if err := pendingRepo.UpdateAction(dbc, entry.ID, types.CollabActionAccepted); err != nil {
		t.Fatalf("UpdateAction: %v", err)
	}
	entry, _ = pendingRepo.GetByRequestAndInvitee(dbc, req.ID, inviteeA)
	if entry.Action != types.CollabActionAccepted {
		t.Fatalf("action = %q, want accepted", entry.Action)
	}

	mine, err := pendingRepo.GetByInviteeID(dbc, inviteeB)
	if err != nil || len(mine) != 1 {
		t.Fatalf("GetByInviteeID: err=%v len=%d", err, len(mine))
	}

	if err := pendingRepo.FullDeleteByRequestIDs(dbc, []uuid.UUID{req.ID}); err != nil {
		t.Fatalf("FullDeleteByRequestIDs: %v", err)
	}
	if err := requestRepo.FullDeleteByMaterialIDs(dbc, []uuid.UUID{materialID}); err != nil {
		t.Fatalf("FullDeleteByMaterialIDs: %v", err)
	}
}

func TestCollabRosterRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCollabRosterRepo(db, testutil.Logger(t))

	materialID := uuid.New()
	member := uuid.New()

	roster := &types.CollabRoster{
		ID:           uuid.New(),
		MaterialID:   materialID,
		Contributors: []byte(`[]`),
	}
	if !roster.AddMember(member, time.Now().UTC()) {
		t.Fatalf("AddMember on empty roster should change it")
	}
	if _, err := repo.Create(dbc, []*types.CollabRoster{roster}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByMaterialID(dbc, materialID)
	if err != nil {
		t.Fatalf("GetByMaterialID: %v", err)
	}
	members := got.Members()
	if len(members) != 1 || members[0].AuthorID != member {
		t.Fatalf("Members = %+v", members)
	}

	if got.AddMember(member, time.Now().UTC()) {
		t.Fatalf("duplicate AddMember should be a no-op")
	}

	if err := repo.FullDeleteByMaterialIDs(dbc, []uuid.UUID{materialID}); err != nil {
		t.Fatalf("FullDeleteByMaterialIDs: %v", err)
	}
}
