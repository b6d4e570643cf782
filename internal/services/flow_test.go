package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf-backend/internal/content"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
)

const samplePayload = "Graph coloring is the assignment of labels to the vertices of a graph " +
	"such that no two adjacent vertices share a label."

func TestUploadCreatesMaterialAndInvitations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)
	invitee := h.seedUser(t, "Invitee", types.RoleStudent)

	result := h.uploadMaterial(t, UploadMaterialInput{
		Title:           "Graph Coloring Notes",
		Description:     "Lecture notes",
		PrimaryAuthorID: owner.ID,
		Payload:         []byte(samplePayload),
		Contributors:    []string{invitee.ID.String(), "Ada External"},
		MaterialType:    "notes",
		TargetAudience:  "undergraduate",
		Disciplines:     []string{"Mathematics"},
		Accessibility:   types.OpenAccess(),
	})

	material := result.Material
	if len(material.ContentHash) != 64 {
		t.Fatalf("ContentHash = %q, want 64 hex chars", material.ContentHash)
	}
	if material.AverageRating != 3 {
		t.Fatalf("AverageRating = %v, want prior 3", material.AverageRating)
	}
	if got := material.ContributorIDs(); len(got) != 0 {
		t.Fatalf("contributors before acceptance = %v, want none", got)
	}

	stored, err := h.store.Get(ctx, material.StorageKey)
	if err != nil {
		t.Fatalf("stored payload: %v", err)
	}
	raw, err := content.Decompress(stored)
	if err != nil {
		t.Fatalf("decompress stored payload: %v", err)
	}
	if !bytes.Equal(raw, []byte(samplePayload)) {
		t.Fatal("stored payload does not round-trip")
	}

	if result.CollabRequest == nil {
		t.Fatal("expected a collaboration request for the registered contributor")
	}
	if result.CollabRequest.Status != types.CollabStatusPending {
		t.Fatalf("request status = %q, want pending", result.CollabRequest.Status)
	}
	if len(result.InvitedAuthors) != 1 || result.InvitedAuthors[0] != invitee.ID {
		t.Fatalf("InvitedAuthors = %v, want [%s]", result.InvitedAuthors, invitee.ID)
	}

	pending, err := h.collab.GetPendingForUser(ctx, invitee.ID)
	if err != nil {
		t.Fatalf("GetPendingForUser: %v", err)
	}
	if len(pending) != 1 || pending[0].Material == nil || pending[0].Material.ID != material.ID {
		t.Fatalf("pending invitations = %+v, want one for the uploaded material", pending)
	}
}

func TestAcceptEnrollsContributorAndIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)
	invitee := h.seedUser(t, "Invitee", types.RoleStudent)

	result := h.uploadMaterial(t, UploadMaterialInput{
		Title:           "Shared Notes",
		PrimaryAuthorID: owner.ID,
		Payload:         []byte(samplePayload),
		Contributors:    []string{invitee.ID.String()},
		Accessibility:   types.OpenAccess(),
	})

	request, err := h.collab.Accept(ctx, result.CollabRequest.ID, invitee.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if request.Status != types.CollabStatusAccepted {
		t.Fatalf("status after accept = %q, want accepted", request.Status)
	}

	dbc := dbctx.Context{Ctx: ctx}
	material, err := h.materialRepo.GetByID(dbc, result.Material.ID)
	if err != nil {
		t.Fatalf("reload material: %v", err)
	}
	ids := material.ContributorIDs()
	if len(ids) != 1 || ids[0] != invitee.ID {
		t.Fatalf("contributors after accept = %v, want [%s]", ids, invitee.ID)
	}

	roster, err := h.rosterRepo.GetByMaterialID(dbc, material.ID)
	if err != nil {
		t.Fatalf("load roster: %v", err)
	}
	members := roster.Members()
	if len(members) != 1 || members[0].AuthorID != invitee.ID {
		t.Fatalf("roster members = %v, want [%s]", members, invitee.ID)
	}

	// Answering a second time changes nothing.
	if _, err := h.collab.Accept(ctx, result.CollabRequest.ID, invitee.ID); err != nil {
		t.Fatalf("second Accept: %v", err)
	}
	material, err = h.materialRepo.GetByID(dbc, material.ID)
	if err != nil {
		t.Fatalf("reload material: %v", err)
	}
	if got := material.ContributorIDs(); len(got) != 1 {
		t.Fatalf("contributors after double accept = %v, want one entry", got)
	}
}

func TestRejectWinsOverRemainingPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)
	first := h.seedUser(t, "First", types.RoleStudent)
	second := h.seedUser(t, "Second", types.RoleStudent)

	result := h.uploadMaterial(t, UploadMaterialInput{
		Title:           "Contested Notes",
		PrimaryAuthorID: owner.ID,
		Payload:         []byte(samplePayload),
		Contributors:    []string{first.ID.String(), second.ID.String()},
		Accessibility:   types.OpenAccess(),
	})

	request, err := h.collab.Reject(ctx, result.CollabRequest.ID, first.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if request.Status != types.CollabStatusRejected {
		t.Fatalf("status after one reject = %q, want rejected", request.Status)
	}

	// The other invitee can still accept and gets enrolled.
	request, err = h.collab.Accept(ctx, result.CollabRequest.ID, second.ID)
	if err != nil {
		t.Fatalf("Accept after reject: %v", err)
	}
	if request.Status != types.CollabStatusRejected {
		t.Fatalf("aggregate status = %q, reject should win", request.Status)
	}

	material, err := h.materialRepo.GetByID(dbctx.Context{Ctx: ctx}, result.Material.ID)
	if err != nil {
		t.Fatalf("reload material: %v", err)
	}
	ids := material.ContributorIDs()
	if len(ids) != 1 || ids[0] != second.ID {
		t.Fatalf("contributors = %v, want only the accepting invitee", ids)
	}
}

func TestRetrieveReturnsViewAndBumpsReads(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)
	reader := h.seedUser(t, "Reader", types.RoleStudent)

	result := h.uploadMaterial(t, UploadMaterialInput{
		Title:           "Readable Notes",
		PrimaryAuthorID: owner.ID,
		Payload:         []byte(samplePayload),
		Contributors:    []string{"Ada External"},
		Disciplines:     []string{"Mathematics"},
		Accessibility:   types.OpenAccess(),
	})

	view, err := h.retrieval.Retrieve(ctx, result.Material.ID, reader.ID)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !bytes.Equal(view.Content, []byte(samplePayload)) {
		t.Fatal("view content does not match the uploaded payload")
	}
	if view.Stats.Words == 0 {
		t.Fatalf("Stats = %+v, want a word count for text payloads", view.Stats)
	}
	if view.Material.TotalReads != 1 {
		t.Fatalf("TotalReads = %d, want 1 after first read", view.Material.TotalReads)
	}
	if view.Access.Reason != AccessReasonOpen {
		t.Fatalf("access reason = %q, want open", view.Access.Reason)
	}

	// Primary author first, then the unregistered co-author.
	if len(view.CombinedAuthors) != 2 {
		t.Fatalf("CombinedAuthors = %+v, want primary plus external", view.CombinedAuthors)
	}
	if view.CombinedAuthors[0].UserID == nil || *view.CombinedAuthors[0].UserID != owner.ID || !view.CombinedAuthors[0].Registered {
		t.Fatalf("first author = %+v, want the registered primary author", view.CombinedAuthors[0])
	}
	if view.CombinedAuthors[1].Name != "Ada External" || view.CombinedAuthors[1].Registered {
		t.Fatalf("second author = %+v, want the external name", view.CombinedAuthors[1])
	}

	if _, err := h.retrieval.Retrieve(ctx, result.Material.ID, reader.ID); err != nil {
		t.Fatalf("second Retrieve: %v", err)
	}
	material, err := h.materialRepo.GetByID(dbctx.Context{Ctx: ctx}, result.Material.ID)
	if err != nil {
		t.Fatalf("reload material: %v", err)
	}
	if material.TotalReads != 2 {
		t.Fatalf("TotalReads = %d, want 2", material.TotalReads)
	}
}

func TestRetrieveRestrictedMaterial(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)
	student := h.seedUser(t, "Student", types.RoleStudent)
	roleless := h.seedUser(t, "Roleless", "")

	result := h.uploadMaterial(t, UploadMaterialInput{
		Title:           "Faculty Only Notes",
		PrimaryAuthorID: owner.ID,
		Payload:         []byte(samplePayload),
		Accessibility:   types.RestrictedTo(types.RoleFaculty),
	})

	if _, err := h.retrieval.Retrieve(ctx, result.Material.ID, student.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("student retrieve: err = %v, want ErrAccessDenied", err)
	}
	if _, err := h.retrieval.Retrieve(ctx, result.Material.ID, roleless.ID); !errors.Is(err, apperr.ErrRoleNotSet) {
		t.Fatalf("roleless retrieve: err = %v, want ErrRoleNotSet", err)
	}
	if _, err := h.retrieval.Retrieve(ctx, result.Material.ID, uuid.Nil); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("anonymous retrieve: err = %v, want ErrAccessDenied", err)
	}

	view, err := h.retrieval.Retrieve(ctx, result.Material.ID, owner.ID)
	if err != nil {
		t.Fatalf("owner retrieve: %v", err)
	}
	if view.Access.Reason != AccessReasonOwner {
		t.Fatalf("owner access reason = %q, want owner", view.Access.Reason)
	}
}

func TestRetrieveDetectsTamperedPayload(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)
	result := h.uploadMaterial(t, UploadMaterialInput{
		Title:           "Tampered Notes",
		PrimaryAuthorID: owner.ID,
		Payload:         []byte(samplePayload),
		Accessibility:   types.OpenAccess(),
	})

	if err := h.store.Put(ctx, result.Material.StorageKey, []byte("tampered bytes")); err != nil {
		t.Fatalf("overwrite stored object: %v", err)
	}

	if _, err := h.retrieval.Retrieve(ctx, result.Material.ID, owner.ID); !errors.Is(err, apperr.ErrIntegrity) {
		t.Fatalf("err = %v, want ErrIntegrity", err)
	}
}

func TestDeleteCascadesEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)
	invitee := h.seedUser(t, "Invitee", types.RoleStudent)

	result := h.uploadMaterial(t, UploadMaterialInput{
		Title:           "Doomed Notes",
		PrimaryAuthorID: owner.ID,
		Payload:         []byte(samplePayload),
		Contributors:    []string{invitee.ID.String()},
		Accessibility:   types.OpenAccess(),
	})
	materialID := result.Material.ID

	if _, err := h.collab.Accept(ctx, result.CollabRequest.ID, invitee.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := h.engagement.RateMaterial(ctx, materialID, invitee.ID, 5); err != nil {
		t.Fatalf("RateMaterial: %v", err)
	}
	if _, err := h.engagement.AddComment(ctx, materialID, invitee.ID, "useful"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	if err := h.materials.Delete(ctx, materialID, invitee.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("contributor delete: err = %v, want ErrAccessDenied", err)
	}
	if err := h.materials.Delete(ctx, materialID, owner.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	if _, err := h.materialRepo.GetByID(dbc, materialID); err == nil {
		t.Fatal("material still loadable after delete")
	}
	if requests, err := h.requestRepo.GetByMaterialIDs(dbc, []uuid.UUID{materialID}); err != nil || len(requests) != 0 {
		t.Fatalf("requests after delete = %v (err %v), want none", requests, err)
	}
	if pending, err := h.pendingRepo.GetByInviteeID(dbc, invitee.ID); err != nil || len(pending) != 0 {
		t.Fatalf("pending entries after delete = %v (err %v), want none", pending, err)
	}
	if _, err := h.store.Get(ctx, result.Material.StorageKey); !errors.Is(err, content.ErrNotFound) {
		t.Fatalf("stored object after delete: err = %v, want ErrNotFound", err)
	}
}

func TestUploadRejectsMissingFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)

	cases := []struct {
		name  string
		input UploadMaterialInput
	}{
		{"no title", UploadMaterialInput{PrimaryAuthorID: owner.ID, Payload: []byte("x")}},
		{"no payload", UploadMaterialInput{Title: "T", PrimaryAuthorID: owner.ID}},
		{"no author", UploadMaterialInput{Title: "T", Payload: []byte("x")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.ingest.Upload(ctx, tc.input); !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}
