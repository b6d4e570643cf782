package services

import (
	"context"
	"errors"
	"testing"
	"time"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
)

func TestBayesianRating(t *testing.T) {
	cases := []struct {
		name  string
		sum   float64
		count int64
		want  float64
	}{
		{"no ratings yields the prior", 0, 0, 3},
		{"single high rating is dampened", 4, 1, 3.17},
		{"single low rating is dampened", 1, 1, 2.67},
		{"prior washes out with volume", 50, 10, 4.33},
		{"exact prior stays put", 6, 2, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BayesianRating(tc.sum, tc.count); got != tc.want {
				t.Fatalf("BayesianRating(%v, %d) = %v, want %v", tc.sum, tc.count, got, tc.want)
			}
		})
	}
}

func TestRateMaterialUpdatesAverage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)
	rater := h.seedUser(t, "Rater", types.RoleStudent)

	result := h.uploadMaterial(t, UploadMaterialInput{
		Title:           "Rated Notes",
		PrimaryAuthorID: owner.ID,
		Payload:         []byte(samplePayload),
		Accessibility:   types.OpenAccess(),
	})

	avg, err := h.engagement.RateMaterial(ctx, result.Material.ID, rater.ID, 4)
	if err != nil {
		t.Fatalf("RateMaterial: %v", err)
	}
	if avg != 3.17 {
		t.Fatalf("average after one rating of 4 = %v, want 3.17", avg)
	}

	// Re-rating replaces the old value instead of stacking a second vote.
	avg, err = h.engagement.RateMaterial(ctx, result.Material.ID, rater.ID, 1)
	if err != nil {
		t.Fatalf("re-rate: %v", err)
	}
	if avg != 2.67 {
		t.Fatalf("average after re-rating to 1 = %v, want 2.67", avg)
	}

	mine, err := h.engagement.GetUserRating(ctx, result.Material.ID, rater.ID)
	if err != nil {
		t.Fatalf("GetUserRating: %v", err)
	}
	if mine.Value != 1 {
		t.Fatalf("stored rating value = %d, want 1", mine.Value)
	}

	if _, err := h.engagement.RateMaterial(ctx, result.Material.ID, rater.ID, 6); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("out-of-range rating: err = %v, want ErrValidation", err)
	}
}

func TestRatingsListNewestFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)
	early := h.seedUser(t, "Early", types.RoleStudent)
	late := h.seedUser(t, "Late", types.RoleStudent)

	result := h.uploadMaterial(t, UploadMaterialInput{
		Title:           "Chronological Notes",
		PrimaryAuthorID: owner.ID,
		Payload:         []byte(samplePayload),
		Accessibility:   types.OpenAccess(),
	})

	dbc := dbctx.Context{Ctx: ctx}
	now := time.Now().UTC()
	for _, r := range []*types.Rating{
		{MaterialID: result.Material.ID, UserID: early.ID, Value: 4, RatedAt: now.Add(-time.Hour)},
		{MaterialID: result.Material.ID, UserID: late.ID, Value: 2, RatedAt: now},
	} {
		if _, err := h.ratingRepo.Upsert(dbc, r); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	view, err := h.retrieval.Retrieve(ctx, result.Material.ID, owner.ID)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(view.Ratings) != 2 {
		t.Fatalf("Ratings = %d entries, want 2", len(view.Ratings))
	}
	if view.Ratings[0].UserID != late.ID || view.Ratings[1].UserID != early.ID {
		t.Fatalf("ratings not newest-first: first by %s, second by %s", view.Ratings[0].UserID, view.Ratings[1].UserID)
	}
}

func TestCommentsKeepMaterialCounter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.seedUser(t, "Owner", types.RoleFaculty)
	commenter := h.seedUser(t, "Commenter", types.RoleStudent)

	result := h.uploadMaterial(t, UploadMaterialInput{
		Title:           "Discussed Notes",
		PrimaryAuthorID: owner.ID,
		Payload:         []byte(samplePayload),
		Accessibility:   types.OpenAccess(),
	})

	comment, err := h.engagement.AddComment(ctx, result.Material.ID, commenter.ID, "very helpful")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	material, err := h.materials.Get(ctx, result.Material.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if material.TotalComments != 1 {
		t.Fatalf("TotalComments = %d, want 1", material.TotalComments)
	}

	// Only the commenter may remove their comment.
	if err := h.engagement.DeleteComment(ctx, comment.ID, owner.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("foreign delete: err = %v, want ErrAccessDenied", err)
	}
	if err := h.engagement.DeleteComment(ctx, comment.ID, commenter.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}

	comments, err := h.engagement.ListComments(ctx, result.Material.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("comments after delete = %d, want 0", len(comments))
	}

	material, err = h.materials.Get(ctx, result.Material.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if material.TotalComments != 0 {
		t.Fatalf("TotalComments after delete = %d, want 0", material.TotalComments)
	}
}
