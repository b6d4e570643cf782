package collab

import (
	"testing"

	"github.com/google/uuid"
)

func TestDeriveStatus(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	t.Run("all pending", func(t *testing.T) {
		if got := DeriveStatus(NewInvitees([]uuid.UUID{a, b})); got != StatusPending {
			t.Fatalf("status = %q, want pending", got)
		}
	})

	t.Run("one accepted keeps pending", func(t *testing.T) {
		invs := []Invitee{{AuthorID: a, Action: ActionAccepted}, {AuthorID: b, Action: ActionPending}}
		if got := DeriveStatus(invs); got != StatusPending {
			t.Fatalf("status = %q, want pending", got)
		}
	})

	t.Run("all accepted", func(t *testing.T) {
		invs := []Invitee{{AuthorID: a, Action: ActionAccepted}, {AuthorID: b, Action: ActionAccepted}}
		if got := DeriveStatus(invs); got != StatusAccepted {
			t.Fatalf("status = %q, want accepted", got)
		}
	})

	t.Run("rejection wins over pending", func(t *testing.T) {
		invs := []Invitee{{AuthorID: a, Action: ActionPending}, {AuthorID: b, Action: ActionRejected}}
		if got := DeriveStatus(invs); got != StatusRejected {
			t.Fatalf("status = %q, want rejected", got)
		}
	})

	t.Run("rejection wins over accepted", func(t *testing.T) {
		invs := []Invitee{{AuthorID: a, Action: ActionAccepted}, {AuthorID: b, Action: ActionRejected}}
		if got := DeriveStatus(invs); got != StatusRejected {
			t.Fatalf("status = %q, want rejected", got)
		}
	})

	t.Run("no invitees", func(t *testing.T) {
		if got := DeriveStatus(nil); got != StatusPending {
			t.Fatalf("status = %q, want pending", got)
		}
	})
}

func TestSetInviteesDerivesStatus(t *testing.T) {
	a := uuid.New()
	r := &Request{}
	if err := r.SetInvitees([]Invitee{{AuthorID: a, Action: ActionAccepted}}); err != nil {
		t.Fatalf("SetInvitees: %v", err)
	}
	if r.Status != StatusAccepted {
		t.Fatalf("status = %q, want accepted", r.Status)
	}
	got := r.Invitees()
	if len(got) != 1 || got[0].AuthorID != a {
		t.Fatalf("invitees round-trip = %+v", got)
	}
}

func TestRosterAddMemberDeduplicates(t *testing.T) {
	a := uuid.New()
	r := &Roster{MaterialID: uuid.New()}
	now := r.CreatedAt

	if !r.AddMember(a, now) {
		t.Fatalf("first AddMember should append")
	}
	if r.AddMember(a, now) {
		t.Fatalf("second AddMember should be a no-op")
	}
	if got := len(r.Members()); got != 1 {
		t.Fatalf("members = %d, want 1", got)
	}
}
