package materials

import (
	"testing"

	"github.com/google/uuid"
)

func TestAddContributorIDDeduplicates(t *testing.T) {
	author := uuid.New()
	other := uuid.New()
	m := &Material{PrimaryAuthorID: author}

	if !m.AddContributorID(other) {
		t.Fatalf("first add should change the list")
	}
	if m.AddContributorID(other) {
		t.Fatalf("second add of the same id should be a no-op")
	}
	if got := len(m.ContributorIDs()); got != 1 {
		t.Fatalf("contributors = %d, want 1", got)
	}
}

func TestAddContributorIDNeverAddsPrimaryAuthor(t *testing.T) {
	author := uuid.New()
	m := &Material{PrimaryAuthorID: author}
	if m.AddContributorID(author) {
		t.Fatalf("primary author must not join its own contributor set")
	}
	if len(m.ContributorIDs()) != 0 {
		t.Fatalf("contributor set should stay empty")
	}
}

func TestIsOwner(t *testing.T) {
	author := uuid.New()
	contributor := uuid.New()
	stranger := uuid.New()

	m := &Material{PrimaryAuthorID: author}
	m.SetContributorIDs([]uuid.UUID{contributor})

	if !m.IsOwner(author) || !m.IsOwner(contributor) {
		t.Fatalf("author and contributor are owners")
	}
	if m.IsOwner(stranger) || m.IsOwner(uuid.Nil) {
		t.Fatalf("stranger and nil id are not owners")
	}
}
