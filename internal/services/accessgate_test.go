package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/ledger"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type stubProfileRepo struct {
	profiles map[uuid.UUID]*types.Profile
}

func (s *stubProfileRepo) Create(dbc dbctx.Context, profiles []*types.Profile) ([]*types.Profile, error) {
	return profiles, nil
}

func (s *stubProfileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *stubProfileRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.Profile, error) {
	var out []*types.Profile
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProfileRepo) GetAll(dbc dbctx.Context) ([]*types.Profile, error) {
	var out []*types.Profile
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProfileRepo) UpdateFields(dbc dbctx.Context, userID uuid.UUID, fields map[string]interface{}) error {
	return nil
}

func (s *stubProfileRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
	return nil
}

// stubLedger answers every hash lookup with a fixed value or error.
type stubLedger struct {
	hash string
	err  error
}

func (s stubLedger) RegisterHash(ctx context.Context, materialID, hash string) error { return nil }

func (s stubLedger) GetHash(ctx context.Context, materialID string) (string, error) {
	return s.hash, s.err
}

func (s stubLedger) Deregister(ctx context.Context, materialID string) error { return nil }

func newTestGate(t *testing.T, profiles map[uuid.UUID]*types.Profile) AccessGateService {
	t.Helper()
	return newGateWithLedger(t, profiles, ledger.Noop{}, false)
}

func newGateWithLedger(t *testing.T, profiles map[uuid.UUID]*types.Profile, lc ledger.Client, corroborate bool) AccessGateService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewAccessGateService(nil, log, &stubProfileRepo{profiles: profiles}, lc, corroborate)
}

func restrictedMaterial(owner uuid.UUID, roles ...string) *types.Material {
	m := &types.Material{ID: uuid.New(), PrimaryAuthorID: owner}
	rule := types.RestrictedTo(roles...)
	m.Accessibility = rule.JSON()
	return m
}

func TestAccessGateOpenMaterial(t *testing.T) {
	gate := newTestGate(t, nil)
	m := &types.Material{ID: uuid.New(), PrimaryAuthorID: uuid.New()}
	m.Accessibility = types.OpenAccess().JSON()

	decision, err := gate.Check(context.Background(), m, uuid.Nil)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Granted || decision.Reason != AccessReasonOpen {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestAccessGateOwnerOverride(t *testing.T) {
	owner := uuid.New()
	gate := newTestGate(t, nil)
	m := restrictedMaterial(owner, types.RoleFaculty)

	decision, err := gate.Check(context.Background(), m, owner)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Reason != AccessReasonOwner {
		t.Fatalf("reason = %q, want owner", decision.Reason)
	}
}

func TestAccessGateContributorIsOwner(t *testing.T) {
	owner := uuid.New()
	contributor := uuid.New()
	gate := newTestGate(t, nil)

	m := restrictedMaterial(owner, types.RoleFaculty)
	m.AddContributorID(contributor)

	decision, err := gate.Check(context.Background(), m, contributor)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Reason != AccessReasonOwner {
		t.Fatalf("reason = %q, want owner", decision.Reason)
	}
}

func TestAccessGateRoleAdmitted(t *testing.T) {
	requester := uuid.New()
	gate := newTestGate(t, map[uuid.UUID]*types.Profile{
		requester: {UserID: requester, Role: types.RoleFaculty},
	})
	m := restrictedMaterial(uuid.New(), types.RoleFaculty)

	decision, err := gate.Check(context.Background(), m, requester)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Reason != AccessReasonRole {
		t.Fatalf("reason = %q, want role", decision.Reason)
	}
}

func TestAccessGateRoleDenied(t *testing.T) {
	requester := uuid.New()
	gate := newTestGate(t, map[uuid.UUID]*types.Profile{
		requester: {UserID: requester, Role: types.RoleStudent},
	})
	m := restrictedMaterial(uuid.New(), types.RoleFaculty)

	_, err := gate.Check(context.Background(), m, requester)
	if !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
}

func TestAccessGateRoleNotSet(t *testing.T) {
	requester := uuid.New()
	gate := newTestGate(t, map[uuid.UUID]*types.Profile{
		requester: {UserID: requester},
	})
	m := restrictedMaterial(uuid.New(), types.RoleFaculty)

	_, err := gate.Check(context.Background(), m, requester)
	if !errors.Is(err, apperr.ErrRoleNotSet) {
		t.Fatalf("err = %v, want ErrRoleNotSet", err)
	}
}

func TestAccessGateMissingProfileIsRoleNotSet(t *testing.T) {
	gate := newTestGate(t, nil)
	m := restrictedMaterial(uuid.New(), types.RoleFaculty)

	_, err := gate.Check(context.Background(), m, uuid.New())
	if !errors.Is(err, apperr.ErrRoleNotSet) {
		t.Fatalf("err = %v, want ErrRoleNotSet", err)
	}
}

func TestAccessGateAnonymousDeniedOnRestricted(t *testing.T) {
	gate := newTestGate(t, nil)
	m := restrictedMaterial(uuid.New(), types.RoleStudent)

	_, err := gate.Check(context.Background(), m, uuid.Nil)
	if !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
}

func TestAccessGateCorroborationMatch(t *testing.T) {
	gate := newGateWithLedger(t, nil, stubLedger{hash: "abc123"}, true)
	m := &types.Material{ID: uuid.New(), PrimaryAuthorID: uuid.New(), ContentHash: "abc123"}
	m.Accessibility = types.OpenAccess().JSON()

	decision, err := gate.Check(context.Background(), m, uuid.Nil)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Granted {
		t.Fatalf("decision = %+v, want granted", decision)
	}
}

func TestAccessGateCorroborationMismatchDenies(t *testing.T) {
	gate := newGateWithLedger(t, nil, stubLedger{hash: "something-else"}, true)
	m := &types.Material{ID: uuid.New(), PrimaryAuthorID: uuid.New(), ContentHash: "abc123"}
	m.Accessibility = types.OpenAccess().JSON()

	_, err := gate.Check(context.Background(), m, uuid.Nil)
	if !errors.Is(err, apperr.ErrIntegrity) {
		t.Fatalf("err = %v, want ErrIntegrity", err)
	}
}

func TestAccessGateCorroborationUnavailableDenies(t *testing.T) {
	ledgerErr := fmt.Errorf("%w: ledger timed out", apperr.ErrAttestation)
	gate := newGateWithLedger(t, nil, stubLedger{err: ledgerErr}, true)
	m := &types.Material{ID: uuid.New(), PrimaryAuthorID: uuid.New(), ContentHash: "abc123"}
	m.Accessibility = types.OpenAccess().JSON()

	_, err := gate.Check(context.Background(), m, uuid.Nil)
	if !errors.Is(err, apperr.ErrAttestation) {
		t.Fatalf("err = %v, want ErrAttestation", err)
	}
}

func TestAccessGateCorroborationOffSkipsLedger(t *testing.T) {
	// A broken ledger must not matter while corroboration is disabled.
	gate := newGateWithLedger(t, nil, stubLedger{err: fmt.Errorf("%w: down", apperr.ErrAttestation)}, false)
	m := &types.Material{ID: uuid.New(), PrimaryAuthorID: uuid.New(), ContentHash: "abc123"}
	m.Accessibility = types.OpenAccess().JSON()

	decision, err := gate.Check(context.Background(), m, uuid.Nil)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Granted {
		t.Fatalf("decision = %+v, want granted", decision)
	}
}
