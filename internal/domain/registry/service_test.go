package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
	"github.com/dermclinic/dermclinic/internal/platform/occ"
)

// mockPatientRepo is a map-backed PatientRepository. The conditional update
// is guarded by the mutex so the concurrency tests exercise a real
// compare-and-swap.
type mockPatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.VersionID = 1
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) Get(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) UpdateIfVersion(_ context.Context, p *Patient, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.patients[p.ID]
	if !ok {
		return 0, apperr.NotFound("patient %s not found", p.ID)
	}
	if stored.VersionID != expected {
		return 0, apperr.VersionMismatch("patient %s was modified by another request", p.ID)
	}
	cp := *p
	cp.VersionID = expected + 1
	cp.UpdatedAt = time.Now()
	m.patients[p.ID] = &cp
	return cp.VersionID, nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[id]; !ok {
		return false, nil
	}
	delete(m.patients, id)
	return true, nil
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Patient
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockPatientRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.patients[id]
	return ok, nil
}

type mockDermRepo struct {
	mu    sync.Mutex
	derms map[uuid.UUID]*Dermatologist
}

func newMockDermRepo() *mockDermRepo {
	return &mockDermRepo{derms: make(map[uuid.UUID]*Dermatologist)}
}

func (m *mockDermRepo) Create(_ context.Context, d *Dermatologist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.derms {
		if existing.LicenseNumber == d.LicenseNumber {
			return apperr.Conflict("a dermatologist with license number %q already exists", d.LicenseNumber)
		}
	}
	d.ID = uuid.New()
	d.VersionID = 1
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	m.derms[d.ID] = &cp
	return nil
}

func (m *mockDermRepo) Get(_ context.Context, id uuid.UUID) (*Dermatologist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.derms[id]
	if !ok {
		return nil, apperr.NotFound("dermatologist %s not found", id)
	}
	cp := *d
	return &cp, nil
}

func (m *mockDermRepo) UpdateIfVersion(_ context.Context, d *Dermatologist, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.derms[d.ID]
	if !ok {
		return 0, apperr.NotFound("dermatologist %s not found", d.ID)
	}
	if stored.VersionID != expected {
		return 0, apperr.VersionMismatch("dermatologist %s was modified by another request", d.ID)
	}
	cp := *d
	cp.VersionID = expected + 1
	cp.UpdatedAt = time.Now()
	m.derms[d.ID] = &cp
	return cp.VersionID, nil
}

func (m *mockDermRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.derms[id]; !ok {
		return false, nil
	}
	delete(m.derms, id)
	return true, nil
}

func (m *mockDermRepo) List(_ context.Context, limit, offset int) ([]*Dermatologist, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Dermatologist
	for _, d := range m.derms {
		cp := *d
		out = append(out, &cp)
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockDermRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.derms[id]
	return ok, nil
}

func newTestService() (*Service, *mockPatientRepo, *mockDermRepo) {
	patients := newMockPatientRepo()
	derms := newMockDermRepo()
	return NewService(patients, derms), patients, derms
}

func strptr(s string) *string { return &s }

// -- Patient tests --

func TestCreatePatient_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.CreatePatient(context.Background(), &Patient{FirstName: "Ana"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreatePatient_StartsAtVersionOne(t *testing.T) {
	svc, _, _ := newTestService()
	p := &Patient{FirstName: "Ana", LastName: "Silva"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.VersionID != 1 {
		t.Errorf("expected version 1, got %d", p.VersionID)
	}
}

func TestGetPatient_ReturnsToken(t *testing.T) {
	svc, _, _ := newTestService()
	p := &Patient{FirstName: "Ana", LastName: "Silva"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, token, err := svc.GetPatient(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("expected id %s, got %s", p.ID, got.ID)
	}
	if token != occ.FormatToken(1) {
		t.Errorf("expected token %q, got %q", occ.FormatToken(1), token)
	}
}

func TestGetPatient_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, err := svc.GetPatient(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdatePatient_FreshTokenSucceeds(t *testing.T) {
	svc, _, _ := newTestService()
	p := &Patient{FirstName: "Ana", LastName: "Silva"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, token, err := svc.UpdatePatient(context.Background(), p.ID, occ.FormatToken(1), &Patient{
		FirstName: "Ana", LastName: "Souza",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.LastName != "Souza" {
		t.Errorf("expected last name Souza, got %q", updated.LastName)
	}
	if updated.VersionID != 2 {
		t.Errorf("expected version 2, got %d", updated.VersionID)
	}
	if token != occ.FormatToken(2) {
		t.Errorf("expected token %q, got %q", occ.FormatToken(2), token)
	}
}

func TestUpdatePatient_StaleTokenRejected(t *testing.T) {
	svc, _, _ := newTestService()
	p := &Patient{FirstName: "Ana", LastName: "Silva"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	// First writer wins and advances the version.
	if _, _, err := svc.UpdatePatient(context.Background(), p.ID, occ.FormatToken(1), &Patient{
		FirstName: "Ana", LastName: "Souza",
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// Second writer still holds the old token.
	_, _, err := svc.UpdatePatient(context.Background(), p.ID, occ.FormatToken(1), &Patient{
		FirstName: "Ana", LastName: "Costa",
	})
	if !apperr.Is(err, apperr.KindVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestUpdatePatient_MalformedTokenIsMismatch(t *testing.T) {
	svc, _, _ := newTestService()
	p := &Patient{FirstName: "Ana", LastName: "Silva"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, _, err := svc.UpdatePatient(context.Background(), p.ID, occ.Token("garbage"), &Patient{
		FirstName: "Ana", LastName: "Souza",
	})
	if !apperr.Is(err, apperr.KindVersionMismatch) {
		t.Fatalf("expected version mismatch for malformed token, got %v", err)
	}
}

func TestUpdatePatient_ConcurrentOneWinner(t *testing.T) {
	svc, _, _ := newTestService()
	p := &Patient{FirstName: "Ana", LastName: "Silva"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.UpdatePatient(context.Background(), p.ID, occ.FormatToken(1), &Patient{
				FirstName: "Ana", LastName: "Souza",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case apperr.Is(err, apperr.KindVersionMismatch):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("expected exactly 1 winner, got %d", won)
	}
	if lost != writers-1 {
		t.Errorf("expected %d losers, got %d", writers-1, lost)
	}
}

func TestDeletePatient(t *testing.T) {
	svc, _, _ := newTestService()
	p := &Patient{FirstName: "Ana", LastName: "Silva"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeletePatient(context.Background(), p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Second delete finds nothing.
	err := svc.DeletePatient(context.Background(), p.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on repeat delete, got %v", err)
	}
}

// -- Dermatologist tests --

func TestCreateDermatologist_LicenseRequired(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.CreateDermatologist(context.Background(), &Dermatologist{FirstName: "Rui", LastName: "Melo"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDermatologist_DuplicateLicenseConflict(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	first := &Dermatologist{FirstName: "Rui", LastName: "Melo", LicenseNumber: "CRM-1234"}
	if err := svc.CreateDermatologist(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := svc.CreateDermatologist(ctx, &Dermatologist{FirstName: "Eva", LastName: "Lima", LicenseNumber: "CRM-1234"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for duplicate license, got %v", err)
	}
}

func TestUpdateDermatologist_StaleTokenRejected(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	d := &Dermatologist{FirstName: "Rui", LastName: "Melo", LicenseNumber: "CRM-1234", Specialization: strptr("surgical")}
	if err := svc.CreateDermatologist(ctx, d); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, err := svc.UpdateDermatologist(ctx, d.ID, occ.FormatToken(1), &Dermatologist{
		FirstName: "Rui", LastName: "Melo", LicenseNumber: "CRM-1234", Specialization: strptr("cosmetic"),
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	_, _, err := svc.UpdateDermatologist(ctx, d.ID, occ.FormatToken(1), &Dermatologist{
		FirstName: "Rui", LastName: "Melo", LicenseNumber: "CRM-1234",
	})
	if !apperr.Is(err, apperr.KindVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDermatologistExists(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	d := &Dermatologist{FirstName: "Rui", LastName: "Melo", LicenseNumber: "CRM-1234"}
	if err := svc.CreateDermatologist(ctx, d); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := svc.DermatologistExists(ctx, d.ID)
	if err != nil || !ok {
		t.Fatalf("expected dermatologist to exist, ok=%v err=%v", ok, err)
	}
	ok, err = svc.DermatologistExists(ctx, uuid.New())
	if err != nil || ok {
		t.Fatalf("expected unknown id to not exist, ok=%v err=%v", ok, err)
	}
}
