package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
	"github.com/dermclinic/dermclinic/internal/platform/occ"
)

func newTestContext(method, target string, body string, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func seededHandler(t *testing.T) (*Handler, *Patient) {
	t.Helper()
	svc, _, _ := newTestService()
	p := &Patient{FirstName: "Ana", LastName: "Silva"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	return NewHandler(svc), p
}

func TestCreatePatientHandler_SetsETag(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)

	c, rec := newTestContext(http.MethodPost, "/api/v1/patients", `{"first_name":"Ana","last_name":"Silva"}`, nil)
	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if got := rec.Header().Get("ETag"); got != string(occ.FormatToken(1)) {
		t.Errorf("expected ETag %q, got %q", occ.FormatToken(1), got)
	}
}

func TestGetPatientHandler_SetsETag(t *testing.T) {
	h, p := seededHandler(t)

	c, rec := newTestContext(http.MethodGet, "/api/v1/patients/"+p.ID.String(), "", nil)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("ETag"); got != string(occ.FormatToken(1)) {
		t.Errorf("expected ETag %q, got %q", occ.FormatToken(1), got)
	}
}

func TestGetPatientHandler_IfNoneMatch304(t *testing.T) {
	h, p := seededHandler(t)

	c, rec := newTestContext(http.MethodGet, "/api/v1/patients/"+p.ID.String(), "", map[string]string{
		"If-None-Match": string(occ.FormatToken(1)),
	})
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Code != http.StatusNotModified {
		t.Errorf("expected 304, got %d", rec.Code)
	}
}

func TestGetPatientHandler_InvalidID(t *testing.T) {
	h, _ := seededHandler(t)

	c, _ := newTestContext(http.MethodGet, "/api/v1/patients/not-a-uuid", "", nil)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetPatient(c)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdatePatientHandler_MissingIfMatch(t *testing.T) {
	h, p := seededHandler(t)

	c, _ := newTestContext(http.MethodPut, "/api/v1/patients/"+p.ID.String(),
		`{"first_name":"Ana","last_name":"Souza"}`, nil)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err := h.UpdatePatient(c)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing If-Match, got %v", err)
	}
}

func TestUpdatePatientHandler_StaleToken(t *testing.T) {
	h, p := seededHandler(t)

	// Advance the version so the presented token goes stale.
	if _, _, err := h.svc.UpdatePatient(context.Background(), p.ID, occ.FormatToken(1), &Patient{
		FirstName: "Ana", LastName: "Souza",
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	c, _ := newTestContext(http.MethodPut, "/api/v1/patients/"+p.ID.String(),
		`{"first_name":"Ana","last_name":"Costa"}`, map[string]string{
			"If-Match": string(occ.FormatToken(1)),
		})
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err := h.UpdatePatient(c)
	if !apperr.Is(err, apperr.KindVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestUpdatePatientHandler_FreshToken(t *testing.T) {
	h, p := seededHandler(t)

	c, rec := newTestContext(http.MethodPut, "/api/v1/patients/"+p.ID.String(),
		`{"first_name":"Ana","last_name":"Souza"}`, map[string]string{
			"If-Match": string(occ.FormatToken(1)),
		})
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("ETag"); got != string(occ.FormatToken(2)) {
		t.Errorf("expected ETag %q, got %q", occ.FormatToken(2), got)
	}
}

func TestDeletePatientHandler(t *testing.T) {
	h, p := seededHandler(t)

	c, rec := newTestContext(http.MethodDelete, "/api/v1/patients/"+p.ID.String(), "", nil)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	c2, _ := newTestContext(http.MethodDelete, "/api/v1/patients/"+p.ID.String(), "", nil)
	c2.SetParamNames("id")
	c2.SetParamValues(p.ID.String())
	err := h.DeletePatient(c2)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on repeat delete, got %v", err)
	}
}

func TestListPatientsHandler(t *testing.T) {
	h, _ := seededHandler(t)

	c, rec := newTestContext(http.MethodGet, "/api/v1/patients", "", nil)
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("expected total 1 in body, got %s", rec.Body.String())
	}
}
