package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"drivelog/internal/platform/middleware"
	"drivelog/internal/registry"
	"drivelog/internal/registry/service"
	"drivelog/pkg/capability"
	id "drivelog/pkg/domain"
)

var adminID = id.NewIdentity()

func newRegistryRouter(t *testing.T) http.Handler {
	t.Helper()
	admin, err := capability.NewAdmin(adminID)
	if err != nil {
		t.Fatalf("failed to create admin capability: %v", err)
	}
	svc, err := service.New(registry.NewInMemoryStore(), admin)
	if err != nil {
		t.Fatalf("failed to create registry service: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := New(svc, logger, nil)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func asCaller(req *http.Request, caller id.Identity) *http.Request {
	return req.WithContext(middleware.WithCaller(req.Context(), caller))
}

func TestRegisterAndLookupReaderViaHandlers(t *testing.T) {
	router := newRegistryRouter(t)
	reader := id.NewIdentity()

	body, _ := json.Marshal(map[string]string{"reader": reader.String(), "role": "insurer"})
	req := asCaller(httptest.NewRequest(http.MethodPost, "/registry/readers", bytes.NewReader(body)), adminID)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 registering reader, got %d: %s", rec.Code, rec.Body.String())
	}

	getReq := asCaller(httptest.NewRequest(http.MethodGet, "/registry/readers/"+reader.String(), nil), reader)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching reader, got %d", getRec.Code)
	}

	var resp struct {
		Role       string `json:"role"`
		Registered bool   `json:"registered"`
	}
	if err := json.NewDecoder(getRec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode reader response: %v", err)
	}
	if resp.Role != "insurer" || !resp.Registered {
		t.Fatalf("expected registered insurer, got %+v", resp)
	}
}

func TestRegisterReaderRequiresAdmin(t *testing.T) {
	router := newRegistryRouter(t)
	reader := id.NewIdentity()

	body, _ := json.Marshal(map[string]string{"reader": reader.String(), "role": "regulator"})
	req := asCaller(httptest.NewRequest(http.MethodPost, "/registry/readers", bytes.NewReader(body)), id.NewIdentity())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin caller, got %d", rec.Code)
	}
}

func TestRegisterReaderRejectsUnknownRole(t *testing.T) {
	router := newRegistryRouter(t)
	reader := id.NewIdentity()

	body, _ := json.Marshal(map[string]string{"reader": reader.String(), "role": "astronaut"})
	req := asCaller(httptest.NewRequest(http.MethodPost, "/registry/readers", bytes.NewReader(body)), adminID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestRevokeReaderLifecycleViaHandlers(t *testing.T) {
	router := newRegistryRouter(t)
	reader := id.NewIdentity()

	body, _ := json.Marshal(map[string]string{"reader": reader.String(), "role": "fleet_operator"})
	req := asCaller(httptest.NewRequest(http.MethodPost, "/registry/readers", bytes.NewReader(body)), adminID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 registering reader, got %d", rec.Code)
	}

	delReq := asCaller(httptest.NewRequest(http.MethodDelete, "/registry/readers/"+reader.String(), nil), adminID)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 revoking reader, got %d", delRec.Code)
	}

	// Second revocation fails: the reader is no longer registered.
	againReq := asCaller(httptest.NewRequest(http.MethodDelete, "/registry/readers/"+reader.String(), nil), adminID)
	againRec := httptest.NewRecorder()
	router.ServeHTTP(againRec, againReq)
	if againRec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 revoking unregistered reader, got %d", againRec.Code)
	}
}

func TestSubjectAttributeViaHandlers(t *testing.T) {
	router := newRegistryRouter(t)
	subject := id.NewIdentity()

	body, _ := json.Marshal(map[string]string{"value": "WVWZZZ1JZXW000001"})
	req := asCaller(httptest.NewRequest(http.MethodPut, "/registry/subjects/"+subject.String()+"/attribute", bytes.NewReader(body)), adminID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 setting attribute, got %d", rec.Code)
	}

	getReq := asCaller(httptest.NewRequest(http.MethodGet, "/registry/subjects/"+subject.String()+"/attribute", nil), subject)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching attribute, got %d", getRec.Code)
	}

	var resp struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(getRec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode attribute response: %v", err)
	}
	if resp.Value != "WVWZZZ1JZXW000001" {
		t.Fatalf("expected stored attribute value, got %q", resp.Value)
	}
}
