package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"drivelog/internal/consent"
	consenthandler "drivelog/internal/consent/handler"
	consentservice "drivelog/internal/consent/service"
	gatewayhandler "drivelog/internal/gateway/handler"
	gatewayservice "drivelog/internal/gateway/service"
	jwttoken "drivelog/internal/jwt_token"
	"drivelog/internal/ledger"
	ledgerhandler "drivelog/internal/ledger/handler"
	ledgerservice "drivelog/internal/ledger/service"
	"drivelog/internal/registry"
	registryhandler "drivelog/internal/registry/handler"
	registryservice "drivelog/internal/registry/service"
	"drivelog/pkg/capability"
	id "drivelog/pkg/domain"
)

// RouterSuite runs the full middleware chain, JWT authentication, and every
// feature handler against in-memory stores.
type RouterSuite struct {
	suite.Suite

	router  http.Handler
	jwt     *jwttoken.JWTService
	adminID id.Identity
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.adminID = id.NewIdentity()
	admin, err := capability.NewAdmin(s.adminID)
	require.NoError(s.T(), err)

	registrySvc, err := registryservice.New(registry.NewInMemoryStore(), admin, registryservice.WithLogger(logger))
	require.NoError(s.T(), err)
	consentSvc, err := consentservice.New(consent.NewInMemoryStore(), registrySvc, consentservice.WithLogger(logger))
	require.NoError(s.T(), err)
	ledgerSvc, err := ledgerservice.New(ledger.NewInMemoryStore(), registrySvc, admin, ledgerservice.WithLogger(logger))
	require.NoError(s.T(), err)
	gatewaySvc, err := gatewayservice.New(id.NewIdentity(), registrySvc, consentSvc, admin, gatewayservice.WithLogger(logger))
	require.NoError(s.T(), err)

	ctx := s.T().Context()
	require.NoError(s.T(), ledgerSvc.SetGateway(ctx, s.adminID, gatewaySvc.Identity()))
	require.NoError(s.T(), gatewaySvc.SetLedger(ctx, s.adminID, ledgerSvc))

	s.jwt = jwttoken.NewJWTService("router-test-key", "drivelog", "drivelog")

	s.router = NewRouter(Config{
		Logger:    logger,
		Validator: jwttoken.NewJWTServiceAdapter(s.jwt),
	},
		registryhandler.New(registrySvc, logger, nil),
		consenthandler.New(consentSvc, logger, nil),
		ledgerhandler.New(ledgerSvc, logger, nil),
		gatewayhandler.New(gatewaySvc, logger, nil),
	)
}

func (s *RouterSuite) do(caller id.Identity, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := s.jwt.GenerateAccessToken(caller, time.Hour)
	require.NoError(s.T(), err)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) TestUnauthenticatedRequestRejected() {
	req := httptest.NewRequest(http.MethodGet, "/subjects/"+id.NewIdentity().String()+"/events", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestHealthzIsOpen() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}

// TestFullAccessFlow walks the whole lifecycle: the administrator registers a
// reader and assigns the subject's attribute, the subject records events and
// grants access, the reader pages through history, and a later denial cuts
// access off.
func (s *RouterSuite) TestFullAccessFlow() {
	subject := id.NewIdentity()
	reader := id.NewIdentity()

	rec := s.do(s.adminID, http.MethodPost, "/registry/readers",
		map[string]string{"reader": reader.String(), "role": "insurer"})
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(s.adminID, http.MethodPut, "/registry/subjects/"+subject.String()+"/attribute",
		map[string]string{"value": "ABC123"})
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())

	for range 3 {
		rec = s.do(subject, http.MethodPost, "/events", map[string]string{"class": "harsh_braking"})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	// Before the grant, the reader is blocked.
	rec = s.do(reader, http.MethodGet, "/subjects/"+subject.String()+"/events", nil)
	s.Require().Equal(http.StatusForbidden, rec.Code)

	rec = s.do(subject, http.MethodPost, "/consent/grants", map[string]string{"reader": reader.String()})
	s.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(reader, http.MethodGet, "/subjects/"+subject.String()+"/events", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Records    []ledger.EventRecord `json:"records"`
		TotalCount uint64               `json:"total_count"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp.Records, 3)
	s.Equal(uint64(3), resp.TotalCount)
	s.Equal("ABC123", resp.Records[0].AttributeSnapshot)

	// The subject's own reads bypass every check.
	rec = s.do(subject, http.MethodGet, "/subjects/"+subject.String()+"/events", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(subject, http.MethodPost, "/consent/denials", map[string]string{"reader": reader.String()})
	s.Require().Equal(http.StatusNoContent, rec.Code)

	rec = s.do(reader, http.MethodGet, "/subjects/"+subject.String()+"/events", nil)
	s.Require().Equal(http.StatusForbidden, rec.Code)

	var errResp map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errResp))
	s.Equal("denied", errResp["error"])
}

// TestHugeLimitPagesToEnd sends the largest representable limit through the
// fetch endpoint; the page clamps to the remaining records instead of failing.
func (s *RouterSuite) TestHugeLimitPagesToEnd() {
	subject := id.NewIdentity()

	for range 3 {
		rec := s.do(subject, http.MethodPost, "/events", map[string]string{"class": "speeding"})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(subject, http.MethodGet,
		"/subjects/"+subject.String()+"/events?offset=1&limit=18446744073709551615", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Records    []ledger.EventRecord `json:"records"`
		TotalCount uint64               `json:"total_count"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp.Records, 2)
	s.Equal(uint64(3), resp.TotalCount)
	s.Equal(uint64(1), resp.Records[0].SequenceID)
}

func (s *RouterSuite) TestContentTypeEnforced() {
	rec := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{"class":"speeding"}`)))
		req.Header.Set("Content-Type", "text/plain")
		token, err := s.jwt.GenerateAccessToken(id.NewIdentity(), time.Hour)
		require.NoError(s.T(), err)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}()
	s.Equal(http.StatusUnsupportedMediaType, rec.Code)
}
