package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"drivelog/internal/gateway/handler/mocks"
	"drivelog/internal/ledger"
	"drivelog/internal/platform/middleware"
	id "drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/gateway-mocks.go -package=mocks Service
type GatewayHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *GatewayHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestGatewayHandlerSuite(t *testing.T) {
	suite.Run(t, new(GatewayHandlerSuite))
}

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, logger, nil)
	r := chi.NewRouter()
	h.Register(r)
	return r, mockService
}

func (s *GatewayHandlerSuite) TestHandleFetch_ReturnsRecordsAndTotal() {
	router, mockService := newTestRouter(s.T())

	requester := id.NewIdentity()
	subject := id.NewIdentity()
	ts := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	mockService.EXPECT().Fetch(gomock.Any(), requester, subject, uint64(7), uint64(3)).
		Return([]ledger.EventRecord{
			{Subject: subject, AttributeSnapshot: "ABC123", Class: ledger.ClassSpeeding, Timestamp: ts, SequenceID: 7},
			{Subject: subject, AttributeSnapshot: "ABC123", Class: ledger.ClassCollision, Timestamp: ts, SequenceID: 8},
		}, uint64(10), nil)

	req := httptest.NewRequest(http.MethodGet, "/subjects/"+subject.String()+"/events?offset=7&limit=3", nil)
	req = req.WithContext(middleware.WithCaller(req.Context(), requester))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)

	var resp struct {
		Subject    string               `json:"subject"`
		Records    []ledger.EventRecord `json:"records"`
		TotalCount uint64               `json:"total_count"`
	}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), subject.String(), resp.Subject)
	assert.Equal(s.T(), uint64(10), resp.TotalCount)
	require.Len(s.T(), resp.Records, 2)
	assert.Equal(s.T(), uint64(7), resp.Records[0].SequenceID)
	assert.Equal(s.T(), "ABC123", resp.Records[0].AttributeSnapshot)
	assert.Equal(s.T(), ledger.ClassCollision, resp.Records[1].Class)
}

func (s *GatewayHandlerSuite) TestHandleFetch_DefaultsPagination() {
	router, mockService := newTestRouter(s.T())

	requester := id.NewIdentity()
	subject := id.NewIdentity()

	mockService.EXPECT().Fetch(gomock.Any(), requester, subject, uint64(0), uint64(defaultPageLimit)).
		Return([]ledger.EventRecord{}, uint64(0), nil)

	req := httptest.NewRequest(http.MethodGet, "/subjects/"+subject.String()+"/events", nil)
	req = req.WithContext(middleware.WithCaller(req.Context(), requester))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *GatewayHandlerSuite) TestHandleFetch_DeniedMapsTo403() {
	router, mockService := newTestRouter(s.T())

	requester := id.NewIdentity()
	subject := id.NewIdentity()

	mockService.EXPECT().Fetch(gomock.Any(), requester, subject, gomock.Any(), gomock.Any()).
		Return(nil, uint64(0), dErrors.New(dErrors.CodeDenied, "reader is denylisted by subject"))

	req := httptest.NewRequest(http.MethodGet, "/subjects/"+subject.String()+"/events", nil)
	req = req.WithContext(middleware.WithCaller(req.Context(), requester))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "denied", resp["error"])
}

func (s *GatewayHandlerSuite) TestHandleFetch_BadPaginationRejected() {
	router, _ := newTestRouter(s.T())

	subject := id.NewIdentity()
	req := httptest.NewRequest(http.MethodGet, "/subjects/"+subject.String()+"/events?offset=-1", nil)
	req = req.WithContext(middleware.WithCaller(req.Context(), id.NewIdentity()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *GatewayHandlerSuite) TestHandleFetch_MalformedSubjectRejected() {
	router, _ := newTestRouter(s.T())

	req := httptest.NewRequest(http.MethodGet, "/subjects/not-a-uuid/events", nil)
	req = req.WithContext(middleware.WithCaller(req.Context(), id.NewIdentity()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}
