package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"culturetrail/internal/progress"
	id "culturetrail/pkg/domain"
	dErrors "culturetrail/pkg/domain-errors"
	"culturetrail/pkg/testutil"
)

type stubService struct {
	summary progress.Summary
	err     error
}

func (s *stubService) Summary(_ context.Context, _ id.UserID) (progress.Summary, error) {
	return s.summary, s.err
}

type HandlerSuite struct {
	suite.Suite
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) serve(svc *stubService, req *http.Request) *chi.Mux {
	r := chi.NewRouter()
	New(svc, slog.Default()).Register(r)
	return r
}

func (s *HandlerSuite) TestSummaryReturned() {
	svc := &stubService{summary: progress.Summary{
		UserID:      "u1",
		TotalVisits: 3,
		TotalBadges: 1,
		CategoryProgress: []progress.CategoryView{
			{Category: "museum", VisitedCount: 2, TotalSites: 2, Completed: true},
		},
	}}

	req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/progress"), "u1")
	rr := testutil.DoRequest(s.serve(svc, req), req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "totalVisits", float64(3))
	testutil.AssertJSONContains(s.T(), rr, "totalBadges", float64(1))
}

func (s *HandlerSuite) TestZeroedSummaryIsStillOK() {
	svc := &stubService{summary: progress.Summary{UserID: "u1"}}

	req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/progress"), "u1")
	rr := testutil.DoRequest(s.serve(svc, req), req)

	// New users get a zeroed summary, never a 404.
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "totalVisits", float64(0))
}

func (s *HandlerSuite) TestStorageErrorIs500() {
	svc := &stubService{err: dErrors.New(dErrors.CodeStorage, "db down")}

	req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/progress"), "u1")
	rr := testutil.DoRequest(s.serve(svc, req), req)

	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	testutil.AssertErrorCode(s.T(), rr, string(dErrors.CodeStorage))
}

func (s *HandlerSuite) TestMissingUserContext() {
	svc := &stubService{}
	req := testutil.NewRequest(s.T(), http.MethodGet, "/progress")
	rr := testutil.DoRequest(s.serve(svc, req), req)
	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
}
