package handler

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"culturetrail/internal/catalog"
	"culturetrail/internal/favorites"
	dErrors "culturetrail/pkg/domain-errors"
	"culturetrail/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	catalogStore := catalog.NewInMemoryStore([]catalog.Site{
		{ID: "m1", Name: "Industriemuseum", Category: "museum"},
	})
	service, err := favorites.NewService(catalogStore, favorites.NewInMemoryStore())
	require.NoError(s.T(), err)

	s.router = chi.NewRouter()
	New(service, slog.Default()).Register(s.router)
}

func (s *HandlerSuite) TestAddListRemoveFlow() {
	put := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodPut, "/favorites/m1"), "u1")
	rr := testutil.DoRequest(s.router, put)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	get := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/favorites"), "u1")
	rr = testutil.DoRequest(s.router, get)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string][]catalog.Site](s.T(), rr)
	s.Require().Len((*body)["favorites"], 1)
	s.Equal("Industriemuseum", (*body)["favorites"][0].Name)

	del := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodDelete, "/favorites/m1"), "u1")
	rr = testutil.DoRequest(s.router, del)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = testutil.DoRequest(s.router, testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/favorites"), "u1"))
	body = testutil.UnmarshalResponse[map[string][]catalog.Site](s.T(), rr)
	s.Empty((*body)["favorites"])
}

func (s *HandlerSuite) TestAddUnknownSiteIs404() {
	req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodPut, "/favorites/ghost"), "u1")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	testutil.AssertErrorCode(s.T(), rr, string(dErrors.CodeNotFound))
}

func (s *HandlerSuite) TestListIsEmptyArrayNotNull() {
	req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/favorites"), "u1")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.JSONEq(`{"favorites":[]}`, rr.Body.String())
}

func (s *HandlerSuite) TestMissingUserContext() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/favorites"))
	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
}
