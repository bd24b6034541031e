package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/strollio/backend/internal/middleware"
	"github.com/strollio/backend/internal/models"
	"github.com/strollio/backend/internal/repositories"
	"github.com/strollio/backend/internal/sharelink"
)

// fakeTourRepository is an in-memory TourRepository for handler tests.
type fakeTourRepository struct {
	tours map[string]*models.Tour
}

func newFakeTourRepository() *fakeTourRepository {
	return &fakeTourRepository{tours: map[string]*models.Tour{}}
}

func (r *fakeTourRepository) CreateTour(_ context.Context, tour *models.Tour) error {
	tour.ID = primitive.NewObjectID()
	tour.CreatedAt = time.Now()
	tour.UpdatedAt = time.Now()
	if tour.Steps == nil {
		tour.Steps = []models.Step{}
	}
	cp := *tour
	r.tours[tour.ID.Hex()] = &cp
	return nil
}

func (r *fakeTourRepository) GetTourByID(_ context.Context, id string, creator uint) (*models.Tour, error) {
	tour, ok := r.tours[id]
	if !ok || tour.Creator != creator {
		return nil, repositories.ErrTourNotFound
	}
	cp := *tour
	return &cp, nil
}

func (r *fakeTourRepository) GetToursByCreator(_ context.Context, creator uint) ([]models.Tour, error) {
	tours := []models.Tour{}
	for _, tour := range r.tours {
		if tour.Creator == creator {
			tours = append(tours, *tour)
		}
	}
	return tours, nil
}

func (r *fakeTourRepository) GetPublicTourBySlug(_ context.Context, slug string) (*models.Tour, error) {
	for _, tour := range r.tours {
		if tour.ShareSlug == slug && tour.IsPublic {
			cp := *tour
			return &cp, nil
		}
	}
	return nil, repositories.ErrTourNotFound
}

func (r *fakeTourRepository) GetTourBySlug(_ context.Context, slug string) (*models.Tour, error) {
	for _, tour := range r.tours {
		if tour.ShareSlug == slug && slug != "" {
			cp := *tour
			return &cp, nil
		}
	}
	return nil, repositories.ErrTourNotFound
}

func (r *fakeTourRepository) UpdateTour(_ context.Context, id string, creator uint, tour *models.Tour) error {
	existing, ok := r.tours[id]
	if !ok || existing.Creator != creator {
		return repositories.ErrTourNotFound
	}
	tour.UpdatedAt = time.Now()
	cp := *tour
	cp.ID = existing.ID
	cp.Creator = existing.Creator
	if cp.ShareSlug == "" {
		cp.ShareSlug = existing.ShareSlug
	}
	r.tours[id] = &cp
	return nil
}

func (r *fakeTourRepository) DeleteTour(_ context.Context, id string, creator uint) error {
	existing, ok := r.tours[id]
	if !ok || existing.Creator != creator {
		return repositories.ErrTourNotFound
	}
	delete(r.tours, id)
	return nil
}

func (r *fakeTourRepository) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	if tour, ok := r.tours[id.Hex()]; ok {
		tour.Views++
	}
	return nil
}

func (r *fakeTourRepository) IncrementClicks(_ context.Context, id primitive.ObjectID) error {
	if tour, ok := r.tours[id.Hex()]; ok {
		tour.Clicks++
	}
	return nil
}

func (r *fakeTourRepository) EnsureIndexes(_ context.Context) error { return nil }

// noopTourCache always misses; the handler must fall through to the store.
type noopTourCache struct{}

func (noopTourCache) GetBySlug(context.Context, string) (*models.Tour, error) { return nil, nil }
func (noopTourCache) SetBySlug(context.Context, *models.Tour) error           { return nil }
func (noopTourCache) InvalidateSlug(context.Context, string) error            { return nil }
func (noopTourCache) Close() error                                            { return nil }

func newTestHandler() (*TourHandler, *fakeTourRepository) {
	repo := newFakeTourRepository()
	return NewTourHandler(repo, noopTourCache{}, sharelink.New()), repo
}

func newContext(t *testing.T, method, path, body string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set(middleware.ContextUserKey, &models.JwtCustomClaims{UserID: userID, Username: "tester"})
	}
	return c, rec
}

func createTour(t *testing.T, h *TourHandler, userID uint, body string) models.Tour {
	t.Helper()
	c, rec := newContext(t, http.MethodPost, "/api/v1/tours", body, userID)
	require.NoError(t, h.CreateTour(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var tour models.Tour
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tour))
	return tour
}

func toggleVisibility(t *testing.T, h *TourHandler, userID uint, tourID string) models.Tour {
	t.Helper()
	c, rec := newContext(t, http.MethodPatch, "/", "", userID)
	c.SetParamNames("id")
	c.SetParamValues(tourID)
	require.NoError(t, h.ToggleVisibility(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var tour models.Tour
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tour))
	return tour
}

func httpError(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	return he
}

func TestCreateTour_RequiresTitleAndDescription(t *testing.T) {
	h, _ := newTestHandler()

	c, _ := newContext(t, http.MethodPost, "/api/v1/tours", `{"title":"Demo"}`, 1)
	err := h.CreateTour(c)

	assert.Equal(t, http.StatusBadRequest, httpError(t, err).Code)
}

func TestCreateTour_RejectsUnknownAnnotationKind(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"title":"Demo","description":"d","steps":[{"id":"s1","annotations":[{"id":"a1","x":1,"y":1,"width":5,"height":5,"type":"sparkle"}]}]}`
	c, _ := newContext(t, http.MethodPost, "/api/v1/tours", body, 1)
	err := h.CreateTour(c)

	assert.Equal(t, http.StatusBadRequest, httpError(t, err).Code)
}

func TestCreateTour_RejectsNonPositiveAnnotationSize(t *testing.T) {
	h, _ := newTestHandler()

	for _, body := range []string{
		`{"title":"Demo","description":"d","steps":[{"id":"s1","annotations":[{"id":"a1","x":1,"y":1,"width":0,"height":5}]}]}`,
		`{"title":"Demo","description":"d","steps":[{"id":"s1","annotations":[{"id":"a1","x":1,"y":1,"width":5,"height":-2}]}]}`,
	} {
		c, _ := newContext(t, http.MethodPost, "/api/v1/tours", body, 1)
		err := h.CreateTour(c)

		assert.Equal(t, http.StatusBadRequest, httpError(t, err).Code)
	}
}

func TestCreateTour_DefaultsAnnotationKindToHighlight(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"title":"Demo","description":"d","steps":[{"id":"s1","annotations":[{"id":"a1","x":1,"y":1,"width":5,"height":5}]}]}`
	tour := createTour(t, h, 1, body)

	require.Len(t, tour.Steps, 1)
	require.Len(t, tour.Steps[0].Annotations, 1)
	assert.Equal(t, models.AnnotationHighlight, tour.Steps[0].Annotations[0].Kind)
}

func TestGetTour_OwnerMismatchIsNotFound(t *testing.T) {
	h, _ := newTestHandler()
	tour := createTour(t, h, 1, `{"title":"Demo","description":"d"}`)

	c, _ := newContext(t, http.MethodGet, "/", "", 2)
	c.SetParamNames("id")
	c.SetParamValues(tour.ID.Hex())
	err := h.GetTour(c)

	// A foreign tour reads as missing, never as forbidden.
	assert.Equal(t, http.StatusNotFound, httpError(t, err).Code)
}

func TestToggleVisibility_SlugAssignedOnceAndRetained(t *testing.T) {
	h, _ := newTestHandler()
	tour := createTour(t, h, 1, `{"title":"Demo","description":"d"}`)
	require.Empty(t, tour.ShareSlug)

	published := toggleVisibility(t, h, 1, tour.ID.Hex())
	require.True(t, published.IsPublic)
	require.NotEmpty(t, published.ShareSlug)

	private := toggleVisibility(t, h, 1, tour.ID.Hex())
	assert.False(t, private.IsPublic)
	assert.Equal(t, published.ShareSlug, private.ShareSlug)

	republished := toggleVisibility(t, h, 1, tour.ID.Hex())
	assert.True(t, republished.IsPublic)
	assert.Equal(t, published.ShareSlug, republished.ShareSlug)
}

func TestGetPublicTour_PrivateTourIsNotFound(t *testing.T) {
	h, _ := newTestHandler()
	tour := createTour(t, h, 1, `{"title":"Demo","description":"d"}`)
	published := toggleVisibility(t, h, 1, tour.ID.Hex())
	toggleVisibility(t, h, 1, tour.ID.Hex()) // back to private

	c, _ := newContext(t, http.MethodGet, "/", "", 0)
	c.SetParamNames("slug")
	c.SetParamValues(published.ShareSlug)
	err := h.GetPublicTour(c)

	assert.Equal(t, http.StatusNotFound, httpError(t, err).Code)
}

func TestGetPublicTour_UnknownSlugIsNotFound(t *testing.T) {
	h, _ := newTestHandler()

	c, _ := newContext(t, http.MethodGet, "/", "", 0)
	c.SetParamNames("slug")
	c.SetParamValues("doesnotexist")
	err := h.GetPublicTour(c)

	assert.Equal(t, http.StatusNotFound, httpError(t, err).Code)
}

func TestGetPublicTour_CountsOneViewPerResolve(t *testing.T) {
	h, repo := newTestHandler()
	tour := createTour(t, h, 1, `{"title":"Demo","description":"d"}`)
	published := toggleVisibility(t, h, 1, tour.ID.Hex())

	for i := 0; i < 2; i++ {
		c, rec := newContext(t, http.MethodGet, "/", "", 0)
		c.SetParamNames("slug")
		c.SetParamValues(published.ShareSlug)
		require.NoError(t, h.GetPublicTour(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	stored := repo.tours[tour.ID.Hex()]
	assert.Equal(t, int64(2), stored.Views, "two resolves count exactly two views")
	assert.Equal(t, int64(0), stored.Clicks)
}

func TestRecordClick_UnknownSlugIsSilentSuccess(t *testing.T) {
	h, repo := newTestHandler()
	tour := createTour(t, h, 1, `{"title":"Demo","description":"d"}`)

	c, rec := newContext(t, http.MethodPost, "/", "", 0)
	c.SetParamNames("slug")
	c.SetParamValues("doesnotexist")
	require.NoError(t, h.RecordClick(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, int64(0), repo.tours[tour.ID.Hex()].Clicks, "no counter changes anywhere")
}

func TestRecordClick_CountsRegardlessOfVisibility(t *testing.T) {
	h, repo := newTestHandler()
	tour := createTour(t, h, 1, `{"title":"Demo","description":"d"}`)
	published := toggleVisibility(t, h, 1, tour.ID.Hex())
	toggleVisibility(t, h, 1, tour.ID.Hex()) // private again, slug retained

	c, rec := newContext(t, http.MethodPost, "/", "", 0)
	c.SetParamNames("slug")
	c.SetParamValues(published.ShareSlug)
	require.NoError(t, h.RecordClick(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), repo.tours[tour.ID.Hex()].Clicks)
	assert.Equal(t, int64(0), repo.tours[tour.ID.Hex()].Views, "clicks never touch the view counter")
}

func TestUpdateTour_ReplacesStepsWholesale(t *testing.T) {
	h, _ := newTestHandler()
	tour := createTour(t, h, 1, `{"title":"Demo","description":"d","steps":[{"id":"s1"},{"id":"s2"}]}`)

	body := `{"steps":[{"id":"s3","title":"Only step"}]}`
	c, rec := newContext(t, http.MethodPut, "/", body, 1)
	c.SetParamNames("id")
	c.SetParamValues(tour.ID.Hex())
	require.NoError(t, h.UpdateTour(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Tour
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Len(t, updated.Steps, 1)
	assert.Equal(t, "s3", updated.Steps[0].ID)
	assert.Equal(t, "Demo", updated.Title, "fields absent from the request stay put")
	assert.False(t, updated.UpdatedAt.Before(tour.UpdatedAt))
}

func TestDeleteTour_OwnerMismatchIsNotFound(t *testing.T) {
	h, repo := newTestHandler()
	tour := createTour(t, h, 1, `{"title":"Demo","description":"d"}`)

	c, _ := newContext(t, http.MethodDelete, "/", "", 2)
	c.SetParamNames("id")
	c.SetParamValues(tour.ID.Hex())
	err := h.DeleteTour(c)

	assert.Equal(t, http.StatusNotFound, httpError(t, err).Code)
	assert.Contains(t, repo.tours, tour.ID.Hex())
}

// cachedTourCache returns a fixed tour for one slug, like a warm Redis entry.
type cachedTourCache struct {
	tour *models.Tour
}

func (c cachedTourCache) GetBySlug(_ context.Context, slug string) (*models.Tour, error) {
	if c.tour != nil && c.tour.ShareSlug == slug {
		cp := *c.tour
		return &cp, nil
	}
	return nil, nil
}
func (cachedTourCache) SetBySlug(context.Context, *models.Tour) error { return nil }
func (cachedTourCache) InvalidateSlug(context.Context, string) error  { return nil }
func (cachedTourCache) Close() error                                  { return nil }

func TestGetPublicTour_CacheHitStillCountsView(t *testing.T) {
	repo := newFakeTourRepository()
	seed := &models.Tour{
		Title:       "Demo",
		Description: "d",
		Creator:     1,
		IsPublic:    true,
		ShareSlug:   "warmslug",
	}
	require.NoError(t, repo.CreateTour(context.Background(), seed))

	h := NewTourHandler(repo, cachedTourCache{tour: seed}, sharelink.New())

	c, rec := newContext(t, http.MethodGet, "/", "", 0)
	c.SetParamNames("slug")
	c.SetParamValues("warmslug")
	require.NoError(t, h.GetPublicTour(c))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, int64(1), repo.tours[seed.ID.Hex()].Views, "view counting bypasses the cache")
}
