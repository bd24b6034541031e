package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/strollio/backend/internal/cache"
	"github.com/strollio/backend/internal/middleware"
	"github.com/strollio/backend/internal/models"
	"github.com/strollio/backend/internal/repositories"
	"github.com/strollio/backend/internal/sharelink"
)

// TourHandler handles HTTP requests related to tours
type TourHandler struct {
	tourRepository repositories.TourRepository
	tourCache      cache.TourCache
	shareLinks     *sharelink.Manager
}

// NewTourHandler creates a new TourHandler
func NewTourHandler(tourRepo repositories.TourRepository, tourCache cache.TourCache, shareLinks *sharelink.Manager) *TourHandler {
	return &TourHandler{
		tourRepository: tourRepo,
		tourCache:      tourCache,
		shareLinks:     shareLinks,
	}
}

// RegisterTourRoutes registers owner-scoped tour routes (JWT protected)
func (h *TourHandler) RegisterTourRoutes(g *echo.Group) {
	g.GET("/tours", h.ListTours)
	g.GET("/tours/:id", h.GetTour)
	g.POST("/tours", h.CreateTour)
	g.PUT("/tours/:id", h.UpdateTour)
	g.DELETE("/tours/:id", h.DeleteTour)
	g.PATCH("/tours/:id/visibility", h.ToggleVisibility)
}

// RegisterPublicRoutes registers the anonymous playback surface
func (h *TourHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/tours/public/:slug", h.GetPublicTour)
	g.POST("/tours/public/:slug/click", h.RecordClick)
}

// ListTours retrieves all tours of the authenticated creator, most recently
// updated first
func (h *TourHandler) ListTours(c echo.Context) error {
	claims := middleware.UserClaims(c)

	tours, err := h.tourRepository.GetToursByCreator(c.Request().Context(), claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, tours)
}

// GetTour retrieves a single tour by ID. Tours belonging to other creators
// report NotFound, never Forbidden.
func (h *TourHandler) GetTour(c echo.Context) error {
	claims := middleware.UserClaims(c)

	tour, err := h.tourRepository.GetTourByID(c.Request().Context(), c.Param("id"), claims.UserID)
	if err != nil {
		if err == repositories.ErrTourNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Tour not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, tour)
}

// CreateTour creates a new tour
func (h *TourHandler) CreateTour(c echo.Context) error {
	claims := middleware.UserClaims(c)

	var req models.CreateTourRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	steps, err := normalizeSteps(req.Steps)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tour := &models.Tour{
		Title:       req.Title,
		Description: req.Description,
		Creator:     claims.UserID,
		Steps:       steps,
	}

	if err := h.tourRepository.CreateTour(c.Request().Context(), tour); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, tour)
}

// UpdateTour updates an existing tour. The step list replaces the stored one
// wholesale; the last writer wins across concurrent editors.
func (h *TourHandler) UpdateTour(c echo.Context) error {
	claims := middleware.UserClaims(c)
	tourID := c.Param("id")

	var req models.UpdateTourRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	existingTour, err := h.tourRepository.GetTourByID(c.Request().Context(), tourID, claims.UserID)
	if err != nil {
		if err == repositories.ErrTourNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Tour not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Title != "" {
		existingTour.Title = req.Title
	}
	if req.Description != "" {
		existingTour.Description = req.Description
	}
	if req.Steps != nil {
		steps, err := normalizeSteps(*req.Steps)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		existingTour.Steps = steps
	}

	if err := h.tourRepository.UpdateTour(c.Request().Context(), tourID, claims.UserID, existingTour); err != nil {
		if err == repositories.ErrTourNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Tour not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	_ = h.tourCache.InvalidateSlug(c.Request().Context(), existingTour.ShareSlug)

	return c.JSON(http.StatusOK, existingTour)
}

// DeleteTour deletes a tour
func (h *TourHandler) DeleteTour(c echo.Context) error {
	claims := middleware.UserClaims(c)
	tourID := c.Param("id")

	existingTour, err := h.tourRepository.GetTourByID(c.Request().Context(), tourID, claims.UserID)
	if err != nil {
		if err == repositories.ErrTourNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Tour not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.tourRepository.DeleteTour(c.Request().Context(), tourID, claims.UserID); err != nil {
		if err == repositories.ErrTourNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Tour not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	_ = h.tourCache.InvalidateSlug(c.Request().Context(), existingTour.ShareSlug)

	return c.JSON(http.StatusOK, echo.Map{"message": "Tour deleted successfully"})
}

// ToggleVisibility flips a tour's public flag. The first transition to public
// assigns the share slug; later toggles keep reusing it, so an old link goes
// inert while private and works again once the tour is republished.
func (h *TourHandler) ToggleVisibility(c echo.Context) error {
	claims := middleware.UserClaims(c)
	tourID := c.Param("id")

	tour, err := h.tourRepository.GetTourByID(c.Request().Context(), tourID, claims.UserID)
	if err != nil {
		if err == repositories.ErrTourNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Tour not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	tour.IsPublic = !tour.IsPublic
	h.shareLinks.EnsureShareSlug(tour)

	if err := h.tourRepository.UpdateTour(c.Request().Context(), tourID, claims.UserID, tour); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	_ = h.tourCache.InvalidateSlug(c.Request().Context(), tour.ShareSlug)

	return c.JSON(http.StatusOK, tour)
}

// GetPublicTour resolves a published tour by its share slug and records one
// view. Private tours, unknown slugs and deleted tours are indistinguishable
// to the caller.
func (h *TourHandler) GetPublicTour(c echo.Context) error {
	slug := c.Param("slug")
	ctx := c.Request().Context()

	tour, _ := h.tourCache.GetBySlug(ctx, slug)
	if tour == nil {
		var err error
		tour, err = h.tourRepository.GetPublicTourBySlug(ctx, slug)
		if err != nil {
			if err == repositories.ErrTourNotFound {
				return echo.NewHTTPError(http.StatusNotFound, "Tour not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		_ = h.tourCache.SetBySlug(ctx, tour)
	}

	// One view per successful resolve, no viewer dedup. The cached copy may
	// trail the live counter by the cache TTL.
	if err := h.tourRepository.IncrementViews(ctx, tour.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	tour.Views++

	return c.JSON(http.StatusOK, tour)
}

// RecordClick increments a tour's click counter by slug, independent of
// visibility. An unknown slug is a silent success so the endpoint never
// leaks whether a slug exists.
func (h *TourHandler) RecordClick(c echo.Context) error {
	slug := c.Param("slug")
	ctx := c.Request().Context()

	tour, err := h.tourRepository.GetTourBySlug(ctx, slug)
	if err != nil {
		if err == repositories.ErrTourNotFound {
			return c.JSON(http.StatusOK, echo.Map{"success": true})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.tourRepository.IncrementClicks(ctx, tour.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// normalizeSteps fills in missing step/annotation ids and annotation kind
// defaults, and rejects kinds outside the closed highlight/arrow/text set
// and annotations with non-positive dimensions.
func normalizeSteps(steps []models.Step) ([]models.Step, error) {
	if steps == nil {
		return []models.Step{}, nil
	}
	for i := range steps {
		if steps[i].ID == "" {
			steps[i].ID = uuid.NewString()
		}
		if steps[i].Annotations == nil {
			steps[i].Annotations = []models.Annotation{}
		}
		for j := range steps[i].Annotations {
			ann := &steps[i].Annotations[j]
			if ann.ID == "" {
				ann.ID = uuid.NewString()
			}
			if ann.Kind == "" {
				ann.Kind = models.AnnotationHighlight
			}
			if !ann.Kind.Valid() {
				return nil, fmt.Errorf("invalid annotation type %q on step %d", ann.Kind, i)
			}
			if ann.Width <= 0 || ann.Height <= 0 {
				return nil, fmt.Errorf("annotation on step %d must have positive width and height", i)
			}
		}
	}
	return steps, nil
}
