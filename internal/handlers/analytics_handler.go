package handlers

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/strollio/backend/internal/middleware"
	"github.com/strollio/backend/internal/models"
	"github.com/strollio/backend/internal/repositories"
)

// AnalyticsHandler serves per-creator engagement summaries
type AnalyticsHandler struct {
	tourRepository repositories.TourRepository
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(tourRepo repositories.TourRepository) *AnalyticsHandler {
	return &AnalyticsHandler{tourRepository: tourRepo}
}

// RegisterAnalyticsRoutes registers the analytics routes
func (h *AnalyticsHandler) RegisterAnalyticsRoutes(g *echo.Group) {
	g.GET("/analytics", h.GetAnalytics)
}

// GetAnalytics aggregates view/click totals across the creator's tours and
// lists the five most viewed ones.
func (h *AnalyticsHandler) GetAnalytics(c echo.Context) error {
	claims := middleware.UserClaims(c)

	tours, err := h.tourRepository.GetToursByCreator(c.Request().Context(), claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	overview := models.AnalyticsOverview{TotalTours: len(tours)}
	for _, tour := range tours {
		overview.TotalViews += tour.Views
		overview.TotalClicks += tour.Clicks
		if tour.IsPublic {
			overview.PublicTours++
		}
	}

	sort.SliceStable(tours, func(i, j int) bool {
		return tours[i].Views > tours[j].Views
	})
	topTours := []models.TopTour{}
	for _, tour := range tours {
		if len(topTours) == 5 {
			break
		}
		topTours = append(topTours, models.TopTour{
			ID:       tour.ID,
			Title:    tour.Title,
			Views:    tour.Views,
			Clicks:   tour.Clicks,
			IsPublic: tour.IsPublic,
		})
	}

	return c.JSON(http.StatusOK, models.AnalyticsResponse{
		Overview: overview,
		TopTours: topTours,
	})
}
