package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strollio/backend/internal/models"
)

func TestGetAnalytics_AggregatesCreatorTotals(t *testing.T) {
	repo := newFakeTourRepository()
	seed := []*models.Tour{
		{Title: "A", Description: "d", Creator: 1, IsPublic: true, Views: 10, Clicks: 3},
		{Title: "B", Description: "d", Creator: 1, Views: 25, Clicks: 1},
		{Title: "C", Description: "d", Creator: 2, IsPublic: true, Views: 99, Clicks: 99},
	}
	for _, tour := range seed {
		require.NoError(t, repo.CreateTour(context.Background(), tour))
	}

	h := NewAnalyticsHandler(repo)
	c, rec := newContext(t, http.MethodGet, "/api/v1/analytics", "", 1)
	require.NoError(t, h.GetAnalytics(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AnalyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Overview.TotalTours, "other creators' tours are excluded")
	assert.Equal(t, int64(35), resp.Overview.TotalViews)
	assert.Equal(t, int64(4), resp.Overview.TotalClicks)
	assert.Equal(t, 1, resp.Overview.PublicTours)

	require.Len(t, resp.TopTours, 2)
	assert.Equal(t, "B", resp.TopTours[0].Title, "top tours are sorted by views")
	assert.Equal(t, "A", resp.TopTours[1].Title)
}
