package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnnotationKind is the closed set of overlay variants a step annotation can have.
type AnnotationKind string

const (
	AnnotationHighlight AnnotationKind = "highlight"
	AnnotationArrow     AnnotationKind = "arrow"
	AnnotationText      AnnotationKind = "text"
)

// Valid reports whether k is one of the three supported annotation kinds.
func (k AnnotationKind) Valid() bool {
	switch k {
	case AnnotationHighlight, AnnotationArrow, AnnotationText:
		return true
	}
	return false
}

// Annotation is a positioned overlay on a step's screenshot. X, Y, Width and
// Height are percentages of the rendered image dimensions; values outside
// [0,100] are legal (overlays may hang off the image edge).
type Annotation struct {
	ID     string         `json:"id" bson:"id"`
	X      float64        `json:"x" bson:"x"`
	Y      float64        `json:"y" bson:"y"`
	Width  float64        `json:"width" bson:"width"`
	Height float64        `json:"height" bson:"height"`
	Text   string         `json:"text" bson:"text"`
	Kind   AnnotationKind `json:"type" bson:"type"`
}

// Step is one screenshot plus its annotations within a tour. Steps are
// ordered by their position in the tour's step slice; there is no separate
// order field.
type Step struct {
	ID          string       `json:"id" bson:"id"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description" bson:"description"`
	Screenshot  string       `json:"screenshot,omitempty" bson:"screenshot,omitempty"`
	Annotations []Annotation `json:"annotations" bson:"annotations"`
}

// AnnotationByID returns a pointer into the step's annotation slice, or nil
// if no annotation has the given id.
func (s *Step) AnnotationByID(id string) *Annotation {
	for i := range s.Annotations {
		if s.Annotations[i].ID == id {
			return &s.Annotations[i]
		}
	}
	return nil
}

// Tour represents a shareable walkthrough stored in MongoDB. Steps are
// embedded sub-documents; ShareSlug is assigned on the first transition to
// public and is never cleared or regenerated afterwards.
type Tour struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Creator     uint               `json:"creator" bson:"creator"`
	Steps       []Step             `json:"steps" bson:"steps"`
	IsPublic    bool               `json:"isPublic" bson:"is_public"`
	ShareSlug   string             `json:"shareSlug,omitempty" bson:"share_slug,omitempty"`
	Views       int64              `json:"views" bson:"views"`
	Clicks      int64              `json:"clicks" bson:"clicks"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updated_at"`
}

// CreateTourRequest defines the request body for creating a new tour
type CreateTourRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"required,min=1"`
	Steps       []Step `json:"steps,omitempty"`
}

// UpdateTourRequest defines the request body for updating an existing tour.
// The step list replaces the stored one wholesale (last writer wins).
type UpdateTourRequest struct {
	Title       string  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description string  `json:"description,omitempty" validate:"omitempty,min=1"`
	Steps       *[]Step `json:"steps,omitempty"`
}

// UploadResponse is returned by the screenshot upload endpoint.
type UploadResponse struct {
	URL string `json:"url"`
}

// AnalyticsOverview aggregates engagement totals across a creator's tours.
type AnalyticsOverview struct {
	TotalTours  int   `json:"totalTours"`
	TotalViews  int64 `json:"totalViews"`
	TotalClicks int64 `json:"totalClicks"`
	PublicTours int   `json:"publicTours"`
}

// TopTour is one entry of the per-creator most-viewed list.
type TopTour struct {
	ID       primitive.ObjectID `json:"id"`
	Title    string             `json:"title"`
	Views    int64              `json:"views"`
	Clicks   int64              `json:"clicks"`
	IsPublic bool               `json:"isPublic"`
}

// AnalyticsResponse is the payload of the analytics endpoint.
type AnalyticsResponse struct {
	Overview AnalyticsOverview `json:"overview"`
	TopTours []TopTour         `json:"topTours"`
}
