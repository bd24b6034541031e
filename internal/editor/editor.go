// Package editor turns pointer interactions on a rendered screenshot into
// step and annotation mutations, independent of the image's native pixel
// resolution. All operations are in-memory and cannot fail; persistence of
// the edited tour happens through the tour repository afterwards.
package editor

import (
	"github.com/google/uuid"

	"github.com/strollio/backend/internal/models"
	"github.com/strollio/backend/internal/sharelink"
)

// Defaults applied to a freshly placed annotation and a freshly added step.
const (
	defaultAnnotationWidth  = 20.0
	defaultAnnotationHeight = 10.0
	defaultAnnotationText   = "Click here"
	defaultStepTitle        = "New Step"
	defaultStepDescription  = "Add your description here..."
)

// RenderedBounds describes where the screenshot is drawn on screen, in the
// same units as the pointer coordinates handed to PlaceAnnotation.
type RenderedBounds struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// AnnotationPatch is a partial annotation update. Nil fields are left as-is.
type AnnotationPatch struct {
	Text   *string
	Width  *float64
	Height *float64
}

// Editor holds one authoring session over a tour: the active step cursor and
// the armed annotation mode. One Editor edits one tour.
type Editor struct {
	tour   *models.Tour
	cursor int
	armed  models.AnnotationKind
	slugs  *sharelink.Manager

	newID func() string
}

// New creates an editor over the given tour with the cursor on the first step.
func New(tour *models.Tour, slugs *sharelink.Manager) *Editor {
	return &Editor{
		tour:  tour,
		slugs: slugs,
		newID: uuid.NewString,
	}
}

// Tour returns the tour being edited.
func (e *Editor) Tour() *models.Tour { return e.tour }

// Cursor returns the index of the active step. It is meaningless while the
// tour has no steps.
func (e *Editor) Cursor() int { return e.cursor }

// ActiveStep returns the step under the cursor, or nil if the tour is empty.
func (e *Editor) ActiveStep() *models.Step {
	if len(e.tour.Steps) == 0 {
		return nil
	}
	return &e.tour.Steps[e.cursor]
}

// Arm arms a single annotation placement of the given kind. Unknown kinds
// fall back to highlight, the schema default.
func (e *Editor) Arm(kind models.AnnotationKind) {
	if !kind.Valid() {
		kind = models.AnnotationHighlight
	}
	e.armed = kind
}

// Disarm clears the armed placement mode.
func (e *Editor) Disarm() { e.armed = "" }

// Armed reports whether a placement mode is currently armed.
func (e *Editor) Armed() bool { return e.armed != "" }

// PlaceAnnotation converts a pointer position into percentage coordinates
// and appends a default-sized annotation to the active step. The placement
// mode disarms after one placement; a click while disarmed is a no-op.
// Pointers outside the rendered bounds yield coordinates outside [0,100],
// which is allowed — overlays may hang off the image.
func (e *Editor) PlaceAnnotation(pointerX, pointerY float64, bounds RenderedBounds) *models.Annotation {
	step := e.ActiveStep()
	if step == nil || !e.Armed() {
		return nil
	}

	ann := models.Annotation{
		ID:     e.newID(),
		X:      (pointerX - bounds.Left) / bounds.Width * 100,
		Y:      (pointerY - bounds.Top) / bounds.Height * 100,
		Width:  defaultAnnotationWidth,
		Height: defaultAnnotationHeight,
		Text:   defaultAnnotationText,
		Kind:   e.armed,
	}
	step.Annotations = append(step.Annotations, ann)
	e.Disarm()
	return &step.Annotations[len(step.Annotations)-1]
}

// UpdateAnnotation merges a partial update into the matching annotation on
// the active step. It reports whether the annotation was found.
func (e *Editor) UpdateAnnotation(id string, patch AnnotationPatch) bool {
	step := e.ActiveStep()
	if step == nil {
		return false
	}
	ann := step.AnnotationByID(id)
	if ann == nil {
		return false
	}
	if patch.Text != nil {
		ann.Text = *patch.Text
	}
	if patch.Width != nil {
		ann.Width = *patch.Width
	}
	if patch.Height != nil {
		ann.Height = *patch.Height
	}
	return true
}

// DeleteAnnotation removes the matching annotation from the active step.
// Deleting an absent id is a no-op.
func (e *Editor) DeleteAnnotation(id string) {
	step := e.ActiveStep()
	if step == nil {
		return
	}
	for i := range step.Annotations {
		if step.Annotations[i].ID == id {
			step.Annotations = append(step.Annotations[:i], step.Annotations[i+1:]...)
			return
		}
	}
}

// SetStepTitle sets the active step's title.
func (e *Editor) SetStepTitle(title string) {
	if step := e.ActiveStep(); step != nil {
		step.Title = title
	}
}

// SetStepDescription sets the active step's description.
func (e *Editor) SetStepDescription(description string) {
	if step := e.ActiveStep(); step != nil {
		step.Description = description
	}
}

// SetScreenshot replaces the active step's screenshot reference. Existing
// annotations stay in place even though they may now point at a visually
// different image; that is accepted authoring behavior.
func (e *Editor) SetScreenshot(url string) {
	if step := e.ActiveStep(); step != nil {
		step.Screenshot = url
	}
}

// AddStep appends a new empty step and moves the cursor onto it.
func (e *Editor) AddStep() *models.Step {
	e.tour.Steps = append(e.tour.Steps, models.Step{
		ID:          e.newID(),
		Title:       defaultStepTitle,
		Description: defaultStepDescription,
		Annotations: []models.Annotation{},
	})
	e.cursor = len(e.tour.Steps) - 1
	return &e.tour.Steps[e.cursor]
}

// DeleteStep removes the step at the given array position. The cursor clamps
// into the post-deletion bounds. Out-of-range indices are a no-op.
func (e *Editor) DeleteStep(index int) {
	steps := e.tour.Steps
	if index < 0 || index >= len(steps) {
		return
	}
	e.tour.Steps = append(steps[:index], steps[index+1:]...)
	if e.cursor >= len(e.tour.Steps) {
		e.cursor = len(e.tour.Steps) - 1
	}
	if e.cursor < 0 {
		e.cursor = 0
	}
}

// SetCursor moves the active step cursor, clamping into valid bounds.
func (e *Editor) SetCursor(index int) {
	if index < 0 {
		index = 0
	}
	if n := len(e.tour.Steps); n > 0 && index > n-1 {
		index = n - 1
	}
	e.cursor = index
}

// ToggleVisibility flips the tour's public flag and assigns a share slug on
// the first transition to public. The slug is never cleared or regenerated.
func (e *Editor) ToggleVisibility() {
	e.tour.IsPublic = !e.tour.IsPublic
	e.slugs.EnsureShareSlug(e.tour)
}
