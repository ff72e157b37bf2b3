package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deck-server/internal/canvas"
	"deck-server/internal/domain"
	"deck-server/internal/geometry"
	"deck-server/internal/store"
)

const (
	slideID = "s1"
	titleID = "s1-title"
	imageID = "s1-image"
)

func setupEngine(t *testing.T) (*canvas.Engine, *store.Store) {
	t.Helper()
	st := store.New(nil)
	st.Replace(domain.Presentation{
		Title: "Deck",
		Slides: []domain.Slide{{
			ID:           slideID,
			Layout:       domain.LayoutContentLeft,
			Title:        "Growth",
			Content:      []string{"one", "two"},
			VisualPrompt: domain.StringPtr("rocket"),
			Image:        domain.ImageAt("data:image/png;base64,AAAA"),
		}},
		Style: domain.DefaultStyle(),
	})
	// 1000x500 пикселей: 10 px = 1% по ширине, 5 px = 1% по высоте
	eng := canvas.NewEngine(st, geometry.Viewport{Width: 1000, Height: 500, Scale: 1}, nil)
	return eng, st
}

func element(t *testing.T, st *store.Store, id string) domain.SlideElement {
	t.Helper()
	p := st.Presentation()
	require.NotNil(t, p)
	s, err := p.Slide(slideID)
	require.NoError(t, err)
	idx := s.ElementIndex(id)
	require.GreaterOrEqual(t, idx, 0, "element %s not found", id)
	return s.Elements[idx]
}

func TestEngine_GestureHydratesSemanticSlide(t *testing.T) {
	eng, st := setupEngine(t)

	before, _ := st.Presentation().Slide(slideID)
	assert.False(t, before.Hydrated())

	el, err := eng.PointerDown(slideID, titleID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, el.X)

	after, _ := st.Presentation().Slide(slideID)
	assert.True(t, after.Hydrated())
}

func TestEngine_DragAppliesPercentDelta(t *testing.T) {
	eng, st := setupEngine(t)

	_, err := eng.PointerDown(slideID, titleID, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, canvas.StateDragging, eng.State().State)

	el, err := eng.PointerMove(200, 150)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, el.X, 1e-9)
	assert.InDelta(t, 18.0, el.Y, 1e-9)

	// Смещение считается от начала жеста, а не от прошлого события
	el, err = eng.PointerMove(150, 100)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, el.X, 1e-9)
	assert.InDelta(t, 8.0, el.Y, 1e-9)

	assert.Equal(t, canvas.StateDragging, eng.PointerUp())
	stored := element(t, st, titleID)
	assert.InDelta(t, 10.0, stored.X, 1e-9)

	sel, ok := eng.Selected()
	assert.True(t, ok)
	assert.Equal(t, titleID, sel.ElementID)
	assert.Equal(t, canvas.StateIdle, eng.State().State)
}

func TestEngine_DragIsNotClamped(t *testing.T) {
	eng, _ := setupEngine(t)

	_, err := eng.PointerDown(slideID, titleID, 0, 0)
	require.NoError(t, err)
	el, err := eng.PointerMove(-1000, 5000)
	require.NoError(t, err)
	assert.InDelta(t, -95.0, el.X, 1e-9)
	assert.InDelta(t, 1008.0, el.Y, 1e-9)
}

func TestEngine_DragIsScaleIndependent(t *testing.T) {
	for _, scale := range []float64{0.5, 1, 2} {
		eng, _ := setupEngine(t)
		require.NoError(t, eng.SetViewport(geometry.Viewport{Width: 1000, Height: 500, Scale: scale}))

		_, err := eng.PointerDown(slideID, titleID, 0, 0)
		require.NoError(t, err)
		el, err := eng.PointerMove(100, 0)
		require.NoError(t, err)
		assert.InDelta(t, 15.0, el.X, 1e-9, "scale %v", scale)
	}
}

func TestEngine_ResizeFloorsAtMinimum(t *testing.T) {
	eng, st := setupEngine(t)

	_, err := eng.ResizeHandleDown(slideID, imageID, 500, 250)
	require.NoError(t, err)
	assert.Equal(t, canvas.StateResizing, eng.State().State)

	el, err := eng.PointerMove(-10000, -10000)
	require.NoError(t, err)
	assert.Equal(t, geometry.MinElementSize, el.Width)
	assert.False(t, el.Height.Auto)
	assert.Equal(t, geometry.MinElementSize, el.Height.Value)
	// Позиция при изменении размера не меняется
	assert.Equal(t, 52.0, el.X)

	eng.PointerUp()
	stored := element(t, st, imageID)
	assert.Equal(t, geometry.MinElementSize, stored.Width)
}

func TestEngine_ResizeKeepsAutoHeight(t *testing.T) {
	eng, _ := setupEngine(t)

	_, err := eng.ResizeHandleDown(slideID, titleID, 0, 0)
	require.NoError(t, err)
	el, err := eng.PointerMove(100, 100)
	require.NoError(t, err)
	assert.InDelta(t, 52.0, el.Width, 1e-9)
	assert.True(t, el.Height.Auto)
}

func TestEngine_MoveWithoutGesture(t *testing.T) {
	eng, _ := setupEngine(t)
	_, err := eng.PointerMove(10, 10)
	assert.ErrorIs(t, err, domain.ErrNoActiveGesture)
}

func TestEngine_SecondGestureConflicts(t *testing.T) {
	eng, _ := setupEngine(t)
	_, err := eng.PointerDown(slideID, titleID, 0, 0)
	require.NoError(t, err)
	_, err = eng.ResizeHandleDown(slideID, imageID, 0, 0)
	assert.ErrorIs(t, err, domain.ErrGestureConflict)
}

func TestEngine_UnknownElement(t *testing.T) {
	eng, _ := setupEngine(t)
	_, err := eng.PointerDown(slideID, "nope", 0, 0)
	assert.ErrorIs(t, err, domain.ErrElementNotFound)
	_, err = eng.Select("missing-slide", titleID)
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)
	assert.Equal(t, canvas.StateIdle, eng.State().State)
}

func TestEngine_DeleteClearsSelection(t *testing.T) {
	eng, st := setupEngine(t)

	_, err := eng.Select(slideID, imageID)
	require.NoError(t, err)
	require.NoError(t, eng.Delete(slideID, imageID))

	_, ok := eng.Selected()
	assert.False(t, ok)
	s, _ := st.Presentation().Slide(slideID)
	assert.Equal(t, -1, s.ElementIndex(imageID))

	assert.ErrorIs(t, eng.Delete(slideID, imageID), domain.ErrElementNotFound)
}

func TestEngine_DeleteOtherKeepsSelection(t *testing.T) {
	eng, _ := setupEngine(t)

	_, err := eng.Select(slideID, titleID)
	require.NoError(t, err)
	require.NoError(t, eng.Delete(slideID, imageID))

	sel, ok := eng.Selected()
	assert.True(t, ok)
	assert.Equal(t, titleID, sel.ElementID)
}

func TestEngine_ClearSelection(t *testing.T) {
	eng, _ := setupEngine(t)
	_, err := eng.PointerDown(slideID, titleID, 0, 0)
	require.NoError(t, err)

	eng.ClearSelection()
	snap := eng.State()
	assert.Nil(t, snap.Selection)
	assert.Equal(t, canvas.StateIdle, snap.State)
}

func TestEngine_GesturePreservesConcurrentEdits(t *testing.T) {
	eng, st := setupEngine(t)

	_, err := eng.PointerDown(slideID, titleID, 0, 0)
	require.NoError(t, err)

	// Параллельная правка того же слайда
	_, err = st.UpdateSlide(slideID, func(s domain.Slide) (domain.Slide, error) {
		s.SpeakerNotes = "remember the demo"
		return s, nil
	})
	require.NoError(t, err)

	_, err = eng.PointerMove(100, 0)
	require.NoError(t, err)

	s, _ := st.Presentation().Slide(slideID)
	assert.Equal(t, "remember the demo", s.SpeakerNotes)
	assert.InDelta(t, 15.0, s.Elements[s.ElementIndex(titleID)].X, 1e-9)
}

func TestEngine_NudgeAndSetContent(t *testing.T) {
	eng, st := setupEngine(t)

	el, err := eng.Nudge(slideID, titleID, 1, -2)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, el.X, 1e-9)
	assert.InDelta(t, 6.0, el.Y, 1e-9)

	el, err = eng.SetContent(slideID, titleID, "Growth 2025")
	require.NoError(t, err)
	assert.Equal(t, "Growth 2025", el.Content)
	assert.Equal(t, "Growth 2025", element(t, st, titleID).Content)
}

func TestEngine_SetViewportRejectsInvalid(t *testing.T) {
	eng, _ := setupEngine(t)
	err := eng.SetViewport(geometry.Viewport{Width: 0, Height: 100, Scale: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidViewport)
	assert.Equal(t, 1000.0, eng.State().Viewport.Width)
}

func TestEngine_SelectOnHydratedSlideDoesNotCommit(t *testing.T) {
	eng, st := setupEngine(t)
	start := st.Version()

	// Первое выделение гидратирует слайд: одна новая версия
	_, err := eng.Select(slideID, titleID)
	require.NoError(t, err)
	hydrated := st.Version()
	assert.Equal(t, start+1, hydrated)

	events, cancel := st.Subscribe()
	defer cancel()

	el, err := eng.Select(slideID, imageID)
	require.NoError(t, err)
	assert.Equal(t, domain.ElementImage, el.Type)
	_, err = eng.PointerDown(slideID, titleID, 10, 10)
	require.NoError(t, err)
	eng.PointerUp()
	_, err = eng.ResizeHandleDown(slideID, imageID, 10, 10)
	require.NoError(t, err)
	eng.PointerUp()

	assert.Equal(t, hydrated, st.Version())
	assert.Empty(t, events)

	_, err = eng.Select(slideID, "missing")
	assert.ErrorIs(t, err, domain.ErrElementNotFound)
	_, err = eng.Select("nope", titleID)
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)
}
