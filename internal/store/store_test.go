package store_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deck-server/internal/domain"
	"deck-server/internal/store"
)

func sampleDeck() domain.Presentation {
	return domain.Presentation{
		Title: "Quarterly review",
		Slides: []domain.Slide{
			{ID: "s1", Layout: domain.LayoutTitle, Title: "Intro", Content: []string{}},
			{ID: "s2", Layout: domain.LayoutBullets, Title: "Numbers", Content: []string{"a", "b"}},
		},
		Style: domain.DefaultStyle(),
	}
}

func TestStore_EmptyByDefault(t *testing.T) {
	s := store.New(nil)

	_, version, ok := s.Snapshot()
	assert.False(t, ok)
	assert.Zero(t, version)
	assert.Nil(t, s.Presentation())
	assert.Equal(t, domain.StageIdle, s.Status().Stage)

	_, err := s.Update(func(p domain.Presentation) (domain.Presentation, error) { return p, nil })
	assert.ErrorIs(t, err, domain.ErrNoPresentation)
}

func TestStore_ReplaceAndSnapshotAreCopies(t *testing.T) {
	s := store.New(nil)
	deck := sampleDeck()
	v := s.Replace(deck)
	assert.Equal(t, uint64(1), v)

	// Изменения исходного значения не влияют на хранилище
	deck.Slides[0].Title = "changed"

	snap, version, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, uint64(1), version)
	assert.Equal(t, "Intro", snap.Slides[0].Title)

	snap.Slides[1].Content[0] = "mutated"
	again, _, _ := s.Snapshot()
	assert.Equal(t, "a", again.Slides[1].Content[0])
}

func TestStore_UpdateErrorLeavesValue(t *testing.T) {
	s := store.New(nil)
	s.Replace(sampleDeck())
	boom := errors.New("boom")

	_, err := s.Update(func(p domain.Presentation) (domain.Presentation, error) {
		p.Title = "partial"
		return p, boom
	})
	assert.ErrorIs(t, err, boom)

	snap, version, _ := s.Snapshot()
	assert.Equal(t, "Quarterly review", snap.Title)
	assert.Equal(t, uint64(1), version)
}

func TestStore_UpdateSlideByID(t *testing.T) {
	s := store.New(nil)
	s.Replace(sampleDeck())

	updated, err := s.UpdateSlide("s2", func(sl domain.Slide) (domain.Slide, error) {
		sl.Title = "Revenue"
		return sl, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Revenue", updated.Title)

	snap, version, _ := s.Snapshot()
	assert.Equal(t, uint64(2), version)
	assert.Equal(t, "Intro", snap.Slides[0].Title)
	assert.Equal(t, "Revenue", snap.Slides[1].Title)

	_, err = s.UpdateSlide("missing", func(sl domain.Slide) (domain.Slide, error) { return sl, nil })
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)
	assert.Equal(t, uint64(2), s.Version())
}

func TestStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	s := store.New(nil)
	s.Replace(sampleDeck())

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateSlide("s1", func(sl domain.Slide) (domain.Slide, error) {
				sl.Content = append(sl.Content, "x")
				return sl, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, version, _ := s.Snapshot()
	assert.Len(t, snap.Slides[0].Content, writers)
	assert.Equal(t, uint64(writers+1), version)
}

func TestStore_SubscribeReceivesEvents(t *testing.T) {
	s := store.New(nil)
	events, cancel := s.Subscribe()
	defer cancel()

	s.SetStatus(domain.GenerationStatus{Stage: domain.StageAnalyzingDoc, Message: "Analyzing document..."})
	s.Replace(sampleDeck())

	ev := <-events
	assert.Equal(t, store.EventStatus, ev.Kind)
	assert.Equal(t, domain.StageAnalyzingDoc, ev.Status.Stage)

	ev = <-events
	assert.Equal(t, store.EventPresentation, ev.Kind)
	assert.Equal(t, uint64(1), ev.Version)
	require.NotNil(t, ev.Presentation)
	assert.Equal(t, "Quarterly review", ev.Presentation.Title)
}

func TestStore_SlowSubscriberDropsOldest(t *testing.T) {
	s := store.New(nil)
	events, cancel := s.Subscribe()
	defer cancel()

	s.Replace(sampleDeck())
	for i := 0; i < 200; i++ {
		s.SetStatus(domain.GenerationStatus{Stage: domain.StageGeneratingImages, Progress: i % 100})
	}

	// Писатель не блокируется, последнее событие сохраняется
	var last store.Event
	for len(events) > 0 {
		last = <-events
	}
	assert.Equal(t, store.EventStatus, last.Kind)
	assert.Equal(t, 99, last.Status.Progress)
}

func TestStore_CancelClosesChannel(t *testing.T) {
	s := store.New(nil)
	events, cancel := s.Subscribe()
	cancel()
	cancel()

	_, open := <-events
	assert.False(t, open)
	s.Replace(sampleDeck())
}
