package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deck-server/internal/domain"
)

func TestSlideJSON_ImageURLContract(t *testing.T) {
	tests := []struct {
		name    string
		image   domain.ImageState
		wantURL any // nil - поле отсутствует
	}{
		{"not requested", domain.ImageNone(), nil},
		{"pending", domain.ImageInFlight(), ""},
		{"ready", domain.ImageAt("data:image/png;base64,AAAA"), "data:image/png;base64,AAAA"},
		{"failed", domain.ImageFailure(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slide := domain.Slide{ID: "s1", Layout: domain.LayoutTitle, Title: "Intro", Image: tt.image}
			data, err := json.Marshal(slide)
			require.NoError(t, err)

			var raw map[string]any
			require.NoError(t, json.Unmarshal(data, &raw))
			url, present := raw["imageUrl"]
			if tt.wantURL == nil {
				assert.False(t, present, "imageUrl must be absent")
			} else {
				assert.Equal(t, tt.wantURL, url)
			}
			assert.Equal(t, []any{}, raw["content"], "nil content serialises as an empty list")
		})
	}
}

func TestSlideJSON_LegacyImageURLWithoutStatus(t *testing.T) {
	var pending, ready, none domain.Slide
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","layout":"quote","title":"t","content":null,"imageUrl":""}`), &pending))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"b","layout":"TITLE","title":"t","content":[],"imageUrl":"https://img/1.png"}`), &ready))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c","layout":"MYSTERY","title":"t","content":["x"]}`), &none))

	assert.True(t, pending.Image.IsPending())
	assert.Equal(t, domain.LayoutQuote, pending.Layout)
	assert.NotNil(t, pending.Content)

	assert.True(t, ready.Image.Ready())
	assert.Equal(t, "https://img/1.png", ready.Image.Ref)

	assert.Equal(t, domain.ImageNotRequested, none.Image.Status)
	assert.False(t, none.Layout.Known())
}

func TestDimension_JSON(t *testing.T) {
	el := domain.SlideElement{ID: "e", Type: domain.ElementText, Width: 40, Height: domain.AutoHeight}
	data, err := json.Marshal(el)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"height":"auto"`)

	var back domain.SlideElement
	require.NoError(t, json.Unmarshal([]byte(`{"id":"e","type":"image","x":1,"y":2,"width":30,"height":25.5}`), &back))
	assert.Equal(t, domain.Percent(25.5), back.Height)

	err = json.Unmarshal([]byte(`{"height":"tall"}`), &back)
	assert.Error(t, err)
}

func TestPresentationStyle_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   domain.PresentationStyle
		want domain.PresentationStyle
	}{
		{
			name: "zero value gets defaults",
			in:   domain.PresentationStyle{},
			want: domain.DefaultStyle(),
		},
		{
			name: "font scale clamped low",
			in:   domain.PresentationStyle{Theme: "TECH", FontScale: 0.3, VisualStyle: "hand-drawn"},
			want: domain.PresentationStyle{Theme: domain.ThemeTech, FontScale: domain.MinFontScale, VisualStyle: domain.VisualHandDrawn},
		},
		{
			name: "font scale clamped high, unknown enums replaced",
			in:   domain.PresentationStyle{Theme: "neon", FontScale: 3, VisualStyle: "oil"},
			want: domain.PresentationStyle{Theme: domain.ThemeModern, FontScale: domain.MaxFontScale, VisualStyle: domain.VisualPhotorealistic},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestPresentation_CloneAndWithSlide(t *testing.T) {
	rot := 15.0
	orig := domain.Presentation{
		Title: "Deck",
		Slides: []domain.Slide{
			{ID: "a", Title: "A", Content: []string{"one"}, Elements: []domain.SlideElement{
				{ID: "a-title", Rotation: &rot, Style: &domain.ElementStyle{ZIndex: domain.ZIndexText}},
			}},
			{ID: "b", Title: "B"},
		},
		Style: domain.PresentationStyle{PrimaryColor: domain.StringPtr("#ff0000")},
	}

	cp := orig.Clone()
	cp.Slides[0].Content[0] = "changed"
	*cp.Slides[0].Elements[0].Rotation = 90
	cp.Slides[0].Elements[0].Style.ZIndex = 99
	*cp.Style.PrimaryColor = "#000000"

	assert.Equal(t, "one", orig.Slides[0].Content[0])
	assert.Equal(t, 15.0, *orig.Slides[0].Elements[0].Rotation)
	assert.Equal(t, domain.ZIndexText, orig.Slides[0].Elements[0].ZIndex())
	assert.Equal(t, "#ff0000", *orig.Style.PrimaryColor)

	next, err := orig.WithSlide(domain.Slide{ID: "b", Title: "B2"})
	require.NoError(t, err)
	assert.Equal(t, "B2", next.Slides[1].Title)
	assert.Equal(t, "B", orig.Slides[1].Title)

	_, err = orig.WithSlide(domain.Slide{ID: "zzz"})
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)
	_, err = orig.Slide("zzz")
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)
}

func TestParseLayout(t *testing.T) {
	assert.Equal(t, domain.LayoutContentLeft, domain.ParseLayout(" content-left "))
	assert.Equal(t, domain.LayoutBullets, domain.ParseLayout("bullets"))
	assert.True(t, domain.ParseLayout("content right").Known())
	assert.False(t, domain.ParseLayout("timeline").Known())
	assert.Len(t, domain.Layouts(), 7)
}

func TestStage_CanStart(t *testing.T) {
	for _, s := range []domain.Stage{domain.StageIdle, domain.StageComplete, domain.StageError} {
		assert.True(t, s.CanStart(), s)
	}
	for _, s := range []domain.Stage{domain.StageAnalyzingDoc, domain.StageGeneratingStructure, domain.StageGeneratingImages} {
		assert.True(t, s.Busy(), s)
	}
}
