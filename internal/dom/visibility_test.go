package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testViewport = Viewport{Width: 1200, Height: 1200}

func visibleStyle() Style {
	return Style{Width: "120px", Height: "30px", Opacity: "1", Display: "inline-block", Visibility: "visible"}
}

func visibleElement() *Element {
	return &Element{
		Tag:       "a",
		Text:      "Home",
		Rect:      Rect{Top: 10, Left: 10, Bottom: 40, Right: 130, Width: 120, Height: 30},
		Style:     visibleStyle(),
		Ancestors: []Style{visibleStyle(), visibleStyle()},
	}
}

func TestIsVisible(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Element)
		want   bool
	}{
		{"fully visible", func(e *Element) {}, true},
		{"display none", func(e *Element) { e.Style.Display = "none" }, false},
		{"visibility hidden", func(e *Element) { e.Style.Visibility = "hidden" }, false},
		{"opacity zero", func(e *Element) { e.Style.Opacity = "0" }, false},
		{"zero width px", func(e *Element) { e.Style.Width = "0px" }, false},
		{"zero height bare", func(e *Element) { e.Style.Height = "0" }, false},
		{"auto width is rendered", func(e *Element) { e.Style.Width = "auto" }, true},
		{"fractional opacity", func(e *Element) { e.Style.Opacity = "0.5" }, true},
		{"ancestor display none", func(e *Element) { e.Ancestors[1].Display = "none" }, false},
		{"ancestor opacity zero", func(e *Element) { e.Ancestors[0].Opacity = "0" }, false},
		{"no ancestors", func(e *Element) { e.Ancestors = nil }, true},
		{"above viewport", func(e *Element) { e.Rect.Top = -1 }, false},
		{"left of viewport", func(e *Element) { e.Rect.Left = -0.5 }, false},
		{"below viewport", func(e *Element) { e.Rect.Bottom = 1200.5 }, false},
		{"right of viewport", func(e *Element) { e.Rect.Right = 1201 }, false},
		{"touching edges", func(e *Element) {
			e.Rect = Rect{Top: 0, Left: 0, Bottom: 1200, Right: 1200, Width: 1200, Height: 1200}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := visibleElement()
			tt.mutate(el)
			assert.Equal(t, tt.want, IsVisible(el, testViewport))
		})
	}
}

func TestIsVisibleNil(t *testing.T) {
	assert.False(t, IsVisible(nil, testViewport))
}

func TestIsZero(t *testing.T) {
	for _, v := range []string{"0", "0px", " 0px ", "0.0", "-0"} {
		assert.True(t, isZero(v), v)
	}
	for _, v := range []string{"", "auto", "1px", "0.01", "none"} {
		assert.False(t, isZero(v), v)
	}
}
