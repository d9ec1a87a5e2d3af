package dom

import (
	"strconv"
	"strings"
)

// IsVisible reports whether el would be seen by a user looking at the viewport:
// its own style and every ancestor's style render it, and its bounding rect lies
// entirely inside vp.
func IsVisible(el *Element, vp Viewport) bool {
	if el == nil {
		return false
	}
	if !el.Style.Rendered() {
		return false
	}
	for _, s := range el.Ancestors {
		if !s.Rendered() {
			return false
		}
	}
	return inViewport(el.Rect, vp)
}

// Rendered reports whether the style alone allows the element to be seen.
func (s Style) Rendered() bool {
	return !isZero(s.Width) &&
		!isZero(s.Height) &&
		!isZero(s.Opacity) &&
		s.Display != "none" &&
		s.Visibility != "hidden"
}

func inViewport(r Rect, vp Viewport) bool {
	return r.Top >= 0 &&
		r.Left >= 0 &&
		r.Bottom <= vp.Height &&
		r.Right <= vp.Width
}

// isZero treats "0", "0px" and other numeric zeroes as zero. Keywords such as
// "auto" and empty values are not zero.
func isZero(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil {
		return false
	}
	return f == 0
}
