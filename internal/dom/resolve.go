package dom

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when no labeled element matches the requested label.
var ErrNotFound = errors.New("no labeled element matches")

// Resolve picks the element to click for a requested label. It scans the
// candidates in document order, remembering the last label equal to requested
// and the last label containing it. An exact match wins over a partial one.
func Resolve(candidates []Element, requested string) (Element, error) {
	if requested == "" {
		return Element{}, ErrNotFound
	}

	var exact, partial *Element
	for i := range candidates {
		c := &candidates[i]
		if !c.Labeled() {
			continue
		}
		if strings.Contains(c.Label, requested) {
			partial = c
		}
		if c.Label == requested {
			exact = c
		}
	}

	switch {
	case exact != nil:
		return *exact, nil
	case partial != nil:
		return *partial, nil
	default:
		return Element{}, ErrNotFound
	}
}
