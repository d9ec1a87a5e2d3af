// Package dom models the interactable elements of a rendered page and implements
// the visibility rules, labeling pass and click resolution that sit on top of
// them. Nothing here talks to a browser; the browser package feeds it through
// the Document interface.
package dom

// CandidateSelector selects every element the labeling pass considers interactable.
const CandidateSelector = "a, button, input, textarea, [role=button], [role=treeitem]"

// LabelAttribute is the attribute carrying an element's label on the page.
const LabelAttribute = "gpt-link-text"

// IndexAttribute tags each candidate with its position in the latest candidate list,
// so the browser can address it again for clicks.
const IndexAttribute = "data-vc-index"

// Rect is an element's bounding client rect in CSS pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the size of the visible window in CSS pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Style holds the computed style properties that decide visibility, verbatim as
// the browser reports them (e.g. "0px", "auto", "none").
type Style struct {
	Width      string `json:"width"`
	Height     string `json:"height"`
	Opacity    string `json:"opacity"`
	Display    string `json:"display"`
	Visibility string `json:"visibility"`
}

// Element is one candidate as observed during a labeling pass.
type Element struct {
	Index int    `json:"index"`
	Tag   string `json:"tag"`
	Role  string `json:"role,omitempty"`
	Text  string `json:"text"`
	Rect  Rect   `json:"rect"`
	Style Style  `json:"style"`
	// Ancestors lists the computed styles of every ancestor, nearest first, up to
	// the document root.
	Ancestors []Style `json:"ancestors,omitempty"`
	// Label is set only on elements that passed the labeling criteria.
	Label string `json:"label,omitempty"`
}

// Labeled reports whether the element carries a label.
func (e Element) Labeled() bool {
	return e.Label != ""
}

// Frame is the result of marking candidates on the current page.
type Frame struct {
	Viewport Viewport  `json:"viewport"`
	Elements []Element `json:"elements"`
}

// Label assigns label Text to the candidate at Index.
type Label struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}
