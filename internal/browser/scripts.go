package browser

import (
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/dom"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// clearLabelsScript removes the label and index attributes left by a previous
// pass, so an element that stopped being a candidate can't shadow a new index.
var clearLabelsScript = fmt.Sprintf(`(() => {
  for (const attr of ['%[1]s', '%[2]s']) {
    document.querySelectorAll('[' + attr + ']').forEach((e) => e.removeAttribute(attr));
  }
})()`, dom.LabelAttribute, dom.IndexAttribute)

// markCandidatesScript outlines and indexes every candidate, then reports each
// one with its geometry and the computed style of itself and every ancestor.
const markCandidatesScript = `(() => {
  const selector = %s;
  const indexAttr = %s;
  const styleOf = (el) => {
    const s = window.getComputedStyle(el);
    return { width: s.width, height: s.height, opacity: s.opacity, display: s.display, visibility: s.visibility };
  };
  const frame = {
    viewport: {
      width: window.innerWidth || document.documentElement.clientWidth,
      height: window.innerHeight || document.documentElement.clientHeight,
    },
    elements: [],
  };
  document.querySelectorAll(selector).forEach((el, index) => {
    el.setAttribute(indexAttr, String(index));
    el.style.border = '1px solid red';
    const r = el.getBoundingClientRect();
    const ancestors = [];
    for (let p = el.parentElement; p; p = p.parentElement) {
      ancestors.push(styleOf(p));
    }
    frame.elements.push({
      index,
      tag: el.tagName.toLowerCase(),
      role: el.getAttribute('role') || '',
      text: el.textContent || '',
      rect: { top: r.top, left: r.left, bottom: r.bottom, right: r.right, width: r.width, height: r.height },
      style: styleOf(el),
      ancestors,
    });
  });
  return JSON.stringify(frame);
})()`

// setLabelsScript writes a JSON encoded []dom.Label onto the indexed elements.
const setLabelsScript = `(() => {
  const labels = %s;
  for (const { index, text } of labels) {
    const el = document.querySelector('[%s="' + index + '"]');
    if (el) {
      el.setAttribute(%s, text);
    }
  }
})()`

// labeledElementsScript reads back every labeled element currently on the page.
var labeledElementsScript = fmt.Sprintf(`(() => {
  const out = [];
  document.querySelectorAll('[%[1]s]').forEach((el) => {
    const index = parseInt(el.getAttribute('%[2]s'), 10);
    if (!Number.isNaN(index)) {
      out.push({ index, tag: el.tagName.toLowerCase(), label: el.getAttribute('%[1]s') });
    }
  });
  return JSON.stringify(out);
})()`, dom.LabelAttribute, dom.IndexAttribute)

func buildMarkScript(selector string) (string, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return "", err
	}
	attr, err := json.Marshal(dom.IndexAttribute)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(markCandidatesScript, sel, attr), nil
}

func buildSetLabelsScript(labels []dom.Label) (string, error) {
	if labels == nil {
		labels = []dom.Label{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(setLabelsScript, data, dom.IndexAttribute, strconv.Quote(dom.LabelAttribute)), nil
}

func decodeFrame(raw string) (*dom.Frame, error) {
	var frame dom.Frame
	if err := json.UnmarshalFromString(raw, &frame); err != nil {
		return nil, fmt.Errorf("decoding candidate frame: %w", err)
	}
	return &frame, nil
}

func decodeLabeled(raw string) ([]dom.Element, error) {
	var elements []dom.Element
	if err := json.UnmarshalFromString(raw, &elements); err != nil {
		return nil, fmt.Errorf("decoding labeled elements: %w", err)
	}
	return elements, nil
}

func clickSelector(index int) string {
	return fmt.Sprintf(`[%s="%d"]`, dom.IndexAttribute, index)
}
