package sandbox

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// DOM is the document proxy page scripts see. It is backed by the parsed
// bootstrap document and records every mutation scripts make.
type DOM struct {
	doc     *goquery.Document
	changes []DOMChange
	mu      sync.RWMutex
}

// Element is a snapshot of one element plus a handle for mutation
type Element struct {
	TagName     string
	ID          string
	ClassName   string
	TextContent string

	sel *goquery.Selection
	dom *DOM
}

// NewDOM wraps a parsed document
func NewDOM(doc *goquery.Document) *DOM {
	return &DOM{doc: doc, changes: []DOMChange{}}
}

// Query finds elements by CSS selector. An invalid selector matches nothing.
func (d *DOM) Query(selector string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.collect(d.doc.Find(selector))
}

// ByID finds an element by id attribute without interpreting it as CSS
func (d *DOM) ByID(id string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	found := d.doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	})
	if found.Length() == 0 {
		return nil
	}
	return d.element(found.First())
}

// GetChanges returns accumulated DOM changes
func (d *DOM) GetChanges() []DOMChange {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]DOMChange{}, d.changes...)
}

// RecordChange adds a DOM change
func (d *DOM) RecordChange(change DOMChange) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changes = append(d.changes, change)
}

func (d *DOM) collect(sel *goquery.Selection) []*Element {
	out := make([]*Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, d.element(s))
	})
	return out
}

func (d *DOM) element(s *goquery.Selection) *Element {
	id, _ := s.Attr("id")
	class, _ := s.Attr("class")
	return &Element{
		TagName:     strings.ToUpper(goquery.NodeName(s)),
		ID:          id,
		ClassName:   class,
		TextContent: s.Text(),
		sel:         s,
		dom:         d,
	}
}

// GetAttribute retrieves attribute value
func (e *Element) GetAttribute(name string) string {
	v, _ := e.sel.Attr(name)
	return v
}

// SetAttribute sets attribute value and records change
func (e *Element) SetAttribute(name, value string) {
	e.dom.mu.Lock()
	e.sel.SetAttr(name, value)
	e.dom.mu.Unlock()

	if name == "id" {
		e.ID = value
	}
	if name == "class" {
		e.ClassName = value
	}
	e.dom.RecordChange(DOMChange{
		Type:     "set_attribute",
		Selector: e.selector(),
		Property: name,
		Value:    value,
	})
}

func (e *Element) selector() string {
	if e.ID != "" {
		return "#" + e.ID
	}
	return strings.ToLower(e.TagName)
}
