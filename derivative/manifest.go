package derivative

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Manifest describes the translation outputs produced for one source design.
type Manifest struct {
	Type         string       `json:"type"`
	HasThumbnail string       `json:"hasThumbnail"`
	Status       string       `json:"status"`
	Progress     string       `json:"progress"`
	Region       string       `json:"region"`
	URN          string       `json:"urn"`
	Version      string       `json:"version"`
	Derivatives  []Derivative `json:"derivatives"`
}

// Derivative is one node of the manifest tree. Top-level nodes describe an
// output format; children describe viewables and resource files.
type Derivative struct {
	GUID       string       `json:"guid"`
	Type       string       `json:"type"`
	Role       string       `json:"role"`
	Name       string       `json:"name"`
	Status     string       `json:"status"`
	Progress   string       `json:"progress"`
	MIME       string       `json:"mime"`
	URN        string       `json:"urn"`
	OutputType string       `json:"outputType"`
	Children   []Derivative `json:"children"`
}

// Walk traverses every derivative node depth-first in document (pre-order)
// order. fn's return value controls descent: returning false prunes that
// node's children.
func (m *Manifest) Walk(fn func(d *Derivative) bool) {
	for i := range m.Derivatives {
		walk(&m.Derivatives[i], fn)
	}
}

func walk(d *Derivative, fn func(*Derivative) bool) {
	if !fn(d) {
		return
	}

	for i := range d.Children {
		walk(&d.Children[i], fn)
	}
}

// SearchQuery filters manifest nodes by equality. Empty fields match
// every node.
type SearchQuery struct {
	GUID string
	Type string
	Role string
}

func (q SearchQuery) matches(d *Derivative) bool {
	if q.GUID != "" && d.GUID != q.GUID {
		return false
	}

	if q.Type != "" && d.Type != q.Type {
		return false
	}

	if q.Role != "" && d.Role != q.Role {
		return false
	}

	return true
}

// Search returns every node matching q, in document (pre-order,
// depth-first) order. The returned pointers alias the manifest's nodes.
func (m *Manifest) Search(q SearchQuery) []*Derivative {
	var out []*Derivative

	m.Walk(func(d *Derivative) bool {
		if q.matches(d) {
			out = append(out, d)
		}

		return true
	})

	return out
}

// GetManifest retrieves the manifest for a translated design.
func (c *Client) GetManifest(ctx context.Context, urn string) (*Manifest, error) {
	c.logger.Info("getting manifest", slog.String("urn", urn))

	var m Manifest
	if err := c.getJSON(ctx, c.path("/"+escapeSegment(urn)+"/manifest"), scopeRead, false, &m); err != nil {
		return nil, err
	}

	return &m, nil
}

// DeleteManifest deletes the manifest and all derivatives previously
// generated for a design.
func (c *Client) DeleteManifest(ctx context.Context, urn string) error {
	c.logger.Info("deleting manifest", slog.String("urn", urn))

	resp, err := c.do(ctx, http.MethodDelete, c.path("/"+escapeSegment(urn)+"/manifest"), scopeWrite, requestOpts{})
	if err != nil {
		return fmt.Errorf("derivative: deleting manifest: %w", err)
	}
	resp.Body.Close()

	return nil
}
