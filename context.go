package treemenu

import "net/http"

// RenderContext carries what the rendering environment knows about the
// current page. The Resolver consults it, in order, to determine the
// current subject:
//
//  1. Subject, when the host framework already knows the displayed entity
//     (the conventional context key).
//  2. Request, the primary path convention: the request's URL path is
//     matched against the menu.
//  3. RequestPath, the legacy fallback convention for environments that
//     only carry a plain path string.
//
// A zero RenderContext is valid and yields no subject, which
// GetNodes degrades to the fallback strategy.
type RenderContext struct {
	// Subject is the entity the current page displays, when known.
	Subject SubjectLike

	// Request is the HTTP request being rendered, when available.
	Request *http.Request

	// RequestPath is a plain URL path for hosts without an *http.Request.
	// Ignored when Request is set.
	RequestPath string
}

// Path returns the request path used for menu matching and whether one
// could be obtained by either convention.
func (rc RenderContext) Path() (string, bool) {
	if rc.Request != nil && rc.Request.URL != nil {
		return rc.Request.URL.Path, true
	}
	if rc.RequestPath != "" {
		return rc.RequestPath, true
	}
	return "", false
}
