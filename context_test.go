package treemenu_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pthm/treemenu"
)

func TestRenderContext_Path(t *testing.T) {
	tests := []struct {
		name   string
		rctx   treemenu.RenderContext
		want   string
		wantOK bool
	}{
		{
			name:   "request URL",
			rctx:   treemenu.RenderContext{Request: httptest.NewRequest("GET", "/products", nil)},
			want:   "/products",
			wantOK: true,
		},
		{
			name:   "plain path string",
			rctx:   treemenu.RenderContext{RequestPath: "/about"},
			want:   "/about",
			wantOK: true,
		},
		{
			name: "request wins over plain path",
			rctx: treemenu.RenderContext{
				Request:     httptest.NewRequest("GET", "/products", nil),
				RequestPath: "/about",
			},
			want:   "/products",
			wantOK: true,
		},
		{
			name:   "request without URL falls through",
			rctx:   treemenu.RenderContext{Request: &http.Request{}, RequestPath: "/about"},
			want:   "/about",
			wantOK: true,
		},
		{
			name:   "zero context",
			rctx:   treemenu.RenderContext{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.rctx.Path()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubject_String(t *testing.T) {
	s := treemenu.Subject{Type: "page", ID: "42"}
	if s.String() != "page:42" {
		t.Errorf("String = %q, want page:42", s.String())
	}
}

func TestSubject_IsZero(t *testing.T) {
	if !(treemenu.Subject{}).IsZero() {
		t.Error("zero Subject should report IsZero")
	}
	if (treemenu.Subject{Type: "page", ID: "1"}).IsZero() {
		t.Error("non-zero Subject should not report IsZero")
	}
}

func TestSubject_ImplementsSubjectLike(t *testing.T) {
	s := treemenu.Subject{Type: "page", ID: "1"}
	var like treemenu.SubjectLike = s
	if like.MenuSubject() != s {
		t.Error("MenuSubject should return the subject itself")
	}
}
