package treemenu_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pthm/treemenu"
)

func TestErrorHelpers(t *testing.T) {
	helpers := []struct {
		name     string
		sentinel error
		isErr    func(error) bool
	}{
		{"IsNodeNotFoundErr", treemenu.ErrNodeNotFound, treemenu.IsNodeNotFoundErr},
		{"IsDuplicateNodeErr", treemenu.ErrDuplicateNode, treemenu.IsDuplicateNodeErr},
		{"IsNoCurrentNodeErr", treemenu.ErrNoCurrentNode, treemenu.IsNoCurrentNodeErr},
		{"IsNoNodesTableErr", treemenu.ErrNoNodesTable, treemenu.IsNoNodesTableErr},
		{"IsNoSubjectsViewErr", treemenu.ErrNoSubjectsView, treemenu.IsNoSubjectsViewErr},
		{"IsInvalidMenuErr", treemenu.ErrInvalidMenu, treemenu.IsInvalidMenuErr},
	}

	for _, tt := range helpers {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("wrapped: %w", tt.sentinel)
			if !tt.isErr(wrapped) {
				t.Errorf("%s should return true for wrapped sentinel", tt.name)
			}
			if !tt.isErr(tt.sentinel) {
				t.Errorf("%s should return true for the sentinel itself", tt.name)
			}
			if tt.isErr(errors.New("other error")) {
				t.Errorf("%s should return false for other errors", tt.name)
			}
			if tt.isErr(nil) {
				t.Errorf("%s should return false for nil", tt.name)
			}
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	// Verify sentinel errors carry actionable messages
	tests := []struct {
		err     error
		wantMsg string
	}{
		{treemenu.ErrNodeNotFound, "no node for subject"},
		{treemenu.ErrDuplicateNode, "multiple nodes for subject"},
		{treemenu.ErrNoCurrentNode, "no current node"},
		{treemenu.ErrNoNodesTable, "menu_nodes table not found"},
		{treemenu.ErrNoSubjectsView, "menu_subjects view/table not found"},
		{treemenu.ErrInvalidMenu, "invalid menu definition"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMsg, func(t *testing.T) {
			if !strings.Contains(tt.err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", tt.err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestErrorHelpers_Distinct(t *testing.T) {
	// The sentinels are distinct; one helper must not match another's error.
	if treemenu.IsNodeNotFoundErr(treemenu.ErrDuplicateNode) {
		t.Error("IsNodeNotFoundErr should not match ErrDuplicateNode")
	}
	if treemenu.IsNoCurrentNodeErr(treemenu.ErrNodeNotFound) {
		t.Error("IsNoCurrentNodeErr should not match ErrNodeNotFound")
	}
	if treemenu.IsNoNodesTableErr(treemenu.ErrNoSubjectsView) {
		t.Error("IsNoNodesTableErr should not match ErrNoSubjectsView")
	}
}
