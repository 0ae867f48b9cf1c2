package treemenu_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm/treemenu"
)

func TestMigrator_HasMenu(t *testing.T) {
	m := treemenu.NewMigrator(nil, "")
	if m.HasMenu() {
		t.Error("empty path should report no menu")
	}

	missing := filepath.Join(t.TempDir(), "menu.yaml")
	m = treemenu.NewMigrator(nil, missing)
	if m.HasMenu() {
		t.Error("missing file should report no menu")
	}
	if m.MenuPath() != missing {
		t.Errorf("MenuPath = %q, want %q", m.MenuPath(), missing)
	}

	if err := os.WriteFile(missing, []byte("items:\n  - subject: page:1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !m.HasMenu() {
		t.Error("existing file should report a menu")
	}
}
