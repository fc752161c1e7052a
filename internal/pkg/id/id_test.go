package id

import (
	"strings"
	"testing"
)

func TestSanitizeStem(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"scene_1", "scene_1"},
		{"a b/c", "a_b_c"},
		{"日本語", "___"},
		{"ok-name_09", "ok-name_09"},
	}
	for _, tt := range tests {
		if got := SanitizeStem(tt.in); got != tt.want {
			t.Errorf("SanitizeStem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := SanitizeStem(strings.Repeat("a", 200))
	if len(long) != 80 {
		t.Errorf("long stem should be capped at 80, got %d", len(long))
	}
}

func TestAssetFilename(t *testing.T) {
	a := AssetFilename("scene 1", "mp3")
	b := AssetFilename("scene 1", "mp3")

	if a == b {
		t.Error("two filenames for the same stem should not collide")
	}
	if !strings.HasPrefix(a, "scene_1_") || !strings.HasSuffix(a, ".mp3") {
		t.Errorf("unexpected filename shape: %q", a)
	}
}
