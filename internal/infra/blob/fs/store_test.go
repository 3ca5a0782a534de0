package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"variantcore/internal/blob/core"
)

func TestSanitizeKey(t *testing.T) {
	cases := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"variants/s1/v.json", "variants/s1/v.json", false},
		{"variants//s1/./v.json", "variants/s1/v.json", false},
		{"", "", true},
		{"   ", "", true},
		{"/etc/passwd", "", true},
		{"variants/../../escape", "", true},
		{"variants/v.json.meta", "", true},
	}
	for _, tc := range cases {
		got, err := sanitizeKey(tc.key)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%q: wantErr=%v, got %v", tc.key, tc.wantErr, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.key, tc.want, got)
		}
	}
}

func TestPutWritesSidecarAndSurvivesReopen(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "exports/s1/report.txt", strings.NewReader("ok"), core.PutOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "exports", "s1", "report.txt"+metaSuffix)); err != nil {
		t.Fatalf("expected sidecar: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(root, "exports", "s1"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("temporary file left behind: %s", e.Name())
		}
	}

	reopened, err := New(root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	info, err := reopened.Head(ctx, "exports/s1/report.txt")
	if err != nil || info.ContentType != "text/plain" || info.Size != 2 {
		t.Fatalf("unexpected head %+v %v", info, err)
	}
	if _, err := reopened.Put(ctx, "../outside", strings.NewReader("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected escaping key to be rejected")
	}
}
