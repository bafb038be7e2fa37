package s3

import (
	"strings"
	"testing"
	"time"
)

func TestSpaceImageKey(t *testing.T) {
	key := SpaceImageKey("sp-1", "Photo.JPG")
	if !strings.HasPrefix(key, "spaces/sp-1/") {
		t.Errorf("key prefix: %q", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("extension not lowercased: %q", key)
	}
	if key == SpaceImageKey("sp-1", "Photo.JPG") {
		t.Error("keys must be unique per upload")
	}
}

func TestBackupKey(t *testing.T) {
	at := time.Date(2026, 8, 31, 14, 5, 9, 0, time.UTC)
	key := BackupKey(at)
	want := "backups/2026-08-31/renta-140509.json.gz"
	if key != want {
		t.Errorf("key: %q, want %q", key, want)
	}
}
