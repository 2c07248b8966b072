package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ad-rewards-go/internal/database"
	"ad-rewards-go/internal/models"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ads.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}
	return path
}

func TestLoadAdsCatalog(t *testing.T) {
	path := writeCatalog(t, `
ads:
  - title: "Coffee"
    advertiser: "Bean There"
    reward_points: 3
    duration_seconds: 15
  - title: "Groceries"
    reward_points: 2
    active: false
`)

	ads, err := LoadAdsCatalog(path)
	if err != nil {
		t.Fatalf("LoadAdsCatalog failed: %v", err)
	}
	if len(ads) != 2 {
		t.Fatalf("Expected 2 ads, got %d", len(ads))
	}
	if !ads[0].IsActive || ads[0].AdvertiserName != "Bean There" || ads[0].Duration != 15 {
		t.Errorf("Unexpected first ad %+v", ads[0])
	}
	if ads[1].IsActive {
		t.Error("Expected explicit active: false to be kept")
	}
}

func TestLoadAdsCatalog_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing title": "ads:\n  - reward_points: 3\n",
		"zero reward":   "ads:\n  - title: \"x\"\n    reward_points: 0\n",
		"bad yaml":      "ads: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadAdsCatalog(writeCatalog(t, content)); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	if _, err := LoadAdsCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestSeedAds_IsRepeatable(t *testing.T) {
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "seed.db"),
		MaxOpenConns: 2,
		PingTimeout:  time.Second,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	path := writeCatalog(t, `
ads:
  - title: "Coffee"
    reward_points: 3
  - title: "Groceries"
    reward_points: 2
    active: false
`)

	for i := 0; i < 2; i++ {
		count, err := SeedAds(context.Background(), db, path)
		if err != nil {
			t.Fatalf("SeedAds failed: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 seeded ads, got %d", count)
		}
	}

	active, err := db.GetActiveAds(context.Background())
	if err != nil {
		t.Fatalf("GetActiveAds failed: %v", err)
	}
	if len(active) != 1 || active[0].Title != "Coffee" {
		t.Errorf("Expected only Coffee to be active, got %+v", active)
	}
}

func TestIsIgnorableSyncError(t *testing.T) {
	if !isIgnorableSyncError(errors.New("sync /dev/stderr: inappropriate ioctl for device")) {
		t.Error("Expected stderr sync error to be ignorable")
	}
}
