package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"imagebot/internal/core"
)

func TestFileStorage_LoadMissingFile(t *testing.T) {
	fs := NewFileStorage(filepath.Join(t.TempDir(), "missing.json"))

	stats, err := fs.LoadStats()
	if err != nil {
		t.Fatalf("缺失文件不应报错: %v", err)
	}
	if stats.TotalRefreshes != 0 || stats.History == nil {
		t.Errorf("expected empty stats with non-nil history, got %+v", stats)
	}
}

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	fs := NewFileStorage(path)

	want := &core.RefreshStats{
		TotalRefreshes:      2,
		SuccessfulRefreshes: 1,
		FailedRefreshes:     1,
		LastRefreshTime:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		History: []core.RefreshEvent{{
			ID:           "e1",
			Action:       core.ActionModelRefresh,
			Status:       core.StatusError,
			ErrorType:    "model_refresh_error",
			ErrorMessage: "boom",
			Context:      map[string]any{core.ContextKeyFallbackModel: "flux-schnell"},
		}},
	}
	if err := fs.SaveStats(want); err != nil {
		t.Fatalf("SaveStats failed: %v", err)
	}

	got, err := fs.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats failed: %v", err)
	}
	if got.TotalRefreshes != 2 || got.FailedRefreshes != 1 || !got.LastRefreshTime.Equal(want.LastRefreshTime) {
		t.Errorf("counters mismatch: %+v", got)
	}
	if len(got.History) != 1 || got.History[0].Context[core.ContextKeyFallbackModel] != "flux-schnell" {
		t.Errorf("history mismatch: %+v", got.History)
	}
}

func TestFileStorage_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStorage(path).LoadStats(); err == nil {
		t.Error("expected decode error for corrupt file")
	}
}

func TestNewRedisStorage_InvalidURL(t *testing.T) {
	if _, err := NewRedisStorage(RedisStorageConfig{URL: "not-a-url://"}); err == nil {
		t.Error("expected error for invalid redis url")
	}
}

func TestInitStorage_DefaultsToFile(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	st := InitStorage(nil)
	if _, ok := st.(*FileStorage); !ok {
		t.Errorf("expected *FileStorage, got %T", st)
	}
}
