package prefs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestOpenFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantOrder []PanelID
		wantLang  string
	}{
		{
			name:      "valid file",
			content:   "panel-order: [alerts, overview, vehicle]\nlanguage: de\n",
			wantOrder: []PanelID{PanelAlerts, PanelOverview, PanelVehicle},
			wantLang:  "de",
		},
		{
			name:      "malformed yaml",
			content:   "panel-order: [alerts, overview\n",
			wantOrder: DefaultPanelOrder,
			wantLang:  DefaultLanguage,
		},
		{
			name:      "wrong length",
			content:   "panel-order: [alerts, overview]\nlanguage: de\n",
			wantOrder: DefaultPanelOrder,
			wantLang:  "de",
		},
		{
			name:      "unknown panel",
			content:   "panel-order: [alerts, overview, map]\n",
			wantOrder: DefaultPanelOrder,
			wantLang:  DefaultLanguage,
		},
		{
			name:      "not a list",
			content:   "panel-order: overview\n",
			wantOrder: DefaultPanelOrder,
			wantLang:  DefaultLanguage,
		},
		{
			name:      "duplicates are accepted",
			content:   "panel-order: [alerts, alerts, vehicle]\n",
			wantOrder: []PanelID{PanelAlerts, PanelAlerts, PanelVehicle},
			wantLang:  DefaultLanguage,
		},
		{
			name:      "unsupported language",
			content:   "language: fr\n",
			wantOrder: DefaultPanelOrder,
			wantLang:  DefaultLanguage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.yaml")
			writeFile(t, path, tt.content)

			s := Open(path)
			if diff := cmp.Diff(tt.wantOrder, s.PanelOrder()); diff != "" {
				t.Errorf("panel order mismatch (-want +got):\n%s", diff)
			}
			if got := s.Language(); got != tt.wantLang {
				t.Errorf("language = %q, want %q", got, tt.wantLang)
			}
		})
	}
}

func TestOpenMissingFile(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "nope", "prefs.yaml"))
	if diff := cmp.Diff(DefaultPanelOrder, s.PanelOrder()); diff != "" {
		t.Errorf("panel order mismatch (-want +got):\n%s", diff)
	}
	if s.Language() != DefaultLanguage {
		t.Errorf("language = %q", s.Language())
	}
}

func TestSaveAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "prefs.yaml")
	s := Open(path)

	order := []PanelID{PanelVehicle, PanelAlerts, PanelOverview}
	if err := s.SetPanelOrder(order); err != nil {
		t.Fatalf("SetPanelOrder: %v", err)
	}
	if err := s.SetLanguage("DE"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}

	reopened := Open(path)
	if diff := cmp.Diff(order, reopened.PanelOrder()); diff != "" {
		t.Errorf("panel order mismatch (-want +got):\n%s", diff)
	}
	if got := reopened.Language(); got != "de" {
		t.Errorf("language = %q, want de", got)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	writeFile(t, path, "panel-order: [alerts, vehicle, overview]\n")

	s := Open(path)
	if err := s.SetLanguage("de"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}

	want := []PanelID{PanelAlerts, PanelVehicle, PanelOverview}
	if diff := cmp.Diff(want, Open(path).PanelOrder()); diff != "" {
		t.Errorf("saving language changed panel order (-want +got):\n%s", diff)
	}
}

func TestSetRejectsInvalid(t *testing.T) {
	s := Open("")

	if err := s.SetPanelOrder([]PanelID{PanelAlerts}); !errors.Is(err, ErrInvalidPanelOrder) {
		t.Errorf("SetPanelOrder err = %v, want ErrInvalidPanelOrder", err)
	}
	if err := s.SetLanguage("klingon"); !errors.Is(err, ErrUnsupportedLang) {
		t.Errorf("SetLanguage err = %v, want ErrUnsupportedLang", err)
	}
	if diff := cmp.Diff(DefaultPanelOrder, s.PanelOrder()); diff != "" {
		t.Errorf("rejected order was applied (-want +got):\n%s", diff)
	}
}

func TestPanelOrderIsCopied(t *testing.T) {
	s := Open("")
	got := s.PanelOrder()
	got[0] = "mutated"

	if s.PanelOrder()[0] != PanelOverview {
		t.Error("PanelOrder returned internal slice")
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	writeFile(t, path, "language: en\n")

	changed := make(chan struct{}, 8)
	s := Open(path, OnChange(func() { changed <- struct{}{} }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	deadline := time.After(5 * time.Second)
	for s.Language() != "de" {
		// rewrite until the watcher, which may still be starting, sees it
		writeFile(t, path, "language: de\n")
		select {
		case <-changed:
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("watcher never reloaded the file")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
