package utils

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logrus.Level
		wantErr bool
	}{
		{"debug", logrus.DebugLevel, false},
		{"INFO", logrus.InfoLevel, false},
		{"warn", logrus.WarnLevel, false},
		{"warning", logrus.WarnLevel, false},
		{"error", logrus.ErrorLevel, false},
		{"fatal", logrus.FatalLevel, false},
		{"trace", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseLogLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("ParseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestGetAbsDBPath(t *testing.T) {
	got, err := GetAbsDBPath("")
	if err != nil {
		t.Fatalf("GetAbsDBPath: %v", err)
	}
	if filepath.Base(got) != "apscrape.sqlite" || filepath.Base(filepath.Dir(got)) != "apscrape" {
		t.Fatalf("unexpected default path %q", got)
	}

	got, _ = GetAbsDBPath("runs.sqlite")
	if !filepath.IsAbs(got) {
		t.Fatalf("expected absolute path, got %q", got)
	}
}

func TestDBLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "apscrape.sqlite")

	first, err := NewDBLock(dbPath)
	if err != nil {
		t.Fatalf("NewDBLock: %v", err)
	}
	if first.Path() != dbPath+".lock" {
		t.Fatalf("Path = %q", first.Path())
	}
	if err := first.Lock(context.Background()); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	second, _ := NewDBLock(dbPath)
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := second.Lock(ctx); err == nil {
		t.Fatalf("second lock should time out while the first is held")
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := second.Lock(context.Background()); err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	second.Unlock()
}
