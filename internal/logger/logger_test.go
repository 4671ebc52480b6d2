package logger

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestCustomFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Level:   logrus.WarnLevel,
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Message: "分析结果超出范围",
		Data:    logrus.Fields{"row": 3},
	}
	b, err := (&CustomFormatter{}).Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "[2025-01-02 03:04:05] [WARN] [] 分析结果超出范围 row=3\n"
	if string(b) != want {
		t.Errorf("Format() = %q, want %q", b, want)
	}
}

func TestInitLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "propai.log")
	if err := InitLogger("debug", path); err != nil {
		t.Fatalf("InitLogger() error = %v", err)
	}
	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v", Log.GetLevel())
	}
	if err := InitLogger("nonsense", ""); err != nil {
		t.Fatalf("InitLogger() error = %v", err)
	}
	if !strings.EqualFold(Log.GetLevel().String(), "info") {
		t.Errorf("invalid level should fall back to info, got %v", Log.GetLevel())
	}
}
