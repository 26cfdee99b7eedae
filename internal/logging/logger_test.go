package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitJSONWithFileCopy(t *testing.T) {
	var out, file bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &out, File: &file})
	defer Init(Config{})

	Info().Str("component", "catalog").Int("movies", 3).Msg("catalog loaded")
	Debug().Msg("debug entry")

	for name, buf := range map[string]*bytes.Buffer{"output": &out, "file": &file} {
		s := buf.String()
		if !strings.Contains(s, `"message":"catalog loaded"`) {
			t.Errorf("%s missing message: %s", name, s)
		}
		if !strings.Contains(s, `"movies":3`) {
			t.Errorf("%s missing field: %s", name, s)
		}
		if !strings.Contains(s, "debug entry") {
			t.Errorf("%s missing debug entry: %s", name, s)
		}
	}
}

func TestLevelFilters(t *testing.T) {
	var out bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &out})
	defer Init(Config{})

	Info().Msg("hidden")
	Warn().Msg("shown")

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("info entry logged at warn level: %s", out.String())
	}
	if !strings.Contains(out.String(), "shown") {
		t.Errorf("warn entry missing: %s", out.String())
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	f, path, err := OpenFile(dir, "serve", "/tmp/movierec.db")
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	if !strings.HasPrefix(path, dir) || !strings.Contains(path, "movierec-serve-") {
		t.Errorf("unexpected log path %q", path)
	}
}
