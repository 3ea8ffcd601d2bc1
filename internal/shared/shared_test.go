package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeSongKey(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		got := NormalizeSongKey("  Wonderwall ", " Oasis")
		want := "wonderwall|oasis"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("cosmetic differences compare equal", func(t *testing.T) {
		a := NormalizeSongKey("Hey Jude", "The Beatles")
		b := NormalizeSongKey("hey jude", "the beatles  ")
		if a != b {
			t.Errorf("expected keys to match: %q vs %q", a, b)
		}
	})

	t.Run("different songs differ", func(t *testing.T) {
		a := NormalizeSongKey("Hey Jude", "The Beatles")
		b := NormalizeSongKey("Let It Be", "The Beatles")
		if a == b {
			t.Error("expected different keys for different titles")
		}
	})
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == b {
		t.Error("expected unique IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected UUID string length 36, got %d", len(a))
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("failed to generate state: %v", err)
	}
	b, err := GenerateState()
	if err != nil {
		t.Fatalf("failed to generate state: %v", err)
	}

	if a == b {
		t.Error("expected unique state tokens")
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{185, "3:05"},
		{-5, "0:00"},
	}

	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]string{"key": "value"}

	t.Run("compact", func(t *testing.T) {
		out, err := MarshalJSON(data, false)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		if strings.Contains(string(out), "\n") {
			t.Error("compact output should not contain newlines")
		}
	})

	t.Run("pretty", func(t *testing.T) {
		out, err := MarshalJSON(data, true)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		if !strings.Contains(string(out), "  ") {
			t.Error("pretty output should be indented")
		}
	})
}

func TestValidateJSON(t *testing.T) {
	if err := ValidateJSON([]byte(`{"ok": true}`)); err != nil {
		t.Errorf("expected valid JSON to pass: %v", err)
	}
	if err := ValidateJSON([]byte(`{not json`)); err == nil {
		t.Error("expected invalid JSON to fail")
	}
}

func TestVerifyAndReadFile(t *testing.T) {
	t.Run("reads existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.json")
		if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		data, err := VerifyAndReadFile(path)
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if string(data) != "content" {
			t.Errorf("expected %q, got %q", "content", string(data))
		}
	})

	t.Run("rejects empty path", func(t *testing.T) {
		if _, err := VerifyAndReadFile(""); err == nil {
			t.Error("expected error for empty path")
		}
	})

	t.Run("rejects directory", func(t *testing.T) {
		if _, err := VerifyAndReadFile(t.TempDir()); err == nil {
			t.Error("expected error for directory")
		}
	})

	t.Run("rejects missing file", func(t *testing.T) {
		if _, err := VerifyAndReadFile("/nonexistent/file.json"); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}

	logger.Info("hello")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("log file was not created: %s", path)
	}
}
