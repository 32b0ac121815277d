package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/SimonWaldherr/nanoDB/internal/storage"
	"github.com/SimonWaldherr/nanoDB/internal/storage/pager"
)

type scenarioFile struct {
	Scenarios []struct {
		Name     string `yaml:"name"`
		Sessions []struct {
			Lines []string `yaml:"lines"`
			Want  []string `yaml:"want"`
		} `yaml:"sessions"`
	} `yaml:"scenarios"`
}

func loadScenarios(t *testing.T) scenarioFile {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", "scenarios.yaml"))
	if err != nil {
		t.Fatalf("read scenarios: %v", err)
	}
	var sf scenarioFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		t.Fatalf("unmarshal scenarios: %v", err)
	}
	return sf
}

// runSession replays lines against the database at path and returns the
// output lines. A .exit line closes the table; sessions without one are
// closed explicitly, matching an orderly shutdown either way.
func runSession(t *testing.T, path string, lines []string) []string {
	t.Helper()
	table, err := storage.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	var out bytes.Buffer
	sess := NewSession(table, &out)
	closed := false
	for _, line := range lines {
		quit, err := sess.Dispatch(line)
		if err != nil {
			t.Fatalf("dispatch %q: %v", line, err)
		}
		if quit {
			closed = true
			break
		}
	}
	if !closed {
		if err := table.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	raw := strings.Split(out.String(), "\n")
	var got []string
	for _, l := range raw {
		if l != "" {
			got = append(got, l)
		}
	}
	return got
}

func TestScenarios(t *testing.T) {
	sf := loadScenarios(t)
	if len(sf.Scenarios) == 0 {
		t.Fatal("no scenarios loaded")
	}
	for _, sc := range sf.Scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.db")
			for i, sess := range sc.Sessions {
				got := runSession(t, path, sess.Lines)
				if len(got) != len(sess.Want) {
					t.Fatalf("session %d: got %d lines want %d\ngot:  %q\nwant: %q", i, len(got), len(sess.Want), got, sess.Want)
				}
				for j := range sess.Want {
					if got[j] != sess.Want[j] {
						t.Fatalf("session %d line %d: got %q want %q", i, j, got[j], sess.Want[j])
					}
				}
			}
			issues, err := pager.Verify(path)
			if err != nil {
				t.Fatalf("verify after scenario: %v", err)
			}
			if len(issues) != 0 {
				t.Fatalf("file issues after scenario: %v", issues)
			}
		})
	}
}

func TestSession_FatalErrorPropagates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	table, err := storage.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	sess := NewSession(table, &out)
	quit, err := sess.Dispatch(".exit")
	if err != nil || !quit {
		t.Fatalf("first .exit: quit=%v err=%v", quit, err)
	}
	// The table is closed; a second .exit must surface a fatal error
	// instead of printing a recoverable diagnostic.
	_, err = sess.Dispatch(".exit")
	if err == nil {
		t.Fatal("expected error from .exit on a closed table")
	}
}
