package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/scribeclean/internal/transcript"
)

// runCmd executes the root command with args and stdin and returns stdout.
func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestClean_Stdin(t *testing.T) {
	t.Parallel()

	in := "um so I I I think\nhelo there\n\n"
	got, err := runCmd(t, in, "clean", "--words", "Hello", "--threshold", "0.5", "--jobs", "2")
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	want := "so I think\nHello there\n\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestClean_Flags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no filter", []string{"clean", "--no-filter", "--words", "Hello", "--threshold", "0.5"}, "um Hello\n"},
		{"filter only", []string{"clean", "--stages", "filter", "--words", "Hello", "--threshold", "0.5"}, "helo\n"},
		{"default threshold", []string{"clean", "--words", "Hello"}, "Hello\n"},
		{"strict threshold", []string{"clean", "--words", "Hello", "--threshold", "0.01"}, "helo\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := runCmd(t, "um helo\n", tc.args...)
			if err != nil {
				t.Fatalf("clean: %v", err)
			}
			if got != tc.want {
				t.Errorf("output = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClean_FilesAndWordsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	words := filepath.Join(dir, "words.yaml")
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	for path, content := range map[string]string{
		words: "words: [Grafana]\n",
		a:     "open grafanna\n",
		b:     "uh done\n",
	} {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	got, err := runCmd(t, "", "clean", "--words-file", words, "--threshold", "0.3", a, b)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if got != "open Grafana\ndone\n" {
		t.Errorf("output = %q", got)
	}
}

func TestClean_ConfigDictionaryRelativeToConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	for path, content := range map[string]string{
		cfgPath:                          "vocabulary:\n  threshold: 0.3\n  file: words.yaml\n",
		filepath.Join(dir, "words.yaml"): "words: [Grafana]\n",
	} {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	got, err := runCmd(t, "open grafanna\n", "clean", "--config", cfgPath)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if got != "open Grafana\n" {
		t.Errorf("output = %q", got)
	}
}

func TestClean_JSON(t *testing.T) {
	t.Parallel()

	got, err := runCmd(t, "um helo\n", "clean", "--json", "--words", "Hello", "--threshold", "0.5")
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	var res transcript.Result
	if err := json.Unmarshal([]byte(got), &res); err != nil {
		t.Fatalf("decode %q: %v", got, err)
	}
	if res.Text != "Hello" || res.FillersRemoved != 1 || len(res.Corrections) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestClean_ManyLinesKeepOrder(t *testing.T) {
	t.Parallel()

	var in, want strings.Builder
	for i := range chunkLines*2 + 7 {
		line := strings.Repeat("x", i%5+1)
		in.WriteString("um " + line + "\n")
		want.WriteString(line + "\n")
	}
	got, err := runCmd(t, in.String(), "clean", "--jobs", "8")
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if diff := cmp.Diff(want.String(), got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestClean_Errors(t *testing.T) {
	t.Parallel()

	tests := [][]string{
		{"clean", "--stages", "spellcheck"},
		{"clean", "--words-file", "/does/not/exist.yaml"},
		{"clean", "/does/not/exist.txt"},
		{"clean", "--config", "/does/not/exist.yaml"},
	}
	for _, args := range tests {
		if _, err := runCmd(t, "", args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	got, err := runCmd(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(got, "scribeclean "+version) {
		t.Errorf("output = %q", got)
	}
}
