package dictionary_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/scribeclean/internal/dictionary"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Grafana", want: "Grafana"},
		{in: "\tKubernetes \n", want: "Kubernetes"},
		{in: "New York", want: "New York"},
		{in: "", wantErr: true},
		{in: " \t ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := dictionary.Normalize(tc.in)
		if tc.wantErr {
			if !errors.Is(err, dictionary.ErrInvalidWord) {
				t.Errorf("Normalize(%q): err = %v, want ErrInvalidWord", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("Normalize(%q) = %q, %v; want %q, nil", tc.in, got, err, tc.want)
		}
	}
}

func TestNormalizeAll_ReportsEveryIndex(t *testing.T) {
	t.Parallel()

	_, err := dictionary.NormalizeAll([]string{"", "ok", " "})
	if err == nil {
		t.Fatal("NormalizeAll: expected error")
	}
	for _, want := range []string{"word[0]", "word[2]"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
