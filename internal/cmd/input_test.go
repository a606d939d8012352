package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/askp-cli/askp/internal/errors"
)

func TestResolveQueries(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "queries.txt")
	require.NoError(t, os.WriteFile(file, []byte("first question\n\n  second question  \n"), 0o600))

	tests := []struct {
		name string
		in   queryInput
		want []string
	}{
		{
			name: "arguments are separate queries",
			in:   queryInput{Args: []string{"a", " ", "b"}},
			want: []string{"a", "b"},
		},
		{
			name: "single joins arguments",
			in:   queryInput{Args: []string{"what", "is", "go"}, Single: true},
			want: []string{"what is go"},
		},
		{
			name: "file then arguments",
			in:   queryInput{Args: []string{"third"}, File: file},
			want: []string{"first question", "second question", "third"},
		},
		{
			name: "file dash reads stdin",
			in:   queryInput{File: "-", Stdin: strings.NewReader("x\ny\n"), StdinIsTerminal: true},
			want: []string{"x", "y"},
		},
		{
			name: "piped stdin when nothing else given",
			in:   queryInput{Stdin: strings.NewReader("piped one\npiped two\n")},
			want: []string{"piped one", "piped two"},
		},
		{
			name: "stdin ignored when arguments given",
			in:   queryInput{Args: []string{"arg"}, Stdin: strings.NewReader("ignored\n")},
			want: []string{"arg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveQueries(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveQueriesErrors(t *testing.T) {
	tests := []struct {
		name string
		in   queryInput
	}{
		{name: "nothing", in: queryInput{}},
		{name: "terminal stdin", in: queryInput{Stdin: strings.NewReader("unused"), StdinIsTerminal: true}},
		{name: "blank arguments", in: queryInput{Args: []string{" ", ""}}},
		{name: "missing file", in: queryInput{File: filepath.Join(t.TempDir(), "nope.txt")}},
		{name: "empty stdin", in: queryInput{Stdin: strings.NewReader("\n\n")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveQueries(tt.in)
			require.Error(t, err)
			require.True(t, apperrors.IsUsage(err))
		})
	}
}

func TestIsTerminalForNonFileReader(t *testing.T) {
	require.False(t, isTerminal(strings.NewReader("x")))
}
