package cmd

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	apperrors "github.com/askp-cli/askp/internal/errors"
)

// queryInput describes where queries come from.
type queryInput struct {
	Args   []string
	File   string
	Single bool
	Stdin  io.Reader
	// StdinIsTerminal reports whether stdin is interactive; piped stdin is read
	// only when no arguments or file were given.
	StdinIsTerminal bool
}

// resolveQueries collects queries from --file, then arguments, then piped stdin.
// With Single, all arguments are joined into one query.
func resolveQueries(in queryInput) ([]string, error) {
	queries := make([]string, 0)

	if path := strings.TrimSpace(in.File); path != "" {
		fromFile, err := readQueryFile(path, in.Stdin)
		if err != nil {
			return nil, err
		}
		queries = append(queries, fromFile...)
	}

	switch {
	case len(in.Args) > 0 && in.Single:
		if joined := strings.TrimSpace(strings.Join(in.Args, " ")); joined != "" {
			queries = append(queries, joined)
		}
	case len(in.Args) > 0:
		for _, arg := range in.Args {
			if q := strings.TrimSpace(arg); q != "" {
				queries = append(queries, q)
			}
		}
	case len(queries) == 0 && in.Stdin != nil && !in.StdinIsTerminal:
		fromStdin, err := readQueryLines(in.Stdin)
		if err != nil {
			return nil, apperrors.NewUsage("read stdin: %v", err)
		}
		queries = append(queries, fromStdin...)
	}

	if len(queries) == 0 {
		return nil, apperrors.NewUsage("at least one query is required")
	}
	return queries, nil
}

func readQueryFile(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		if stdin == nil {
			return nil, apperrors.NewUsage("no stdin available for --file -")
		}
		lines, err := readQueryLines(stdin)
		if err != nil {
			return nil, apperrors.NewUsage("read stdin: %v", err)
		}
		return lines, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewUsage("read query file: %v", err)
	}
	defer file.Close() // nolint:errcheck

	lines, err := readQueryLines(file)
	if err != nil {
		return nil, apperrors.NewUsage("read query file %s: %v", path, err)
	}
	return lines, nil
}

func readQueryLines(r io.Reader) ([]string, error) {
	lines := make([]string, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// isTerminal reports whether r is a file attached to a terminal.
// Readers that are not files, such as test buffers, count as piped input.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
