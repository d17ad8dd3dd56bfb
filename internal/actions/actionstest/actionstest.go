// Package actionstest provides helpers to inspect files written by
// actions.Step in tests.
package actionstest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ReadOutputs parses a GITHUB_OUTPUT file written in the heredoc format
func ReadOutputs(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	ret := make(map[string]string)
	content := strings.TrimSuffix(string(b), "\n")
	if content == "" {
		return ret, nil
	}
	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		name, delimiter, ok := strings.Cut(lines[i], "<<")
		if !ok {
			return nil, fmt.Errorf("line %d: expected name<<delimiter, got %q", i+1, lines[i])
		}
		var value []string
		for i++; i < len(lines) && lines[i] != delimiter; i++ {
			value = append(value, lines[i])
		}
		if i == len(lines) {
			return nil, fmt.Errorf("output %s: missing delimiter %s", name, delimiter)
		}
		ret[name] = strings.Join(value, "\n")
	}
	return ret, nil
}
