// Package wordlist provides stop-word lists for token extraction.
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadWords reads one word per line. Blank lines and lines starting with # are skipped.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

// LoadFilter returns the default filter extended with stop words from path.
// An empty path yields the default filter.
func LoadFilter(path string) (*Filter, error) {
	base := DefaultFilter()
	if path == "" {
		return base, nil
	}
	words, err := LoadWords(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load stop words: %w", err)
	}
	return base.WithStopWords(words), nil
}
