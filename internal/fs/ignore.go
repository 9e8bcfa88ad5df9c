package fs

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"
)

// ignoreRule is one parsed pattern.
type ignoreRule struct {
	glob     string
	anchored bool // contains '/': matched against the whole relative name
	dirOnly  bool // trailing '/': matches directories only
}

// IgnoreMatcher decides which scanned names are left out of a snapshot.
// Patterns are path.Match globs. A pattern without '/' matches any entry
// with that base name at any depth; a pattern containing '/' matches the
// full '/'-separated name relative to the scan root. A trailing '/'
// restricts a pattern to directories. An ignored directory is pruned with
// everything beneath it.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher parses raw pattern lines. Blank lines and lines starting
// with '#' are skipped; malformed globs are dropped.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule := ignoreRule{}
		if strings.HasSuffix(line, "/") {
			rule.dirOnly = true
			line = strings.TrimRight(line, "/")
		}
		line = strings.TrimPrefix(line, "/")
		if line == "" {
			continue
		}
		rule.glob = line
		rule.anchored = strings.Contains(line, "/")

		if _, err := path.Match(rule.glob, ""); err != nil {
			continue
		}
		m.rules = append(m.rules, rule)
	}
	return m
}

// Match reports whether name, '/'-separated and relative to the scan root,
// is ignored. isDir tells whether name is a directory.
func (m *IgnoreMatcher) Match(name string, isDir bool) bool {
	name = strings.TrimSuffix(name, "/")
	if name == "" {
		return false
	}
	base := path.Base(name)

	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		subject := base
		if r.anchored {
			subject = name
		}
		if ok, _ := path.Match(r.glob, subject); ok {
			return true
		}
	}
	return false
}

// Len returns the number of usable patterns.
func (m *IgnoreMatcher) Len() int {
	return len(m.rules)
}

// ParseIgnoreFile returns the raw lines of an ignore file.
// A missing file yields no lines and no error.
func ParseIgnoreFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
