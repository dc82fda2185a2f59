package components

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PathCompleter cycles through filesystem completions on repeated Tab
// presses. Directories always match; files match only when they carry one of
// the configured extensions, or any file when none are configured.
//
//	completed := completer.Next(input.Value()) // on Tab
//	completer.Reset()                          // on any other key
type PathCompleter struct {
	matches    []string
	cycleIndex int
	lastParent string
	extensions []string
}

// NewPathCompleter matches directories plus files ending in one of
// extensions (case-insensitive, e.g. ".db").
func NewPathCompleter(extensions ...string) *PathCompleter {
	lowered := make([]string, len(extensions))
	for i, ext := range extensions {
		lowered[i] = strings.ToLower(ext)
	}
	return &PathCompleter{extensions: lowered}
}

// Next returns the next completion of input. The first call for a directory
// extends input to the longest common prefix when that adds anything;
// further calls cycle through the matches.
func (c *PathCompleter) Next(input string) string {
	parent, prefix := splitPath(input)

	if parent != c.lastParent || c.matches == nil {
		c.matches = c.findMatches(parent, prefix)
		c.cycleIndex = 0
		c.lastParent = parent

		switch {
		case len(c.matches) == 0:
			return input
		case len(c.matches) > 1:
			if candidate := filepath.Join(parent, longestCommonPrefix(c.matches)); len(candidate) > len(input) {
				return candidate
			}
		}
		return formatMatch(parent, c.matches[0])
	}

	if len(c.matches) == 0 {
		return input
	}
	c.cycleIndex = (c.cycleIndex + 1) % len(c.matches)
	return formatMatch(parent, c.matches[c.cycleIndex])
}

// Reset forgets the current cycle.
func (c *PathCompleter) Reset() {
	c.matches = nil
	c.cycleIndex = 0
	c.lastParent = ""
}

func (c *PathCompleter) findMatches(parent, prefix string) []string {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil
	}

	lowPrefix := strings.ToLower(prefix)
	matches := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(strings.ToLower(name), lowPrefix) {
			continue
		}
		if entry.IsDir() || c.acceptsFile(name) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches
}

func (c *PathCompleter) acceptsFile(name string) bool {
	if len(c.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range c.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func formatMatch(parent, name string) string {
	result := filepath.Join(parent, name)
	if info, err := os.Stat(result); err == nil && info.IsDir() {
		result += string(filepath.Separator)
	}
	return result
}

// splitPath splits input into the directory to list and the name prefix.
//
//	"data/mnx"  → ("data", "mnx")
//	"data/"     → ("data", "")
//	"mnx"       → (".", "mnx")
//	"" or "."   → (".", "")
func splitPath(input string) (parent, prefix string) {
	if input == "" || input == "." {
		return ".", ""
	}
	if strings.HasSuffix(input, string(filepath.Separator)) || strings.HasSuffix(input, "/") {
		return strings.TrimRight(input, `/\`), ""
	}
	return filepath.Dir(input), filepath.Base(input)
}

// longestCommonPrefix compares case-insensitively and returns the prefix as
// spelled in the first string.
func longestCommonPrefix(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	first := strings.ToLower(strs[0])
	end := len(first)
	for _, s := range strs[1:] {
		s = strings.ToLower(s)
		i := 0
		for i < end && i < len(s) && s[i] == first[i] {
			i++
		}
		end = i
	}
	return strs[0][:end]
}
