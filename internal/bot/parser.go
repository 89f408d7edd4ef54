package bot

import "strings"

// commandPrefixes mark a line as a command; the ideographic full stop is
// what CJK input methods produce for '.'.
var commandPrefixes = []string{".", "。"}

// Parse reports whether line is a command and returns the text after the
// command prefix with surrounding whitespace removed.
func Parse(line string) (string, bool) {
	line = strings.TrimSpace(line)
	for _, p := range commandPrefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(line[len(p):]), true
		}
	}
	return "", false
}
