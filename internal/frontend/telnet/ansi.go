// Package telnet accepts line-oriented Telnet chat connections and offers ANSI styling helpers.
package telnet

// ANSI escape codes used by the chat frontend.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"

	Green        = "\033[32m"
	Yellow       = "\033[33m"
	Cyan         = "\033[36m"
	BrightCyan   = "\033[96m"
	BrightYellow = "\033[93m"
)

// Colorize wraps text with the given ANSI code and a reset suffix.
func Colorize(color, text string) string {
	return color + text + Reset
}
