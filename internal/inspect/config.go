package inspect

import (
	"fmt"
	"strconv"
	"strings"
)

// Config holds configuration for one inspection.
type Config struct {
	Path    string         // Dataset file to read
	Labels  map[string]int // Label -> code mapping applied while reading
	JSON    bool           // Emit JSON instead of a table
	NoColor bool           // Disable colored output
}

// ParseLabels parses "open_eye=1,closed_eye=2" into a label -> code map.
func ParseLabels(s string) (map[string]int, error) {
	out := map[string]int{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		label, code, ok := strings.Cut(pair, "=")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("%w: label pair %q", ErrUsage, pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(code))
		if err != nil {
			return nil, fmt.Errorf("%w: code of %q: %w", ErrUsage, label, err)
		}
		out[label] = n
	}
	return out, nil
}
