package todo

import (
	"fmt"
	"strings"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// DefaultPriority is assigned to tasks created without a priority.
const DefaultPriority = PriorityMedium

// Priorities returns all levels from most to least urgent.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// legacyPriorities maps the labels used by the browser app's snapshots.
var legacyPriorities = map[string]Priority{
	"hoch":    PriorityHigh,
	"mittel":  PriorityMedium,
	"niedrig": PriorityLow,
}

// ParsePriority converts user or stored input into a Priority.
// Matching is case-insensitive and accepts the legacy labels
// "Hoch", "Mittel" and "Niedrig". An empty string yields DefaultPriority.
func ParsePriority(s string) (Priority, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "":
		return DefaultPriority, nil
	case "high", "h", "1":
		return PriorityHigh, nil
	case "medium", "m", "2":
		return PriorityMedium, nil
	case "low", "l", "3":
		return PriorityLow, nil
	}
	if p, ok := legacyPriorities[key]; ok {
		return p, nil
	}
	return "", fmt.Errorf("invalid priority %q, must be one of: High, Medium, Low", s)
}

// Valid reports whether p is one of the three defined levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Rank returns the sort position of p (High=1, Medium=2, Low=3).
// Unknown values rank after Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// ComparePriority orders two priorities by rank, returning -1, 0 or +1.
func ComparePriority(a, b Priority) int {
	ra, rb := a.Rank(), b.Rank()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// MarshalText writes the canonical label.
func (p Priority) MarshalText() ([]byte, error) {
	if p == "" {
		return []byte(DefaultPriority), nil
	}
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %q", string(p))
	}
	return []byte(p), nil
}

// UnmarshalText accepts anything ParsePriority accepts.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
