package trace

import (
	"fmt"
	"strings"
)

// Level is the --trace-level setting. Higher levels admit finer scopes.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // crash ring only
	LevelPhase        // commands and pipeline stages
	LevelDetail       // plus one span per source or item
	LevelDebug
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel reads the --trace-level flag value. Empty means off.
func ParseLevel(s string) (Level, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	if want == "" {
		return LevelOff, nil
	}
	for i, name := range levelNames {
		if name == want {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (want %s)", s, strings.Join(levelNames[:], ", "))
}

// ShouldEmit reports whether events of scope are recorded at this level.
// LevelError keeps stage spans so a crash dump shows the failing stage.
func (l Level) ShouldEmit(scope Scope) bool {
	switch {
	case l == LevelOff || l > LevelDebug:
		return false
	case l >= LevelDetail:
		return true
	default:
		return scope <= ScopeStage
	}
}
