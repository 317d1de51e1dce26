package pipeline

import (
	"github.com/pkg/errors"

	"dauphin/internal/errkind"
)

// Config holds the pipeline's tuning knobs (spec §6.4, SPEC_FULL pass_pause
// budget) — deliberately separate from RunConfig in the executor package,
// which governs task scheduling rather than compile-time behavior.
type Config struct {
	Verbose int // 0..3, spec §6.4
	Profile bool

	// DebugName prefixes per-pass profile dumps when Profile is set:
	// "<DebugName>-<pass>-<index>.profile".
	DebugName string

	// PauseBudget is the accumulated execution_time() cost the
	// pause-insert post-pass allows between Pause(Yield) instructions.
	// Zero means "use the default" (DefaultPauseBudget).
	PauseBudget float64
}

// DefaultPauseBudget is the pause budget used when Config.PauseBudget is
// left at zero.
const DefaultPauseBudget = 64.0

func (c Config) pauseBudget() float64 {
	if c.PauseBudget <= 0 {
		return DefaultPauseBudget
	}
	return c.PauseBudget
}

// OptSeqForLevel expands an --opt-level integer into the optional-pass
// string it denotes (spec §6.4): 0 -> none, 1 -> "p", 2..6 -> "pcpmuedprdpa".
func OptSeqForLevel(level int) (string, error) {
	switch {
	case level < 0 || level > 6:
		return "", errkind.With(errkind.Config, errors.Errorf("opt-level %d: must be 0..6", level))
	case level == 0:
		return "", nil
	case level == 1:
		return "p", nil
	default:
		return "pcpmuedprdpa", nil
	}
}
