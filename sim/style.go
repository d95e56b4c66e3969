package sim

// RunningStyle is a horse's fixed racing-strategy category ("leg type").
// It determines when during a race the horse gains phase bonuses, how its
// stamina depletion is shaped across phases, and which lane it seeks.
//
// The set is small and closed; all style-specific behavior is dispatched
// through switches in the consuming calculators so each style has a single
// source of truth per subsystem.
type RunningStyle int

const (
	// StyleFrontRunner explodes out of the gate: early-phase speed bonus,
	// heavy early stamina burn, always drifts toward the rail.
	StyleFrontRunner RunningStyle = iota

	// StyleStalker sits just off the pace and holds its lane. Gets
	// frustrated (extra penalty) when boxed in on both sides.
	StyleStalker

	// StyleMidpack runs its race in the middle phases and seeks the
	// center lanes where it has the most options.
	StyleMidpack

	// StyleCloser saves ground early and runs down the field late,
	// seeking whichever nearby lane has the least traffic.
	StyleCloser

	// StyleDeepCloser is the one conditional style: no fixed phase
	// window. It gains its bonus only in the final quarter, and only
	// with clear running room off the rail.
	StyleDeepCloser
)

// StyleUnknown is the neutral fallback for unrecognized roster keys: no
// phase bonus, neutral stamina shape, hold-lane policy.
const StyleUnknown RunningStyle = -1

var styleNames = map[RunningStyle]string{
	StyleFrontRunner: "front-runner",
	StyleStalker:     "stalker",
	StyleMidpack:     "midpack",
	StyleCloser:      "closer",
	StyleDeepCloser:  "deep-closer",
}

func (s RunningStyle) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseRunningStyle maps a config/roster key to a RunningStyle.
// Unknown keys return ok=false; callers treat that as a neutral style
// (no phase bonus, hold-lane policy) rather than an error, per the
// total-function rule for the hot path.
func ParseRunningStyle(name string) (RunningStyle, bool) {
	for style, n := range styleNames {
		if n == name {
			return style, true
		}
	}
	return StyleUnknown, false
}

// Surface is the track surface type. Unknown surfaces resolve to a
// neutral speed factor, never an error.
type Surface string

const (
	SurfaceTurf      Surface = "turf"
	SurfaceDirt      Surface = "dirt"
	SurfaceSynthetic Surface = "synthetic"
)

// Condition is the going of the track on race day.
type Condition string

const (
	ConditionFirm  Condition = "firm"
	ConditionGood  Condition = "good"
	ConditionSoft  Condition = "soft"
	ConditionHeavy Condition = "heavy"
)
