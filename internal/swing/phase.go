package swing

// Phase is the current position in the swing lifecycle. Exactly one phase is
// current at any time; Idle is initial and Finished is terminal, triggering
// finalize-and-reset back to Idle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAddress
	PhaseBackswing
	PhaseTopOfSwing
	PhaseTransition
	PhaseDownswing
	PhaseImpact
	PhaseFollowThrough
	PhaseFinished
)

var phaseNames = [...]string{
	"idle",
	"address",
	"backswing",
	"top_of_swing",
	"transition",
	"downswing",
	"impact",
	"follow_through",
	"finished",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText makes phases render as their names in JSON snapshots.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// InProgress reports whether a swing record is being accumulated in this
// phase.
func (p Phase) InProgress() bool {
	return p >= PhaseBackswing && p <= PhaseFollowThrough
}

// Path is the lateral rotation bias of the downswing.
type Path string

const (
	PathUnknown    Path = "unknown"
	PathNeutral    Path = "neutral"
	PathInsideOut  Path = "inside_out"
	PathOverTheTop Path = "over_the_top"
)

// Type is the coarse swing category derived from peak G and tempo.
type Type string

const (
	TypeUnknown     Type = "unknown"
	TypePutt        Type = "putt"
	TypeChipOrPitch Type = "chip_or_pitch"
	TypeIronSwing   Type = "iron_swing"
	TypeFullSwing   Type = "full_swing"
)
