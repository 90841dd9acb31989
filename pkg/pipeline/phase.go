package pipeline

// Phase represents the coordinator's position in the run state machine.
// Transitions are strictly forward: Start, CountingPhase,
// MirroringPhase, Summarized, End. No phase is skipped; an empty
// locator set still passes through both phases with zero work.
type Phase string

const (
	PhaseStart     Phase = "start"
	PhaseCounting  Phase = "counting"
	PhaseMirroring Phase = "mirroring"
	PhaseSummarize Phase = "summarized"
	PhaseEnd       Phase = "end"
)

// next returns the phase following p
func (p Phase) next() Phase {
	switch p {
	case PhaseStart:
		return PhaseCounting
	case PhaseCounting:
		return PhaseMirroring
	case PhaseMirroring:
		return PhaseSummarize
	case PhaseSummarize:
		return PhaseEnd
	default:
		return PhaseEnd
	}
}
