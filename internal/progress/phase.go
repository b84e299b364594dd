package progress

// Phase is the lifecycle state of a progress view.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseMutating
	PhaseFailed
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseMutating:
		return "mutating"
	case PhaseFailed:
		return "failed"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type event int

const (
	eventOpen event = iota
	eventFetched
	eventFetchFailed
	eventToggle
	eventSettled
	eventRefetch
	eventClose
)

func (e event) String() string {
	switch e {
	case eventOpen:
		return "open"
	case eventFetched:
		return "fetched"
	case eventFetchFailed:
		return "fetch-failed"
	case eventToggle:
		return "toggle"
	case eventSettled:
		return "settled"
	case eventRefetch:
		return "refetch"
	case eventClose:
		return "close"
	default:
		return "unknown"
	}
}

// transition is the only place phases change. pending is the number of
// toggles still waiting on their request after the event is applied.
// The bool is false when the event is not allowed in phase p.
func transition(p Phase, e event, pending int) (Phase, bool) {
	if e == eventClose {
		return PhaseClosed, true
	}
	if p == PhaseClosed {
		return PhaseClosed, false
	}

	busy := PhaseReady
	if pending > 0 {
		busy = PhaseMutating
	}

	switch e {
	case eventOpen:
		if p == PhaseIdle || p == PhaseFailed {
			return PhaseLoading, true
		}
	case eventFetched:
		if p == PhaseLoading {
			return busy, true
		}
	case eventFetchFailed:
		if p == PhaseLoading {
			return PhaseFailed, true
		}
	case eventToggle:
		switch p {
		case PhaseReady, PhaseMutating:
			return PhaseMutating, true
		case PhaseLoading:
			// The refetch result re-applies pending toggles.
			return PhaseLoading, true
		}
	case eventSettled:
		switch p {
		case PhaseMutating:
			return busy, true
		case PhaseLoading:
			return PhaseLoading, true
		}
	case eventRefetch:
		if p == PhaseReady || p == PhaseMutating || p == PhaseLoading {
			return PhaseLoading, true
		}
	}
	return p, false
}
