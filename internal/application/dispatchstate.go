package application

import "fmt"

// DispatchState is the phase of one search execution. A run starts Idle and
// terminates in Done or Failed.
type DispatchState int

const (
	DispatchIdle DispatchState = iota
	DispatchQuerying
	DispatchRateLimited
	DispatchBackoff
	DispatchFailed
	DispatchDone
)

func (s DispatchState) String() string {
	switch s {
	case DispatchIdle:
		return "idle"
	case DispatchQuerying:
		return "querying"
	case DispatchRateLimited:
		return "rate_limited"
	case DispatchBackoff:
		return "backoff"
	case DispatchFailed:
		return "failed"
	case DispatchDone:
		return "done"
	default:
		return fmt.Sprintf("dispatch_state(%d)", int(s))
	}
}

// DispatchEvent is an observation the dispatcher feeds into the state
// machine: a query outcome, a rotation result, or a completed wait.
type DispatchEvent int

const (
	EventStart DispatchEvent = iota
	EventHits
	EventQuotaExhausted
	EventForbidden
	EventTransient
	EventInterrupted
	EventRotated
	EventRotationNoop
	EventSlept
	EventBudgetExhausted
)

func (e DispatchEvent) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventHits:
		return "hits"
	case EventQuotaExhausted:
		return "quota_exhausted"
	case EventForbidden:
		return "forbidden"
	case EventTransient:
		return "transient"
	case EventInterrupted:
		return "interrupted"
	case EventRotated:
		return "rotated"
	case EventRotationNoop:
		return "rotation_noop"
	case EventSlept:
		return "slept"
	case EventBudgetExhausted:
		return "budget_exhausted"
	default:
		return fmt.Sprintf("dispatch_event(%d)", int(e))
	}
}

// DispatchAction is what the dispatcher must do on entering the new state.
type DispatchAction int

const (
	// ActionQueryFresh issues the first query of a run, with a proactive
	// rotation check beforehand. Charges one attempt.
	ActionQueryFresh DispatchAction = iota
	// ActionQuery re-issues the query after a completed wait. Charges one
	// attempt.
	ActionQuery
	// ActionQueryFree re-issues the query on a freshly rotated credential
	// without charging an attempt.
	ActionQueryFree
	// ActionRotate advances the credential pool in response to quota
	// exhaustion.
	ActionRotate
	// ActionSleepBrief waits the short fixed interval used for transient
	// failures.
	ActionSleepBrief
	// ActionSleepReset waits for the rate-limit window, clamped between the
	// backoff floor and cap.
	ActionSleepReset
	// ActionFinish returns the extracted records.
	ActionFinish
	// ActionAbort returns the failure that ended the run.
	ActionAbort
)

func (a DispatchAction) String() string {
	switch a {
	case ActionQueryFresh:
		return "query_fresh"
	case ActionQuery:
		return "query"
	case ActionQueryFree:
		return "query_free"
	case ActionRotate:
		return "rotate"
	case ActionSleepBrief:
		return "sleep_brief"
	case ActionSleepReset:
		return "sleep_reset"
	case ActionFinish:
		return "finish"
	case ActionAbort:
		return "abort"
	default:
		return fmt.Sprintf("dispatch_action(%d)", int(a))
	}
}

type dispatchKey struct {
	state DispatchState
	event DispatchEvent
}

type dispatchEdge struct {
	next   DispatchState
	action DispatchAction
}

var dispatchTable = map[dispatchKey]dispatchEdge{
	{DispatchIdle, EventStart}:               {DispatchQuerying, ActionQueryFresh},
	{DispatchQuerying, EventHits}:            {DispatchDone, ActionFinish},
	{DispatchQuerying, EventQuotaExhausted}:  {DispatchRateLimited, ActionRotate},
	{DispatchQuerying, EventForbidden}:       {DispatchFailed, ActionAbort},
	{DispatchQuerying, EventTransient}:       {DispatchBackoff, ActionSleepBrief},
	{DispatchQuerying, EventInterrupted}:     {DispatchFailed, ActionAbort},
	{DispatchRateLimited, EventRotated}:      {DispatchQuerying, ActionQueryFree},
	{DispatchRateLimited, EventRotationNoop}: {DispatchBackoff, ActionSleepReset},
	{DispatchBackoff, EventSlept}:            {DispatchQuerying, ActionQuery},
	{DispatchBackoff, EventBudgetExhausted}:  {DispatchFailed, ActionAbort},
	{DispatchBackoff, EventInterrupted}:      {DispatchFailed, ActionAbort},
}

// NextState is the pure transition function of the dispatch state machine.
// It rejects pairs the machine cannot produce, which would indicate a bug
// in the dispatcher loop rather than a runtime condition.
func NextState(state DispatchState, event DispatchEvent) (DispatchState, DispatchAction, error) {
	edge, ok := dispatchTable[dispatchKey{state, event}]
	if !ok {
		return state, 0, fmt.Errorf("invalid dispatch transition: state=%s event=%s", state, event)
	}
	return edge.next, edge.action, nil
}
