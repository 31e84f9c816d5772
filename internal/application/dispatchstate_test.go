package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/leakwatch/internal/application"
)

func TestNextState_ValidTransitions(t *testing.T) {
	cases := []struct {
		name   string
		state  application.DispatchState
		event  application.DispatchEvent
		next   application.DispatchState
		action application.DispatchAction
	}{
		{"start begins querying", application.DispatchIdle, application.EventStart, application.DispatchQuerying, application.ActionQueryFresh},
		{"hits finish the run", application.DispatchQuerying, application.EventHits, application.DispatchDone, application.ActionFinish},
		{"quota exhaustion rotates", application.DispatchQuerying, application.EventQuotaExhausted, application.DispatchRateLimited, application.ActionRotate},
		{"forbidden aborts", application.DispatchQuerying, application.EventForbidden, application.DispatchFailed, application.ActionAbort},
		{"transient backs off briefly", application.DispatchQuerying, application.EventTransient, application.DispatchBackoff, application.ActionSleepBrief},
		{"interrupt during query aborts", application.DispatchQuerying, application.EventInterrupted, application.DispatchFailed, application.ActionAbort},
		{"rotation grants a free retry", application.DispatchRateLimited, application.EventRotated, application.DispatchQuerying, application.ActionQueryFree},
		{"noop rotation waits for reset", application.DispatchRateLimited, application.EventRotationNoop, application.DispatchBackoff, application.ActionSleepReset},
		{"completed wait requeries", application.DispatchBackoff, application.EventSlept, application.DispatchQuerying, application.ActionQuery},
		{"spent budget fails", application.DispatchBackoff, application.EventBudgetExhausted, application.DispatchFailed, application.ActionAbort},
		{"interrupt during wait aborts", application.DispatchBackoff, application.EventInterrupted, application.DispatchFailed, application.ActionAbort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, action, err := application.NextState(tc.state, tc.event)
			require.NoError(t, err)
			assert.Equal(t, tc.next, next)
			assert.Equal(t, tc.action, action)
		})
	}
}

func TestNextState_RejectsImpossiblePairs(t *testing.T) {
	cases := []struct {
		state application.DispatchState
		event application.DispatchEvent
	}{
		{application.DispatchIdle, application.EventHits},
		{application.DispatchQuerying, application.EventSlept},
		{application.DispatchRateLimited, application.EventHits},
		{application.DispatchBackoff, application.EventQuotaExhausted},
		{application.DispatchDone, application.EventStart},
		{application.DispatchFailed, application.EventStart},
	}

	for _, tc := range cases {
		_, _, err := application.NextState(tc.state, tc.event)
		assert.Error(t, err, "state=%s event=%s", tc.state, tc.event)
	}
}
