package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{ScheduleStatusPending, ScheduleStatusQueued, true},
		{ScheduleStatusPending, ScheduleStatusCanceled, true},
		{ScheduleStatusQueued, ScheduleStatusPublishing, true},
		{ScheduleStatusQueued, ScheduleStatusCanceled, true},
		{ScheduleStatusPublishing, ScheduleStatusPublished, true},
		{ScheduleStatusPublishing, ScheduleStatusError, true},
		{ScheduleStatusError, ScheduleStatusPending, true},

		// no skipping publishing
		{ScheduleStatusQueued, ScheduleStatusPublished, false},
		// no cancel once publishing
		{ScheduleStatusPublishing, ScheduleStatusCanceled, false},
		// terminal states stay terminal
		{ScheduleStatusPublished, ScheduleStatusPending, false},
		{ScheduleStatusCanceled, ScheduleStatusPending, false},
		// pending never jumps straight to publishing
		{ScheduleStatusPending, ScheduleStatusPublishing, false},
		// only error resets to pending
		{ScheduleStatusQueued, ScheduleStatusPending, false},
	}

	for _, c := range cases {
		assert.Equalf(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTransitionSources(t *testing.T) {
	require.ElementsMatch(t, []string{ScheduleStatusPending}, TransitionSources(ScheduleStatusQueued))
	require.ElementsMatch(t,
		[]string{ScheduleStatusPending, ScheduleStatusQueued},
		TransitionSources(ScheduleStatusCanceled))
	require.ElementsMatch(t, []string{ScheduleStatusPublishing}, TransitionSources(ScheduleStatusPublished))
	require.ElementsMatch(t, []string{ScheduleStatusError}, TransitionSources(ScheduleStatusPending))
}

func TestIsScheduleStatus(t *testing.T) {
	for _, s := range []string{
		ScheduleStatusPending, ScheduleStatusQueued, ScheduleStatusPublishing,
		ScheduleStatusPublished, ScheduleStatusError, ScheduleStatusCanceled,
	} {
		assert.True(t, IsScheduleStatus(s), s)
	}
	assert.False(t, IsScheduleStatus("scheduled"))
	assert.False(t, IsScheduleStatus(""))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(ScheduleStatusPublished))
	assert.True(t, IsTerminal(ScheduleStatusCanceled))
	assert.True(t, IsTerminal(ScheduleStatusError))

	assert.False(t, IsTerminal(ScheduleStatusPending))
	assert.False(t, IsTerminal(ScheduleStatusQueued))
	assert.False(t, IsTerminal(ScheduleStatusPublishing))
}
