package conversation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/goodlifebot/internal/conversation"
)

func TestStateHelpers(t *testing.T) {
	t.Parallel()

	n, ok := conversation.Step(3).StepIndex()
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = conversation.Idle.StepIndex()
	assert.False(t, ok)
	_, ok = conversation.State("step_5").StepIndex()
	assert.False(t, ok)

	assert.True(t, conversation.Step(4).InSession())
	assert.False(t, conversation.AwaitingTime.InSession())

	_, err := conversation.ParseState("step_0")
	require.Error(t, err)
	s, err := conversation.ParseState("awaiting_region")
	require.NoError(t, err)
	assert.Equal(t, conversation.AwaitingRegion, s)
}

func TestNext(t *testing.T) {
	t.Parallel()

	type transitionTestCase struct {
		name    string
		from    conversation.State
		event   conversation.Event
		want    conversation.State
		wantErr bool
	}

	testGroups := map[string][]transitionTestCase{
		"Onboarding": {
			{name: "register from idle", from: conversation.Idle, event: conversation.EventRegister, want: conversation.AwaitingRegion},
			{name: "register mid session", from: conversation.Step(2), event: conversation.EventRegister, want: conversation.AwaitingRegion},
			{name: "region chosen", from: conversation.AwaitingRegion, event: conversation.EventChooseRegion, want: conversation.AwaitingTime},
			{name: "time chosen", from: conversation.AwaitingTime, event: conversation.EventChooseTime, want: conversation.Idle},
			{name: "back from time", from: conversation.AwaitingTime, event: conversation.EventBack, want: conversation.Idle},
			{name: "change time from idle", from: conversation.Idle, event: conversation.EventChangeTime, want: conversation.AwaitingTime},
			{name: "change time mid session", from: conversation.Step(1), event: conversation.EventChangeTime, wantErr: true},
			{name: "time before region", from: conversation.AwaitingRegion, event: conversation.EventChooseTime, wantErr: true},
		},
		"Session": {
			{name: "start from idle", from: conversation.Idle, event: conversation.EventStartSession, want: conversation.Step(1)},
			{name: "start while answering", from: conversation.Step(2), event: conversation.EventStartSession, wantErr: true},
			{name: "answer 1", from: conversation.Step(1), event: conversation.EventAnswer, want: conversation.Step(2)},
			{name: "answer 3", from: conversation.Step(3), event: conversation.EventAnswer, want: conversation.Step(4)},
			{name: "answer past last", from: conversation.Step(4), event: conversation.EventAnswer, wantErr: true},
			{name: "finish", from: conversation.Step(4), event: conversation.EventFinish, want: conversation.Idle},
			{name: "finish early", from: conversation.Step(3), event: conversation.EventFinish, wantErr: true},
			{name: "chain", from: conversation.Step(4), event: conversation.EventChain, want: conversation.Step(1)},
		},
		"Stop": {
			{name: "stop mid session", from: conversation.Step(3), event: conversation.EventStop, want: conversation.Idle},
			{name: "stop while idle is a no-op", from: conversation.Idle, event: conversation.EventStop, want: conversation.Idle},
		},
	}

	for groupName, testCases := range testGroups {
		t.Run(groupName, func(t *testing.T) {
			t.Parallel()

			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					t.Parallel()

					got, err := conversation.Next(context.Background(), tc.from, tc.event)
					if tc.wantErr {
						require.ErrorIs(t, err, conversation.ErrInvalidTransition)
						assert.Equal(t, tc.from, got)
						assert.False(t, conversation.Can(tc.from, tc.event))
						return
					}
					require.NoError(t, err)
					assert.Equal(t, tc.want, got)
				})
			}
		})
	}
}
