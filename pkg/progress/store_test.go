package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_MissingTaskReturnsFalse(t *testing.T) {
	s := NewStore()
	_, ok := s.Get("missing")
	assert.False(t, ok)
}

func TestSetThenGet_ReturnsLatestState(t *testing.T) {
	s := NewStore()
	s.Set("t1", StageStarted, 5, "starting up", nil)

	u, ok := s.Get("t1")
	require.True(t, ok)
	assert.Equal(t, StageStarted, u.Stage)
	assert.Equal(t, 5, u.Progress)
}

func TestSubscribe_DeliversCurrentLatestFirst(t *testing.T) {
	s := NewStore()
	s.Set("t1", StageStarted, 5, "starting", nil)

	ch := s.Subscribe("t1")
	select {
	case u := <-ch:
		assert.Equal(t, StageStarted, u.Stage)
	case <-time.After(time.Second):
		t.Fatal("expected immediate delivery of latest state")
	}
}

func TestSubscribe_ReceivesSubsequentUpdatesInOrder(t *testing.T) {
	s := NewStore()
	ch := s.Subscribe("t1")

	s.Set("t1", StageStarted, 5, "starting", nil)
	s.Set("t1", StageFetchingInfo, 10, "fetching", nil)
	s.Set("t1", StageComplete, 100, "done", nil)

	var stages []Stage
	for u := range ch {
		stages = append(stages, u.Stage)
	}

	assert.Equal(t, []Stage{StageStarted, StageFetchingInfo, StageComplete}, stages)
}

func TestSubscribe_ChannelClosesOnTerminalStage(t *testing.T) {
	s := NewStore()
	ch := s.Subscribe("t1")
	s.Set("t1", StageComplete, 100, "done", nil)

	_, stillOpen := <-ch
	require.True(t, stillOpen, "the terminal update itself must be delivered")

	_, stillOpen = <-ch
	assert.False(t, stillOpen, "channel must close after a terminal update")
}

func TestSubscribe_LateSubscriberToTerminalTaskGetsOnlyTerminalState(t *testing.T) {
	s := NewStore()
	s.Set("t1", StageStarted, 5, "starting", nil)
	s.Set("t1", StageComplete, 100, "done", nil)

	ch := s.Subscribe("t1")

	u, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, StageComplete, u.Stage, "late subscriber must not see history, only the final state")

	_, ok = <-ch
	assert.False(t, ok)
}

func TestCleanup_RemovesLatestStateAndClosesSubscribers(t *testing.T) {
	s := NewStore()
	s.Set("t1", StageStarted, 5, "starting", nil)
	ch := s.Subscribe("t1")

	s.Cleanup("t1")

	_, ok := s.Get("t1")
	assert.False(t, ok)

	_, stillOpen := <-ch
	assert.False(t, stillOpen)
}

func TestSetError_ProducesTerminalErrorStageWithKind(t *testing.T) {
	s := NewStore()
	s.SetError("t1", "IDEATION-FAILED", "no ideas survived")

	u, ok := s.Get("t1")
	require.True(t, ok)
	assert.Equal(t, StageError, u.Stage)
	assert.Equal(t, "IDEATION-FAILED", u.ErrorKind)
	assert.True(t, IsTerminal(u.Stage))
}

func TestMultipleSubscribersEachReceiveAllUpdates(t *testing.T) {
	s := NewStore()
	ch1 := s.Subscribe("t1")
	ch2 := s.Subscribe("t1")

	s.Set("t1", StageComplete, 100, "done", nil)

	u1 := <-ch1
	u2 := <-ch2
	assert.Equal(t, StageComplete, u1.Stage)
	assert.Equal(t, StageComplete, u2.Stage)
}
