package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkapradana/arenahub/reward"
)

func TestSessionRegistry_OnePerUser(t *testing.T) {
	reg := newSessionRegistry(time.Minute)

	first, ok := reg.create(7, func() {})
	require.True(t, ok)

	_, ok = reg.create(7, func() {})
	assert.False(t, ok, "second session for the same user must be refused")

	other, ok := reg.create(8, func() {})
	require.True(t, ok)
	assert.NotEqual(t, first.ID, other.ID)

	// Once the first session finished, the user may start another.
	first.finish(reward.Outcome{Success: true})
	again, ok := reg.create(7, func() {})
	require.True(t, ok)
	assert.NotEqual(t, first.ID, again.ID)
}

func TestSessionRegistry_GetChecksOwnership(t *testing.T) {
	reg := newSessionRegistry(time.Minute)

	sess, ok := reg.create(7, func() {})
	require.True(t, ok)

	_, found := reg.get(sess.ID, 8)
	assert.False(t, found, "sessions must not be visible to other users")

	got, found := reg.get(sess.ID, 7)
	require.True(t, found)
	assert.Equal(t, sess.ID, got.ID)

	_, found = reg.get("nope", 7)
	assert.False(t, found)
}

func TestSessionRegistry_SweepKeepsUnfinished(t *testing.T) {
	reg := newSessionRegistry(time.Minute)

	running, ok := reg.create(1, func() {})
	require.True(t, ok)
	finished, ok := reg.create(2, func() {})
	require.True(t, ok)
	finished.finish(reward.Outcome{Reason: reward.ReasonAbandoned})

	reg.sweep(time.Now().Add(2 * time.Minute))

	_, found := reg.get(running.ID, 1)
	assert.True(t, found, "running sessions survive the sweep")
	_, found = reg.get(finished.ID, 2)
	assert.False(t, found, "finished sessions past retention are dropped")
}

func TestWatchSession_FinishIsIdempotent(t *testing.T) {
	reg := newSessionRegistry(time.Minute)
	sess, ok := reg.create(1, func() {})
	require.True(t, ok)

	sess.finish(reward.Outcome{Success: true, ExpAwarded: 5})
	sess.finish(reward.Outcome{Reason: reward.ReasonSyncFailed})

	outcome, final := sess.result()
	require.True(t, final)
	assert.True(t, outcome.Success, "first outcome wins")
	assert.Equal(t, 5, outcome.ExpAwarded)

	select {
	case <-sess.done:
	default:
		t.Fatal("done channel should be closed after finish")
	}
}

func TestSessionSurface_BlockedYieldsNilHandle(t *testing.T) {
	reg := newSessionRegistry(time.Minute)
	sess, ok := reg.create(1, func() {})
	require.True(t, ok)

	blocked := &sessionSurface{opened: false}
	assert.Nil(t, blocked.Open("https://ads.example.com"))

	open := &sessionSurface{session: sess, opened: true}
	handle := open.Open("https://ads.example.com")
	require.NotNil(t, handle)
	assert.False(t, handle.IsClosed())

	sess.closed.Store(true)
	assert.True(t, handle.IsClosed())
}
