package dashboard

import (
	"testing"
	"time"

	"github.com/kamilpajak/leafguard/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestStore_EvictsIdleSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	st := newStore(time.Minute, clock.now)

	old := newSession(workflow.New(nil, nil))
	st.add(old)

	clock.t = clock.t.Add(2 * time.Minute)
	fresh := newSession(workflow.New(nil, nil))
	st.add(fresh)

	_, ok := st.get(old.id)
	assert.False(t, ok)
	_, ok = st.get(fresh.id)
	assert.True(t, ok)
	assert.Equal(t, 1, st.len())

	select {
	case <-old.done:
	default:
		t.Fatal("evicted session not closed")
	}
}

func TestStore_GetKeepsSessionAlive(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	st := newStore(time.Minute, clock.now)

	s := newSession(workflow.New(nil, nil))
	st.add(s)

	clock.t = clock.t.Add(45 * time.Second)
	_, ok := st.get(s.id)
	require.True(t, ok)

	clock.t = clock.t.Add(45 * time.Second)
	assert.Empty(t, st.prune())
	assert.Equal(t, 1, st.len())
}

func TestStore_CloseAll(t *testing.T) {
	st := newStore(time.Minute, time.Now)
	a := newSession(workflow.New(nil, nil))
	b := newSession(workflow.New(nil, nil))
	st.add(a)
	st.add(b)

	st.closeAll()

	assert.Equal(t, 0, st.len())
	for _, s := range []*session{a, b} {
		select {
		case <-s.done:
		default:
			t.Fatal("session not closed")
		}
	}
}

func TestSession_BroadcastDoesNotBlock(t *testing.T) {
	s := newSession(workflow.New(nil, nil))
	ch := s.subscribe()
	defer s.unsubscribe(ch)

	for range subscriberBuffer * 2 {
		s.wf.Reset()
	}

	assert.Len(t, ch, subscriberBuffer)
}
