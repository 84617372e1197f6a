package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kamilpajak/leafguard/internal/workflow"
	"github.com/samber/lo"
)

const subscriberBuffer = 8

// session pairs a workflow with the SSE streams watching it.
type session struct {
	id   uuid.UUID
	wf   *workflow.Workflow
	done chan struct{}

	mu   sync.Mutex
	subs map[chan workflow.State]struct{}
}

func newSession(wf *workflow.Workflow) *session {
	s := &session{
		id:   uuid.New(),
		wf:   wf,
		done: make(chan struct{}),
		subs: make(map[chan workflow.State]struct{}),
	}
	wf.Subscribe(s.broadcast)
	return s
}

// broadcast runs under the workflow lock, so it must not block. Slow
// subscribers miss intermediate states.
func (s *session) broadcast(st workflow.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

func (s *session) subscribe() chan workflow.State {
	ch := make(chan workflow.State, subscriberBuffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *session) unsubscribe(ch chan workflow.State) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

// close abandons any in-flight submission and ends open streams.
func (s *session) close() {
	s.wf.Reset()
	close(s.done)
}

type entry struct {
	sess     *session
	lastSeen time.Time
}

// store keeps sessions in memory and evicts those idle longer than ttl.
type store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
	ttl      time.Duration
	now      func() time.Time
}

func newStore(ttl time.Duration, now func() time.Time) *store {
	return &store{
		sessions: make(map[uuid.UUID]*entry),
		ttl:      ttl,
		now:      now,
	}
}

func (st *store) add(s *session) {
	expired := st.prune()

	st.mu.Lock()
	st.sessions[s.id] = &entry{sess: s, lastSeen: st.now()}
	st.mu.Unlock()

	for _, e := range expired {
		e.close()
	}
}

func (st *store) get(id uuid.UUID) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = st.now()
	return e.sess, true
}

func (st *store) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// prune removes expired sessions and returns them for closing outside the lock.
func (st *store) prune() []*session {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-st.ttl)
	var expired []*session
	for id, e := range st.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.sess)
			delete(st.sessions, id)
		}
	}
	return expired
}

func (st *store) closeAll() {
	st.mu.Lock()
	all := lo.MapToSlice(st.sessions, func(_ uuid.UUID, e *entry) *session { return e.sess })
	clear(st.sessions)
	st.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
