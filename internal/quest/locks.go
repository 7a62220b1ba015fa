package quest

import "sync"

// questLocks hands out one mutex per quest id. Different quests never
// contend; submissions for the same quest serialize the whole
// load-validate-append-score sequence.
type questLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newQuestLocks() *questLocks {
	return &questLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *questLocks) get(questID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[questID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[questID] = m
	}
	return m
}
