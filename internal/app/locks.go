package app

import "sync"

// gameLocks hands out one mutex per game id so appends to a game are serialized
// while different games proceed independently.
type gameLocks struct {
	mu    sync.Mutex
	locks map[string]*gameLock
}

type gameLock struct {
	sync.Mutex
	refs int
}

func newGameLocks() *gameLocks {
	return &gameLocks{locks: make(map[string]*gameLock)}
}

// lock blocks until the game's mutex is held and returns its release func.
func (g *gameLocks) lock(gameID string) func() {
	g.mu.Lock()
	l, ok := g.locks[gameID]
	if !ok {
		l = &gameLock{}
		g.locks[gameID] = l
	}
	l.refs++
	g.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, gameID)
		}
		g.mu.Unlock()
	}
}
