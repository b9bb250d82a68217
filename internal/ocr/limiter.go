package ocr

import (
	"context"
	"sync"
)

// LimitedEngine caps how many sessions of the wrapped engine are open at once.
// OCR workers are heavyweight, so concurrent requests queue for a slot.
type LimitedEngine struct {
	Engine
	slots chan struct{}
}

// NewLimitedEngine wraps engine with a session cap. maxSessions <= 0 means 1.
func NewLimitedEngine(engine Engine, maxSessions int) *LimitedEngine {
	if maxSessions <= 0 {
		maxSessions = 1
	}
	return &LimitedEngine{Engine: engine, slots: make(chan struct{}, maxSessions)}
}

// Open waits for a free slot or for ctx to end
func (e *LimitedEngine) Open(ctx context.Context) (Session, error) {
	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	session, err := e.Engine.Open(ctx)
	if err != nil {
		<-e.slots
		return nil, err
	}
	return &limitedSession{Session: session, release: func() { <-e.slots }}, nil
}

// InUse returns the number of open sessions
func (e *LimitedEngine) InUse() int {
	return len(e.slots)
}

// Capacity returns the session cap
func (e *LimitedEngine) Capacity() int {
	return cap(e.slots)
}

type limitedSession struct {
	Session
	once    sync.Once
	release func()
}

func (s *limitedSession) Close() error {
	err := s.Session.Close()
	s.once.Do(s.release)
	return err
}
