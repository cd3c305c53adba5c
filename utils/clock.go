package utils

import (
	"sync"
	"time"
)

// Clock is an interface for mocking time.Now() in the engine and its tests
type Clock interface {
	Now() time.Time
}

// RealTime implements Clock using time.Now()
type RealTime struct{}

func (RealTime) Now() time.Time {
	return time.Now()
}

// FixedTime implements Clock using a settable time
type FixedTime struct {
	mu    sync.Mutex
	fixed time.Time
}

func NewFixedTime(t time.Time) *FixedTime {
	return &FixedTime{fixed: t}
}

func (ft *FixedTime) Now() time.Time {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.fixed
}

func (ft *FixedTime) Set(t time.Time) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.fixed = t
}

func (ft *FixedTime) Advance(d time.Duration) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.fixed = ft.fixed.Add(d)
}
