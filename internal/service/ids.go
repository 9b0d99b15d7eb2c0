package service

import (
	"strconv"
	"sync"
	"time"
)

const bookingIDPrefix = "bk_"

// IDGenerator issues bk_<unix-millis> ids. Within one process the numeric part
// strictly increases even when the clock has not moved.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return bookingIDPrefix + strconv.FormatInt(ms, 10)
}
