package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/notifications"
)

// FakeGateway records messages and fails channels listed in Fail.
type FakeGateway struct {
	mu   sync.Mutex
	Fail map[models.Channel]error
	Sent []notifications.Message
	n    int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{Fail: make(map[models.Channel]error)}
}

func (g *FakeGateway) Send(_ context.Context, msg notifications.Message) (notifications.Delivery, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.Fail[msg.Channel]; err != nil {
		return notifications.Delivery{}, err
	}
	g.n++
	g.Sent = append(g.Sent, msg)
	return notifications.Delivery{
		Status:     models.DeliverySent,
		ExternalID: fmt.Sprintf("fake-%d", g.n),
	}, nil
}

// SetFailure makes ch fail with err, or succeed again when err is nil.
func (g *FakeGateway) SetFailure(ch models.Channel, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.Fail, ch)
		return
	}
	g.Fail[ch] = err
}

// Messages returns a copy of the accepted messages.
func (g *FakeGateway) Messages() []notifications.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]notifications.Message(nil), g.Sent...)
}

// Clock is a settable services.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
