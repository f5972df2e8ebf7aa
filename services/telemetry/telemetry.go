// Package telemetry carries core events from interrupt and main-loop context
// to the bus. Emit never blocks; a single goroutine does all publishing.
package telemetry

import (
	"context"
	"strconv"
	"sync/atomic"

	"emcore-go/bus"
)

const defaultQueueLen = 32

var (
	TopicState  = bus.T("core", "state")
	TopicDuty   = bus.T("core", "duty")
	TopicInput  = bus.T("core", "input")
	TopicTap    = bus.T("core", "tap")
	TopicSensor = bus.T("core", "sensor")
	TopicSleep  = bus.T("core", "sleep")
)

// TopicLED returns the retained topic of indicator n.
func TopicLED(n int) bus.Topic { return bus.T("core", "led", strconv.Itoa(n)) }

type Event struct {
	Topic    bus.Topic
	Payload  any
	Retained bool
}

// Emitter accepts events without blocking. It returns false when the event
// was dropped.
type Emitter interface {
	Emit(ev Event) bool
}

type discard struct{}

func (discard) Emit(Event) bool { return true }

// Discard swallows every event.
var Discard Emitter = discard{}

// Publisher queues events and publishes them from Run.
type Publisher struct {
	conn  *bus.Connection
	evCh  chan Event
	drops atomic.Uint32
}

func NewPublisher(conn *bus.Connection, queueLen int) *Publisher {
	if queueLen <= 0 {
		queueLen = defaultQueueLen
	}
	return &Publisher{conn: conn, evCh: make(chan Event, queueLen)}
}

// Emit enqueues ev; it is safe from interrupt context.
func (p *Publisher) Emit(ev Event) bool {
	select {
	case p.evCh <- ev:
		return true
	default:
		p.drops.Add(1)
		return false
	}
}

// Run publishes queued events until ctx is cancelled, then flushes what is
// already queued.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev := <-p.evCh:
					p.publish(ev)
				default:
					return
				}
			}
		case ev := <-p.evCh:
			p.publish(ev)
		}
	}
}

func (p *Publisher) publish(ev Event) {
	p.conn.Publish(p.conn.NewMessage(ev.Topic, ev.Payload, ev.Retained))
}

// Drops returns how many events were lost to a full queue.
func (p *Publisher) Drops() uint32 { return p.drops.Load() }
