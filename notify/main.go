package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const multiplexerTimeout = 200 * time.Millisecond

type subscriber[E any] struct {
	ch      chan E
	comment string
}

// MultiplexerSender is the sending half of a Multiplexer.
type MultiplexerSender[E any] struct {
	m *Multiplexer[E]
}

// Send delivers e to every subscriber in subscription order, skipping subscribers which don't receive within a timeout.
func (ms *MultiplexerSender[E]) Send(e E) {
	ms.m.send(e)
}

func NewMultiplexerSender[E any](comment string) (*MultiplexerSender[E], *Multiplexer[E]) {
	m := &Multiplexer[E]{
		comment: comment,
		timeout: multiplexerTimeout,
	}
	return &MultiplexerSender[E]{m: m}, m
}

type Multiplexer[E any] struct {
	comment         string
	timeout         time.Duration
	subscribersLock sync.Mutex
	subscribers     []subscriber[E]
}

func (m *Multiplexer[E]) Subscribe(comment string, c chan E) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	m.subscribers = append(m.subscribers, subscriber[E]{
		ch:      c,
		comment: comment,
	})
}

func (m *Multiplexer[E]) Unsubscribe(c chan E) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	i := slices.IndexFunc(m.subscribers, func(sub subscriber[E]) bool { return sub.ch == c })
	if i == -1 {
		panic("already unsubscribed")
	}
	m.subscribers = slices.Delete(m.subscribers, i, i+1)
}

func (m *Multiplexer[E]) Len() int {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	return len(m.subscribers)
}

func (m *Multiplexer[E]) send(e E) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	for _, sub := range m.subscribers {
		select {
		case sub.ch <- e:
		case <-time.After(m.timeout):
			zap.S().Warnw("subscriber timed out",
				"multiplexer", m.comment,
				"subscriber", sub.comment)
		}
	}
}
