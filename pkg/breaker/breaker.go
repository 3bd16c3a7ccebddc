package breaker

import (
	"errors"
	"sync"
	"time"
)

type state uint8

const (
	closed state = iota + 1
	open
	halfOpen
)

var ErrOpen = errors.New("circuit breaker is open")

// Breaker trips after the failure share over the last window of calls
// reaches the threshold, rejects calls for cooldown, then probes in
// half-open until recovery consecutive successes close it again.
type Breaker struct {
	mu sync.Mutex

	state    state
	openedAt time.Time

	window    []bool
	pos       int
	threshold float64
	cooldown  time.Duration

	recovery  int
	successes int
}

func New(window int, cooldown time.Duration, threshold float64, recovery int) *Breaker {
	return &Breaker{
		state:     closed,
		window:    make([]bool, window),
		threshold: threshold,
		cooldown:  cooldown,
		recovery:  recovery,
	}
}

func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()
	if b.state == open {
		if time.Since(b.openedAt) <= b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = halfOpen
		b.successes = 0
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.window[b.pos] = err != nil
	b.pos = (b.pos + 1) % len(b.window)

	if b.state == halfOpen {
		if err != nil {
			b.trip()
		} else if b.successes++; b.successes > b.recovery {
			b.reset()
		}
		return err
	}

	var fails int
	for _, failed := range b.window {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(len(b.window)) >= b.threshold {
		b.trip()
	}
	return err
}

func (b *Breaker) trip() {
	b.state = open
	b.successes = 0
	b.openedAt = time.Now()
}

func (b *Breaker) reset() {
	for i := range b.window {
		b.window[i] = false
	}
	b.pos = 0
	b.successes = 0
	b.state = closed
}
