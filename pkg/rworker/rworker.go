// Package rworker runs jobs with a bound on how many run at once.
package rworker

import "sync"

// Job runs fn in a goroutine once a slot of rate is free. The first error is
// sent to errCh without blocking; later ones are dropped.
func Job(wg *sync.WaitGroup, fn func() error, rate chan struct{}, errCh chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		rate <- struct{}{}
		defer func() { <-rate }()
		if err := fn(); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
	}()
}

// Pool wraps Job with its own wait group, rate channel and error slot.
type Pool struct {
	wg    sync.WaitGroup
	rate  chan struct{}
	errCh chan error
}

// New returns a pool running at most limit jobs at once; limit below 1 is
// treated as 1.
func New(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{rate: make(chan struct{}, limit), errCh: make(chan error, 1)}
}

func (p *Pool) Go(fn func() error) {
	Job(&p.wg, fn, p.rate, p.errCh)
}

// Wait blocks until every job is done and returns the first error.
func (p *Pool) Wait() error {
	p.wg.Wait()
	select {
	case err := <-p.errCh:
		return err
	default:
		return nil
	}
}
