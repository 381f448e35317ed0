package rworker

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestPool(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		jobs     int
		failAt   int
		expected error
	}{
		{name: "all_ok", limit: 3, jobs: 20, failAt: -1},
		{name: "one_fails", limit: 2, jobs: 10, failAt: 4, expected: errors.New("job 4")},
		{name: "zero_limit", limit: 0, jobs: 5, failAt: -1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var (
				running, peak, done int32
				p                   = New(test.limit)
			)
			for i := 0; i < test.jobs; i++ {
				i := i
				p.Go(func() error {
					cur := atomic.AddInt32(&running, 1)
					for {
						old := atomic.LoadInt32(&peak)
						if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
							break
						}
					}
					defer atomic.AddInt32(&running, -1)
					atomic.AddInt32(&done, 1)
					if i == test.failAt {
						return test.expected
					}
					return nil
				})
			}
			err := p.Wait()
			if (err == nil) != (test.expected == nil) || (err != nil && err.Error() != test.expected.Error()) {
				t.Errorf("wait got: %v, expected: %v", err, test.expected)
			}
			if int(done) != test.jobs {
				t.Errorf("jobs done got: %d, expected: %d", done, test.jobs)
			}
			limit := int32(test.limit)
			if limit < 1 {
				limit = 1
			}
			if peak > limit {
				t.Errorf("peak concurrency got: %d, limit: %d", peak, limit)
			}
		})
	}
}
