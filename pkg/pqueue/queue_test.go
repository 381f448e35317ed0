package pqueue

import (
	"reflect"
	"testing"
)

func TestQueue_Push(t *testing.T) {
	type push struct {
		value string
		prior float64
	}
	tests := []struct {
		name     string
		opts     []Option[string]
		pushes   []push
		expected []string
	}{
		{
			name:     "asc",
			pushes:   []push{{"c", 3}, {"a", 1}, {"b", 2}},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "equal_priorities_keep_push_order",
			pushes:   []push{{"x", 1}, {"y", 1}, {"w", 0}, {"z", 1}},
			expected: []string{"w", "x", "y", "z"},
		},
		{
			name:     "cap",
			opts:     []Option[string]{WithCap[string](2)},
			pushes:   []push{{"c", 3}, {"a", 1}, {"d", 4}, {"b", 2}},
			expected: []string{"a", "b"},
		},
		{
			name:     "cap_keeps_first_of_equal",
			opts:     []Option[string]{WithCap[string](1)},
			pushes:   []push{{"x", 1}, {"y", 1}},
			expected: []string{"x"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			q := New(test.opts...)
			for _, p := range test.pushes {
				q.Push(p.value, p.prior)
			}
			if got := q.PopAll(); !reflect.DeepEqual(got, test.expected) {
				t.Errorf("queue order got: %v, expected: %v", got, test.expected)
			}
			if q.Len() != 0 {
				t.Errorf("queue must be empty after PopAll, got len %d", q.Len())
			}
		})
	}
}
