package simulate

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestThunkAtMostOnce exercises spec §8 item 2: however many goroutines race to Force the same
// Thunk, its body runs exactly once and every goroutine observes the same published result.
func TestThunkAtMostOnce(t *testing.T) {
	const n = 1000
	th := NewThunk(func() interface{} {
		return 42
	})

	results := make([]interface{}, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = th.Force()
		}(i)
	}
	wg.Wait()

	if got := th.EvalCount(); got != 1 {
		t.Fatalf("EvalCount() = %d, want 1", got)
	}
	for i, r := range results {
		if !cmp.Equal(r, results[0]) {
			t.Fatalf("results[%d] = %v, want %v", i, r, results[0])
		}
	}
}

// TestThunkForceIsIdempotent checks repeated sequential Force calls on an already-published
// thunk keep returning the cached result without re-running Body.
func TestThunkForceIsIdempotent(t *testing.T) {
	th := NewThunk(func() interface{} { return "computed" })
	first := th.Force()
	second := th.Force()
	if !cmp.Equal(first, second) {
		t.Fatalf("Force() = %v, then %v; want equal", first, second)
	}
	if got := th.EvalCount(); got != 1 {
		t.Fatalf("EvalCount() = %d, want 1", got)
	}
}
