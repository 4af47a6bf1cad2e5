package interrupt

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_RequestAndClear(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	checker := r.Checker(context.Background(), "42")

	assert.False(t, checker.IsInterruptRequested())

	r.Request("7")
	assert.False(t, checker.IsInterruptRequested(), "다른 노드의 요청에는 반응하지 않아야 합니다")

	r.Request("42")
	assert.True(t, checker.IsInterruptRequested())
	assert.True(t, r.IsRequested("42"))

	r.Clear("42")
	assert.False(t, checker.IsInterruptRequested())
}

func TestRegistry_ContextCancellationCountsAsInterrupt(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	checker := r.Checker(ctx, "1")

	assert.False(t, checker.IsInterruptRequested())
	cancel()
	assert.True(t, checker.IsInterruptRequested())
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Request("n")
		}()
		go func() {
			defer wg.Done()
			_ = r.IsRequested("n")
		}()
	}
	wg.Wait()

	assert.True(t, r.IsRequested("n"))
}
