package mainloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunsInOrder(t *testing.T) {
	l := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var (
		mu  sync.Mutex
		got []int
	)
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		assert.True(t, l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		}))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not run")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestDropsWhenFull(t *testing.T) {
	l := New(1)
	assert.True(t, l.Post(func() {}))
	assert.False(t, l.Post(func() {}))
	assert.Equal(t, int64(1), l.Dropped())
}

func TestRecoversPanic(t *testing.T) {
	l := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	ran := make(chan struct{})
	l.Post(func() { panic("boom") })
	l.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("loop stopped after panic")
	}
}
