package events

import (
	"context"
	"testing"
	"time"
)

func TestDispatcher_EnqueueTimesOutWhenQueueFull(t *testing.T) {
	// 不起 worker，队列容量 1：第二次入队必须按 ctx 超时返回
	d := &Dispatcher{queue: make(chan DocConvertedEvent, 1)}

	if err := d.Enqueue(context.Background(), DocConvertedEvent{DocID: 1}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := d.Enqueue(ctx, DocConvertedEvent{DocID: 2}); err != context.DeadlineExceeded {
		t.Fatalf("Enqueue() error = %v, want deadline exceeded", err)
	}
}

func TestDispatcher_NilProducerDrainsQueue(t *testing.T) {
	// producer 为 nil 时发送是空操作，worker 照常消费队列
	d := NewDispatcher(nil, "", nil, DispatcherOptions{
		QueueSize: 4,
		Workers:   1,
		MaxRetry:  1,
	})
	for i := 0; i < 4; i++ {
		if err := d.Enqueue(context.Background(), DocConvertedEvent{DocID: uint64(i)}); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	deadline := time.Now().Add(time.Second)
	for len(d.queue) > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("queue not drained, %d left", len(d.queue))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSemaphoreControl_AcquireRelease(t *testing.T) {
	sem := NewSemaphoreControl()
	for i := 0; i < MaxSemaphore; i++ {
		if err := sem.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
	}
	// 占满后再获取要等到超时
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := sem.Acquire(ctx); err == nil {
		t.Fatalf("Acquire() = nil, want timeout")
	}
	if err := sem.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := sem.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
}
