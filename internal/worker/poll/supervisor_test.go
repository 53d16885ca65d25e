package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// blockingJob はコンテキストのキャンセルまでブロックするJobのモック。
type blockingJob struct {
	started atomic.Bool
}

func (j *blockingJob) Run(ctx context.Context) {
	j.started.Store(true)
	<-ctx.Done()
}

// TestSupervisor_StartsAllJobs は追加した全ジョブが並行に起動することを検証する。
func TestSupervisor_StartsAllJobs(t *testing.T) {
	s := NewSupervisor(newTestLogger())

	jobs := []*blockingJob{{}, {}, {}}
	for _, j := range jobs {
		s.Add(j)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	// 全ジョブの起動を待つ（1ジョブのブロックが他を妨げないこと）
	deadline := time.After(time.Second)
	for _, j := range jobs {
		for !j.started.Load() {
			select {
			case <-deadline:
				t.Fatal("not all jobs started within deadline")
			case <-time.After(5 * time.Millisecond):
			}
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}

// TestSupervisor_StartWithNoJobs はジョブなしでもStartが即座に返ることを検証する。
func TestSupervisor_StartWithNoJobs(t *testing.T) {
	s := NewSupervisor(newTestLogger())

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start with no jobs did not return")
	}
}
