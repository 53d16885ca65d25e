package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// TestMarkSeen_FirstTimeReturnsTrue は初回登録のみtrueを返すことを検証する。
func TestMarkSeen_FirstTimeReturnsTrue(t *testing.T) {
	s := NewStore()

	if !s.MarkSeen("a@x.com|100|2024-01-01 10:00:00") {
		t.Error("first MarkSeen = false, want true")
	}
	if s.MarkSeen("a@x.com|100|2024-01-01 10:00:00") {
		t.Error("second MarkSeen = true, want false")
	}
}

// TestContains はContainsが登録状態を正しく返すことを検証する。
func TestContains(t *testing.T) {
	s := NewStore()

	if s.Contains("id-1") {
		t.Error("Contains before MarkSeen = true, want false")
	}

	s.MarkSeen("id-1")

	if !s.Contains("id-1") {
		t.Error("Contains after MarkSeen = false, want true")
	}
	if s.Contains("id-2") {
		t.Error("Contains for unseen identity = true, want false")
	}
}

// TestLen は登録件数が単調に増加することを検証する。
func TestLen(t *testing.T) {
	s := NewStore()

	for i := 0; i < 10; i++ {
		s.MarkSeen(fmt.Sprintf("id-%d", i))
	}
	// 重複登録は件数を増やさない
	s.MarkSeen("id-0")

	if got := s.Len(); got != 10 {
		t.Errorf("Len = %d, want 10", got)
	}
}

// TestMarkSeen_ConcurrentSameIdentity は同一Identityへの並行登録で
// trueを観測するのが厳密に1回だけであることを検証する。
func TestMarkSeen_ConcurrentSameIdentity(t *testing.T) {
	s := NewStore()

	const goroutines = 100
	var newCount atomic.Int32
	var wg sync.WaitGroup

	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.MarkSeen("contested-identity") {
				newCount.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := newCount.Load(); got != 1 {
		t.Errorf("observed %d first-insertions, want exactly 1", got)
	}
}

// TestMarkSeen_ConcurrentDistinctIdentities は並行登録で挿入が
// 失われないことを検証する。
func TestMarkSeen_ConcurrentDistinctIdentities(t *testing.T) {
	s := NewStore()

	const goroutines = 50
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.MarkSeen(fmt.Sprintf("id-%d", n))
		}(i)
	}
	wg.Wait()

	if got := s.Len(); got != goroutines {
		t.Errorf("Len = %d, want %d", got, goroutines)
	}
}
