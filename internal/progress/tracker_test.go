package progress

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	tr := NewTracker()

	if _, ok := tr.Get("missing"); ok {
		t.Error("unknown id should return ok=false")
	}

	tr.Set("a", Record{Status: StatusInitializing, Percentage: 1})
	rec, ok := tr.Get("a")
	if !ok {
		t.Fatal("expected record")
	}
	if rec.Status != StatusInitializing || rec.Percentage != 1 {
		t.Errorf("rec = %+v", rec)
	}

	// Updates replace the record wholesale.
	tr.Set("a", Record{Status: StatusDownloading, Percentage: 42, Downloaded: 100, Total: 240})
	rec, _ = tr.Get("a")
	if rec.Percentage != 42 || rec.Downloaded != 100 {
		t.Errorf("rec after update = %+v", rec)
	}
}

func TestExpireAfterRemovesRecord(t *testing.T) {
	tr := NewTracker()
	tr.Set("a", Record{Status: StatusComplete, Percentage: 100})
	tr.ExpireAfter("a", 10*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := tr.Get("a"); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("record never expired")
}

func TestExpireAfterNotCancelledByLaterWrite(t *testing.T) {
	tr := NewTracker()
	tr.Set("a", Record{Status: StatusComplete, Percentage: 100})
	tr.ExpireAfter("a", 20*time.Millisecond)

	// A write landing before the timer fires does not rescue the record.
	tr.Set("a", Record{Status: StatusDownloading, Percentage: 5})

	time.Sleep(100 * time.Millisecond)
	if _, ok := tr.Get("a"); ok {
		t.Error("pending expiry should still remove the record")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		id := fmt.Sprintf("dl-%d", i)
		go func() {
			defer wg.Done()
			for p := 0; p <= 100; p += 5 {
				tr.Set(id, Record{Status: StatusDownloading, Percentage: p})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tr.Get(id)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		rec, ok := tr.Get(fmt.Sprintf("dl-%d", i))
		if !ok || rec.Percentage != 100 {
			t.Errorf("dl-%d final record = %+v ok=%v", i, rec, ok)
		}
	}
}
