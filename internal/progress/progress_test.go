package progress

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu       sync.Mutex
	percents []int
	captions []string
	done     int
}

func (r *recorder) Update(percent int, caption string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.percents = append(r.percents, percent)
	r.captions = append(r.captions, caption)
}

func (r *recorder) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
}

func (r *recorder) snapshot() ([]int, []string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.percents...), append([]string(nil), r.captions...), r.done
}

func TestController_Run_CompletesAndSnapsTo100(t *testing.T) {
	rec := &recorder{}
	c := New(rec, Config{Tick: 5 * time.Millisecond, Rotate: 20 * time.Millisecond})

	ran := false
	c.Run("commit", 50*time.Millisecond, func() {
		time.Sleep(30 * time.Millisecond)
		ran = true
	})

	if !ran {
		t.Fatal("Expected work to run")
	}

	percents, _, done := rec.snapshot()
	if len(percents) == 0 {
		t.Fatal("Expected progress updates")
	}
	if percents[len(percents)-1] != 100 {
		t.Errorf("Expected final update of 100, got %d", percents[len(percents)-1])
	}
	for _, p := range percents[:len(percents)-1] {
		if p > 95 {
			t.Errorf("Expected in-flight percent capped at 95, got %d", p)
		}
	}
	if done != 1 {
		t.Errorf("Expected renderer Done once, got %d", done)
	}
}

func TestController_Run_SlowWorkStaysCapped(t *testing.T) {
	rec := &recorder{}
	c := New(rec, Config{Tick: 5 * time.Millisecond, Rotate: time.Second})

	// Work runs three times longer than the estimate; the bar must sit at
	// 95 instead of rolling over.
	c.Run("review", 20*time.Millisecond, func() {
		time.Sleep(60 * time.Millisecond)
	})

	percents, _, _ := rec.snapshot()
	saw95 := false
	for _, p := range percents[:len(percents)-1] {
		if p == 95 {
			saw95 = true
		}
		if p > 95 {
			t.Errorf("Expected cap at 95, got %d", p)
		}
	}
	if !saw95 {
		t.Error("Expected estimate to reach the 95 cap")
	}
}

func TestController_Run_RotatesCaptions(t *testing.T) {
	rec := &recorder{}
	c := New(rec, Config{Tick: 2 * time.Millisecond, Rotate: 10 * time.Millisecond})

	c.Run("docs", 500*time.Millisecond, func() {
		time.Sleep(40 * time.Millisecond)
	})

	_, captions, _ := rec.snapshot()
	unique := map[string]bool{}
	for _, caption := range captions {
		unique[caption] = true
	}
	if len(unique) < 2 {
		t.Errorf("Expected caption rotation, saw only %v", captions)
	}
}

func TestController_Run_InstantWork(t *testing.T) {
	rec := &recorder{}
	c := New(rec, Config{Tick: 5 * time.Millisecond, Rotate: time.Second})

	c.Run("unknown-label", 0, func() {})

	percents, _, done := rec.snapshot()
	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Errorf("Expected final snap to 100 even for instant work, got %v", percents)
	}
	if done != 1 {
		t.Errorf("Expected renderer Done once, got %d", done)
	}
}

func TestCaptionsFor_FallsBack(t *testing.T) {
	if got := captionsFor("commit"); got[0] == genericCaptions[0] {
		t.Error("Expected commit captions, got generic set")
	}
	got := captionsFor("nonsense")
	if got[0] != genericCaptions[0] {
		t.Errorf("Expected generic captions for unknown label, got %v", got)
	}
}
