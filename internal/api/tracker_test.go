package api

import (
	"sync"
	"testing"
)

func TestTrackerAccumulates(t *testing.T) {
	tr := NewTokenTracker()
	tr.Add(100, 50)
	tr.Add(200, 25)

	in, out := tr.Total()
	if in != 300 || out != 75 {
		t.Errorf("Total() = (%d, %d), want (300, 75)", in, out)
	}
	if tr.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", tr.Calls())
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTokenTracker()
	tr.Add(1000, 500)
	tr.Reset()

	in, out := tr.Total()
	if in != 0 || out != 0 || tr.Calls() != 0 {
		t.Errorf("after Reset: in=%d out=%d calls=%d", in, out, tr.Calls())
	}
}

func TestTrackerConcurrentAdd(t *testing.T) {
	tr := NewTokenTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Add(10, 5)
		}()
	}
	wg.Wait()

	in, out := tr.Total()
	if in != 500 || out != 250 {
		t.Errorf("Total() = (%d, %d), want (500, 250)", in, out)
	}
}

func TestCostEstimate(t *testing.T) {
	tr := NewTokenTracker()
	tr.Add(1_000_000, 1_000_000)
	if got := tr.Cost(); got != 18.0 {
		t.Errorf("Cost() = %f, want 18.0", got)
	}
}
