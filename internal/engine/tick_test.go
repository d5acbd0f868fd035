package engine

import (
	"errors"
	"testing"
	"time"
)

func TestRunTicksReports(t *testing.T) {
	e := NewEngine()
	e.ReportEvery = 4
	var ticks, reports []uint64
	e.OnTick = func(tick uint64) error {
		ticks = append(ticks, tick)
		return nil
	}
	e.OnReport = func(tick uint64) { reports = append(reports, tick) }

	if err := e.RunTicks(10); err != nil {
		t.Fatal(err)
	}
	if len(ticks) != 10 || ticks[9] != 10 {
		t.Errorf("ticks = %v", ticks)
	}
	if len(reports) != 2 || reports[0] != 4 || reports[1] != 8 {
		t.Errorf("reports = %v", reports)
	}
	if e.Running() {
		t.Error("still running after RunTicks")
	}
}

func TestTickErrorStops(t *testing.T) {
	e := NewEngine()
	boom := errors.New("boom")
	e.OnTick = func(tick uint64) error {
		if tick == 3 {
			return boom
		}
		return nil
	}
	err := e.RunTicks(100)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if e.Tick != 3 {
		t.Errorf("tick = %d", e.Tick)
	}
}

func TestStopFromTick(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	e.OnTick = func(tick uint64) error {
		if tick == 5 {
			e.Stop()
		}
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		e.Stop()
		t.Fatal("engine did not stop")
	}
	if e.Tick != 5 {
		t.Errorf("tick = %d", e.Tick)
	}
}

func TestStopBeforeRun(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	e.OnTick = func(uint64) error { return nil }
	e.Stop()
	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("early stop was lost")
	}
	if e.Tick != 0 || e.Running() {
		t.Errorf("tick = %d, running = %v", e.Tick, e.Running())
	}
	if err := e.RunTicks(3); err != nil || e.Tick != 0 {
		t.Errorf("stopped engine stepped to %d: %v", e.Tick, err)
	}
}
