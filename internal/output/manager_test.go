package output

import (
	"errors"
	"testing"
)

type recordingSink struct {
	values   []any
	writeErr error
	closed   bool
}

func (s *recordingSink) Write(v any) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.values = append(s.values, v)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func TestManager_FansOutToAllSinks(t *testing.T) {
	m := NewManager()
	a := &recordingSink{}
	b := &recordingSink{}
	if err := m.AddSink(a); err != nil {
		t.Fatalf("AddSink: %v", err)
	}
	if err := m.AddSink(b); err != nil {
		t.Fatalf("AddSink: %v", err)
	}

	r := Result{Op: "combine", Item: "x", Status: StatusOK}
	if err := m.Write(r); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if len(a.values) != 1 || len(b.values) != 1 {
		t.Fatalf("fan-out miss: a=%d b=%d", len(a.values), len(b.values))
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatal("not all sinks closed")
	}
}

func TestManager_OneFailingSinkDoesNotStopOthers(t *testing.T) {
	m := NewManager()
	bad := &recordingSink{writeErr: errors.New("disk full")}
	good := &recordingSink{}
	if err := m.AddSink(bad); err != nil {
		t.Fatalf("AddSink: %v", err)
	}
	if err := m.AddSink(good); err != nil {
		t.Fatalf("AddSink: %v", err)
	}

	err := m.Write(Result{Op: "freeze", Item: "x", Status: StatusOK})
	if err == nil {
		t.Fatal("expected aggregated write error, got nil")
	}
	if len(good.values) != 1 {
		t.Fatal("healthy sink skipped after sibling error")
	}
}

func TestManager_RejectsNilSink(t *testing.T) {
	m := NewManager()
	if err := m.AddSink(nil); err == nil {
		t.Fatal("expected error adding nil sink, got nil")
	}
}
