package frame

import "testing"

func TestNewClampsSkipAndQueueDepth(t *testing.T) {
	s := New(Config{Input: "x.mp4", Skip: 0, QueueDepth: 0})
	if s.cfg.Skip != 1 {
		t.Errorf("Skip = %d, want 1", s.cfg.Skip)
	}
	if s.cfg.QueueDepth != 1 {
		t.Errorf("QueueDepth = %d, want 1", s.cfg.QueueDepth)
	}
}

func TestNewPreservesExplicitValues(t *testing.T) {
	s := New(Config{Input: "x.mp4", Skip: 3, QueueDepth: 8})
	if s.cfg.Skip != 3 {
		t.Errorf("Skip = %d, want 3", s.cfg.Skip)
	}
	if s.cfg.QueueDepth != 8 {
		t.Errorf("QueueDepth = %d, want 8", s.cfg.QueueDepth)
	}
}
