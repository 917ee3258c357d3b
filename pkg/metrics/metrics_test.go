package metrics

import (
	"log/slog"
	"testing"
	"time"
)

func testRecorder() *Recorder {
	return NewRecorder(slog.Default())
}

func TestTTFALifecycle(t *testing.T) {
	r := testRecorder()
	sent := time.Now().Add(-2 * time.Second)

	r.StartTTFA("msg-1", "patient-1", "nurse-1", "es", "en", sent)

	t.Run("record exists after start", func(t *testing.T) {
		m, ok := r.Get("msg-1")
		if !ok {
			t.Fatal("expected record")
		}
		if m.ServerReceivedAt.IsZero() {
			t.Error("expected server_received_at to be set")
		}
		if m.RecipientID != "nurse-1" {
			t.Errorf("unexpected recipient: %s", m.RecipientID)
		}
	})

	t.Run("milestones fill in order", func(t *testing.T) {
		r.RecordTranslationCompleted("msg-1")
		r.RecordWSSent("msg-1")

		m, _ := r.Get("msg-1")
		if m.TranslationCompletedAt.IsZero() {
			t.Error("expected translation_completed_at")
		}
		if m.WSSentAt.IsZero() {
			t.Error("expected ws_sent_at")
		}
		if m.WSSentAt.Before(m.TranslationCompletedAt) {
			t.Error("ws_sent_at precedes translation_completed_at")
		}
	})

	t.Run("played computes ttfa from client timestamps", func(t *testing.T) {
		played := sent.Add(1500 * time.Millisecond)
		ms, ok := r.RecordClientPlayed("msg-1", played)
		if !ok {
			t.Fatal("expected first played to be recorded")
		}
		if ms != 1500 {
			t.Errorf("expected 1500ms, got %d", ms)
		}
	})

	t.Run("second played is ignored", func(t *testing.T) {
		_, ok := r.RecordClientPlayed("msg-1", time.Now())
		if ok {
			t.Error("expected first-write-wins for played")
		}
		m, _ := r.Get("msg-1")
		if m.TTFAMs != 1500 {
			t.Errorf("ttfa overwritten: %d", m.TTFAMs)
		}
	})
}

func TestTTFAUnknownMessage(t *testing.T) {
	r := testRecorder()

	// Milestones for untracked messages are dropped silently.
	r.RecordTranslationCompleted("ghost")
	r.RecordWSSent("ghost")
	if _, ok := r.RecordClientPlayed("ghost", time.Now()); ok {
		t.Error("expected played for unknown message to be rejected")
	}
	if _, ok := r.Get("ghost"); ok {
		t.Error("expected no record for unknown message")
	}
}

func TestStartTTFAIsIdempotent(t *testing.T) {
	r := testRecorder()
	first := time.Now().Add(-time.Minute)

	r.StartTTFA("msg-1", "a", "b", "en", "es", first)
	r.StartTTFA("msg-1", "x", "y", "fr", "de", time.Now())

	m, _ := r.Get("msg-1")
	if m.SenderID != "a" {
		t.Errorf("second start overwrote record: %s", m.SenderID)
	}
}

func TestTTFAStats(t *testing.T) {
	r := testRecorder()

	t.Run("empty recorder", func(t *testing.T) {
		s := r.TTFAStats()
		if s.Count != 0 {
			t.Errorf("expected empty stats, got count %d", s.Count)
		}
	})

	base := time.Now().Add(-time.Minute)
	for i, ms := range []int{100, 200, 300, 400} {
		id := string(rune('a' + i))
		r.StartTTFA(id, "s", "r", "es", "en", base)
		r.RecordClientPlayed(id, base.Add(time.Duration(ms)*time.Millisecond))
	}

	// An in-flight message without a played ack must not count.
	r.StartTTFA("pending", "s", "r", "es", "en", base)

	s := r.TTFAStats()
	if s.Count != 4 {
		t.Fatalf("expected 4 samples, got %d", s.Count)
	}
	if s.MinMs != 100 || s.MaxMs != 400 {
		t.Errorf("unexpected min/max: %v/%v", s.MinMs, s.MaxMs)
	}
	if s.AvgMs != 250 {
		t.Errorf("expected avg 250, got %v", s.AvgMs)
	}
	if s.P95Ms != 400 {
		t.Errorf("expected p95 400, got %v", s.P95Ms)
	}
}

func TestTranslationStats(t *testing.T) {
	r := testRecorder()
	base := time.Now()

	times := []time.Time{base, base.Add(10 * time.Millisecond), base.Add(40 * time.Millisecond)}
	i := 0
	r.now = func() time.Time {
		t := times[i%len(times)]
		i++
		return t
	}

	r.StartTTFA("m", "s", "r", "es", "en", base) // server_received_at = base
	r.RecordTranslationCompleted("m")            // +10ms

	s := r.TranslationStats()
	if s.Count != 1 {
		t.Fatalf("expected 1 sample, got %d", s.Count)
	}
	if s.AvgMs != 10 {
		t.Errorf("expected 10ms, got %v", s.AvgMs)
	}
}

func TestConcurrentMilestones(t *testing.T) {
	r := testRecorder()
	base := time.Now()
	r.StartTTFA("m", "s", "r", "es", "en", base)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			r.RecordTranslationCompleted("m")
			r.RecordWSSent("m")
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		r.TTFAStats()
		r.TranslationStats()
	}
	<-done

	if s := r.TranslationStats(); s.Count != 1 {
		t.Errorf("translation milestone recorded %d times, want 1", s.Count)
	}
}
