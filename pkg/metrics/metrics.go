// Package metrics tracks per-message latency milestones for the voice-note
// relay, most importantly TTFA (time to first audio): the span from the
// moment the sender's client dispatched a note to the moment the recipient's
// client started playback.
package metrics

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// TTFA is the latency record for a single relayed voice note.
// Timestamps are filled in processing order and never overwritten once set.
// TTFAMs is computed once, from client timestamps, and is therefore subject
// to client clock skew.
type TTFA struct {
	MessageID   string
	SenderID    string
	RecipientID string
	SourceLang  string
	TargetLang  string

	ClientSentAt           time.Time
	ServerReceivedAt       time.Time
	TranslationCompletedAt time.Time
	WSSentAt               time.Time
	ClientPlayedAt         time.Time

	TTFAMs int64
	played bool
}

// Stats summarizes a set of collected latency samples.
type Stats struct {
	Count int     `json:"count"`
	AvgMs float64 `json:"avg_ms"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	P95Ms float64 `json:"p95_ms"`
}

// Recorder collects TTFA records and translation durations.
// It is goroutine-safe: milestones for the same message arrive from
// independent tasks and interleave freely.
type Recorder struct {
	mu           sync.Mutex
	ttfa         map[string]*TTFA
	translations []time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewRecorder creates an empty metrics recorder.
func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{
		ttfa:   make(map[string]*TTFA),
		logger: logger.With("component", "metrics"),
		now:    time.Now,
	}
}

// StartTTFA begins tracking a message, capturing the server receive time.
// Only messages on the voice-note relay path are tracked; standalone STT or
// TTS calls never create a record.
func (r *Recorder) StartTTFA(messageID, senderID, recipientID, sourceLang, targetLang string, clientSentAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ttfa[messageID]; ok {
		return
	}
	r.ttfa[messageID] = &TTFA{
		MessageID:        messageID,
		SenderID:         senderID,
		RecipientID:      recipientID,
		SourceLang:       sourceLang,
		TargetLang:       targetLang,
		ClientSentAt:     clientSentAt,
		ServerReceivedAt: r.now(),
	}
	r.logger.Debug("started ttfa tracking", "message_id", messageID)
}

// RecordTranslationCompleted marks the translation milestone and archives
// the server-side translation duration for aggregate stats.
func (r *Recorder) RecordTranslationCompleted(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.ttfa[messageID]
	if !ok || !m.TranslationCompletedAt.IsZero() {
		return
	}
	m.TranslationCompletedAt = r.now()
	elapsed := m.TranslationCompletedAt.Sub(m.ServerReceivedAt)
	r.translations = append(r.translations, elapsed)
	r.logger.Debug("translation completed",
		"message_id", messageID,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// RecordWSSent marks the moment the message views were handed to the
// connection manager for dispatch.
func (r *Recorder) RecordWSSent(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.ttfa[messageID]
	if !ok || !m.WSSentAt.IsZero() {
		return
	}
	m.WSSentAt = r.now()
}

// RecordClientPlayed records the client-reported playback timestamp and
// computes TTFA once. First write wins; repeated acknowledgments for the
// same message are ignored and return ok=false.
func (r *Recorder) RecordClientPlayed(messageID string, playedAt time.Time) (ttfaMs int64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, found := r.ttfa[messageID]
	if !found || m.played {
		return 0, false
	}
	m.played = true
	m.ClientPlayedAt = playedAt
	m.TTFAMs = playedAt.Sub(m.ClientSentAt).Milliseconds()
	r.logger.Info("ttfa recorded",
		"message_id", messageID,
		"ttfa_ms", m.TTFAMs,
		"source_lang", m.SourceLang,
		"target_lang", m.TargetLang,
	)
	return m.TTFAMs, true
}

// Get returns a snapshot of the record for a message, if one exists.
func (r *Recorder) Get(messageID string) (TTFA, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.ttfa[messageID]
	if !ok {
		return TTFA{}, false
	}
	return *m, true
}

// TTFAStats aggregates all completed TTFA measurements.
func (r *Recorder) TTFAStats() Stats {
	r.mu.Lock()
	samples := make([]float64, 0, len(r.ttfa))
	for _, m := range r.ttfa {
		if m.played {
			samples = append(samples, float64(m.TTFAMs))
		}
	}
	r.mu.Unlock()
	return summarize(samples)
}

// TranslationStats aggregates server-side translation durations.
func (r *Recorder) TranslationStats() Stats {
	r.mu.Lock()
	samples := make([]float64, 0, len(r.translations))
	for _, d := range r.translations {
		samples = append(samples, float64(d.Milliseconds()))
	}
	r.mu.Unlock()
	return summarize(samples)
}

// summarize sorts the samples and computes count/avg/min/max/p95. Plain
// sorting is fine at this scale; no approximation structure is needed.
func summarize(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	sort.Float64s(samples)
	var sum float64
	for _, s := range samples {
		sum += s
	}
	count := len(samples)
	p95Index := int(0.95 * float64(count))
	if p95Index >= count {
		p95Index = count - 1
	}
	return Stats{
		Count: count,
		AvgMs: sum / float64(count),
		MinMs: samples[0],
		MaxMs: samples[count-1],
		P95Ms: samples[p95Index],
	}
}
