package main

import "sync/atomic"

// Metrics counts engine events. All fields are updated atomically.
type Metrics struct {
	TickCount          int64
	TotalTickNs        int64
	DecodeErrors       int64 // malformed agent frames applied as no-ops
	FeedbackDropped    int64 // frames skipped because the agent fell behind
	EncodeErrors       int64
	ProjectilesFired   int64
	ProjectilesDropped int64 // fired while at max_projectiles
	Hits               int64
	Defeats            int64
	SpawnFailures      int64
}

func (m *Metrics) IncDecodeErrors()       { atomic.AddInt64(&m.DecodeErrors, 1) }
func (m *Metrics) IncFeedbackDropped()    { atomic.AddInt64(&m.FeedbackDropped, 1) }
func (m *Metrics) IncEncodeErrors()       { atomic.AddInt64(&m.EncodeErrors, 1) }
func (m *Metrics) IncProjectilesFired()   { atomic.AddInt64(&m.ProjectilesFired, 1) }
func (m *Metrics) IncProjectilesDropped() { atomic.AddInt64(&m.ProjectilesDropped, 1) }
func (m *Metrics) IncHits()               { atomic.AddInt64(&m.Hits, 1) }
func (m *Metrics) IncDefeats()            { atomic.AddInt64(&m.Defeats, 1) }
func (m *Metrics) IncSpawnFailures()      { atomic.AddInt64(&m.SpawnFailures, 1) }
func (m *Metrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot returns a read-only copy for the /metrics endpoint
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"avg_tick_ms":         avgMs,
		"decode_errors":       atomic.LoadInt64(&m.DecodeErrors),
		"feedback_dropped":    atomic.LoadInt64(&m.FeedbackDropped),
		"encode_errors":       atomic.LoadInt64(&m.EncodeErrors),
		"projectiles_fired":   atomic.LoadInt64(&m.ProjectilesFired),
		"projectiles_dropped": atomic.LoadInt64(&m.ProjectilesDropped),
		"hits":                atomic.LoadInt64(&m.Hits),
		"defeats":             atomic.LoadInt64(&m.Defeats),
		"spawn_failures":      atomic.LoadInt64(&m.SpawnFailures),
	}
}
