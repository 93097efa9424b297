package pathfind

import (
	"math"
	"sync/atomic"
	"time"
)

// Stats are advisory, non-authoritative running counters: call count,
// total/min/max elapsed time. They are read concurrently with Tick-time
// writes by introspection callers, so fields are updated atomically, the
// float-valued ones via CAS retry. Nothing in Engine branches on Stats.
type Stats struct {
	calls     atomic.Int64
	cacheHits atomic.Int64
	failures  atomic.Int64
	totalNS   atomic.Int64
	minNS     atomicFloat
	maxNS     atomicFloat
}

// recordDuration is called once per ShortestPath invocation whose endpoints
// are both in range, with its elapsed wall time and whether it found a path.
// Calls with an out-of-range endpoint are not recorded.
func (s *Stats) recordDuration(d time.Duration, found bool) {
	s.calls.Add(1)
	if !found {
		s.failures.Add(1)
	}
	ns := float64(d.Nanoseconds())
	s.totalNS.Add(d.Nanoseconds())

	for {
		cur := s.minNS.read()
		if cur != 0 && cur <= ns {
			break
		}
		if s.minNS.cas(cur, ns) {
			break
		}
	}
	for {
		cur := s.maxNS.read()
		if cur >= ns {
			break
		}
		if s.maxNS.cas(cur, ns) {
			break
		}
	}
}

func (s *Stats) recordCacheHit() {
	s.cacheHits.Add(1)
}

// Calls returns the total number of ShortestPath invocations observed.
func (s *Stats) Calls() int64 { return s.calls.Load() }

// CacheHits returns how many of those invocations were served from the LRU cache.
func (s *Stats) CacheHits() int64 { return s.cacheHits.Load() }

// Failures returns how many invocations found no path.
func (s *Stats) Failures() int64 { return s.failures.Load() }

// TotalDuration returns the cumulative elapsed time across all calls.
func (s *Stats) TotalDuration() time.Duration { return time.Duration(s.totalNS.Load()) }

// MinDuration returns the fastest observed call, or 0 if none recorded.
func (s *Stats) MinDuration() time.Duration { return time.Duration(s.minNS.read()) }

// MaxDuration returns the slowest observed call.
func (s *Stats) MaxDuration() time.Duration { return time.Duration(s.maxNS.read()) }

// snapshot returns a value copy safe to hand to an introspection caller.
func (s *Stats) snapshot() *Stats {
	out := &Stats{}
	out.calls.Store(s.calls.Load())
	out.cacheHits.Store(s.cacheHits.Load())
	out.failures.Store(s.failures.Load())
	out.totalNS.Store(s.totalNS.Load())
	out.minNS.store(s.minNS.read())
	out.maxNS.store(s.maxNS.read())
	return out
}

// atomicFloat is a lock-free float64 stored as its IEEE bits, offering
// just what Stats needs: read, store, and a single compare-and-swap.
type atomicFloat struct {
	bits atomic.Uint64
}

func (a *atomicFloat) read() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat) store(v float64) {
	a.bits.Store(math.Float64bits(v))
}

func (a *atomicFloat) cas(old, new float64) bool {
	return a.bits.CompareAndSwap(math.Float64bits(old), math.Float64bits(new))
}
