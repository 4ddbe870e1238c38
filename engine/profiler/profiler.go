package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// Profiler tracks frame rate, fixed tick rate, compute dispatches and memory statistics for
// performance monitoring. Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu sync.Mutex

	frameCount     int
	fixedCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	dispatchCounter func() uint64
	lastDispatches  uint64
}

// Sample is one logged profiling interval.
type Sample struct {
	FPS           float64
	FixedHz       float64
	Dispatches    uint64
	HeapMB        float64
	AllocRateMB   float64
	GCCount       uint32
	LastPauseUs   uint64
	MaxPauseUs    uint64
	SysMB         float64
	IntervalStart time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
}

// SetInterval changes how often statistics are logged. Non-positive values are ignored.
//
// Parameters:
//   - d: the logging interval
func (p *Profiler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateInterval = d
}

// SetDispatchCounter registers a function returning the cumulative number of compute
// dispatches. The profiler logs the dispatches issued during each interval.
//
// Parameters:
//   - counter: the cumulative dispatch counter, or nil to disable
func (p *Profiler) SetDispatchCounter(counter func() uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dispatchCounter = counter
	if counter != nil {
		p.lastDispatches = counter()
	}
}

// FixedTick should be called once per fixed engine tick.
func (p *Profiler) FixedTick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fixedCount++
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, fixed tick rate, dispatches, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	s := p.sampleLocked(currentTime, elapsed)
	log.Printf("[Profiler] FPS: %.2f | Fixed: %.2f Hz | Dispatches: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		s.FPS, s.FixedHz, s.Dispatches, s.HeapMB, s.AllocRateMB, s.GCCount, s.LastPauseUs, s.MaxPauseUs, s.SysMB)
	return true
}

// sampleLocked computes the statistics for the interval ending at now and resets the counters.
func (p *Profiler) sampleLocked(now time.Time, elapsed time.Duration) Sample {
	s := Sample{
		FPS:           float64(p.frameCount) / elapsed.Seconds(),
		FixedHz:       float64(p.fixedCount) / elapsed.Seconds(),
		IntervalStart: p.lastTime,
	}

	if p.dispatchCounter != nil {
		total := p.dispatchCounter()
		s.Dispatches = total - p.lastDispatches
		p.lastDispatches = total
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	s.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	s.SysMB = float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	s.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	s.GCCount = p.memStats.NumGC
	if s.GCCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		s.LastPauseUs = p.memStats.PauseNs[(s.GCCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if s.GCCount-startIdx > 256 {
			startIdx = s.GCCount - 256
		}
		for i := startIdx; i < s.GCCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > s.MaxPauseUs {
				s.MaxPauseUs = pause
			}
		}
	}

	p.frameCount = 0
	p.fixedCount = 0
	p.lastTime = now
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return s
}

// Snapshot forces a sample of the current interval without logging and resets the counters.
//
// Returns:
//   - Sample: the statistics since the previous sample
func (p *Profiler) Snapshot() Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	return p.sampleLocked(now, elapsed)
}
