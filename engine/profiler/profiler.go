package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
)

// Stats is one reporting window of frame and memory statistics.
type Stats struct {
	Frames       int
	FPS          float64
	FrameAvg     time.Duration
	FrameMin     time.Duration
	FrameMax     time.Duration
	HeapMB       float64
	AllocRateMB  float64
	GCCount      uint32
	LastPauseUs  uint64
	MaxPauseUs   uint64
	SysMB        float64
	ElapsedTotal time.Duration
}

// Profiler tracks frame rate, frame time and memory statistics for performance monitoring.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	lastFrame      time.Time
	frameMin       time.Duration
	frameMax       time.Duration
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
	last           Stats
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - interval: how often stats are reported; values <= 0 default to 1 second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	p := &Profiler{
		updateInterval: interval,
		now:            time.Now,
	}
	p.reset(p.now())
	return p
}

func (p *Profiler) reset(t time.Time) {
	p.frameCount = 0
	p.lastTime = t
	p.lastFrame = t
	p.frameMin = 0
	p.frameMax = 0
}

// Last returns the most recently reported statistics.
func (p *Profiler) Last() Stats {
	return p.last
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	currentTime := p.now()
	frame := currentTime.Sub(p.lastFrame)
	p.lastFrame = currentTime
	p.frameCount++
	if p.frameCount == 1 || frame < p.frameMin {
		p.frameMin = frame
	}
	if frame > p.frameMax {
		p.frameMax = frame
	}

	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		Frames:       p.frameCount,
		FPS:          float64(p.frameCount) / elapsed.Seconds(),
		FrameAvg:     elapsed / time.Duration(p.frameCount),
		FrameMin:     p.frameMin,
		FrameMax:     p.frameMax,
		HeapMB:       float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:        float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB:  float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:      p.memStats.NumGC,
		ElapsedTotal: elapsed,
	}

	// PauseNs is a circular buffer of the last 256 GC pauses.
	if gcCount := p.memStats.NumGC; gcCount > 0 {
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > s.MaxPauseUs {
				s.MaxPauseUs = pause
			}
		}
	}

	common.Logger().Info("profiler",
		"fps", s.FPS,
		"frame_avg", s.FrameAvg,
		"frame_min", s.FrameMin,
		"frame_max", s.FrameMax,
		"heap_mb", s.HeapMB,
		"alloc_rate_mb", s.AllocRateMB,
		"gc", s.GCCount,
		"gc_last_us", s.LastPauseUs,
		"gc_max_us", s.MaxPauseUs,
		"sys_mb", s.SysMB,
	)

	p.last = s
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.reset(currentTime)
	return true
}
