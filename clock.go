package diorama

import "math"

// Playback is the clock output for one frame. Times are in scaled
// milliseconds of scene time.
type Playback struct {
	// Now is the scaled scene time.
	Now float64
	// Delta is the scaled time elapsed since the previous playing frame.
	Delta float64
	// Progress is the loop position in [0, 1), or 0 when the scene has no
	// duration.
	Progress float64
	// FrameCount is the frame counter the last Tick was called with.
	FrameCount uint64
}

// Clock converts wall-clock ticks into loopable scene time and owns
// pause/resume bookkeeping. It performs only temporal math; camera and
// element state never pass through it.
type Clock struct {
	// startTime is the wall-clock reference for scene time zero. Shifted
	// forward on resume so paused time never reaches the scene.
	startTime float64
	started   bool

	paused   bool
	pausedAt float64

	timeSpeed float64
	duration  float64
}

// NewClock creates a clock. timeSpeed scales wall time into scene time
// (1 = real time). duration is the loop length in scene milliseconds; 0
// means unbounded (Progress stays 0). startAt offsets scene time zero.
func NewClock(timeSpeed, duration, startAt float64) *Clock {
	if timeSpeed == 0 {
		timeSpeed = 1
	}
	return &Clock{
		startTime: -startAt / timeSpeed,
		timeSpeed: timeSpeed,
		duration:  duration,
	}
}

// Pause freezes scene time at the given wall-clock millis. While paused,
// Tick returns the previous state unchanged. Pausing twice is a no-op.
func (c *Clock) Pause(wallMillis float64) {
	if c.paused {
		return
	}
	c.paused = true
	c.pausedAt = wallMillis
}

// Resume shifts the clock's reference start time forward by the paused
// duration so scene time continues seamlessly with no jump. Resuming a
// clock that never ticked only clears the pause; there is no reference to
// shift yet.
func (c *Clock) Resume(wallMillis float64) {
	if !c.paused {
		return
	}
	c.paused = false
	if c.started {
		c.startTime += wallMillis - c.pausedAt
	}
}

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool {
	return c.paused
}

// Tick advances scene time to the given wall-clock millis and returns the
// new playback state. The first call anchors scene time zero. While paused,
// the previous state is returned unchanged.
func (c *Clock) Tick(wallMillis, deltaMillis float64, frameCount uint64, prev Playback) Playback {
	if c.paused {
		return prev
	}
	if !c.started {
		c.startTime += wallMillis
		c.started = true
	}

	now := (wallMillis - c.startTime) * c.timeSpeed

	progress := 0.0
	if c.duration > 0 {
		progress = math.Mod(now, c.duration) / c.duration
		if progress < 0 {
			progress += 1
		}
	}

	return Playback{
		Now:        now,
		Delta:      deltaMillis * c.timeSpeed,
		Progress:   progress,
		FrameCount: frameCount,
	}
}
