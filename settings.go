package diorama

// CameraSettings are the camera intrinsics and orchestrator defaults.
type CameraSettings struct {
	// Initial is the fallback camera position when every anchor fails.
	Initial Vec3
	// DefaultDistance is the straight-ahead gaze distance when every
	// orientation modifier fails.
	DefaultDistance float64
	// FOV is the vertical field of view in radians.
	FOV float64
	// Near and Far are the clip distances. Far doubles as the painter's
	// far-plane cull cutoff.
	Near, Far float64
}

// PlaybackSettings configure the temporal clock.
type PlaybackSettings struct {
	// Duration is the loop length in scene milliseconds; 0 is unbounded.
	Duration float64
	// TimeSpeed scales wall time into scene time (1 = real time).
	TimeSpeed float64
	// StartAt offsets scene time zero, in scene milliseconds.
	StartAt float64
	// Paused starts the clock paused.
	Paused bool
}

// Settings is the full scene configuration.
type Settings struct {
	Width, Height int

	Camera   CameraSettings
	Playback PlaybackSettings

	// DefaultEffects run before each element's own effect list.
	DefaultEffects []EffectInstruction

	Debug       bool
	GlobalAlpha float64
}

// Aspect returns width over height, or 1 for a degenerate size.
func (s Settings) Aspect() float64 {
	if s.Height == 0 {
		return 1
	}
	return float64(s.Width) / float64(s.Height)
}

// DefaultSettings returns the baseline configuration: a 960x540 scene, a
// camera at the origin looking down -Z, real-time unbounded playback.
func DefaultSettings() Settings {
	return Settings{
		Width:  960,
		Height: 540,
		Camera: CameraSettings{
			DefaultDistance: 500,
			FOV:             1.0472, // 60 degrees
			Near:            1,
			Far:             10000,
		},
		Playback: PlaybackSettings{
			TimeSpeed: 1,
		},
		GlobalAlpha: 1,
	}
}

// CameraOverrides is a deep-partial override of CameraSettings: nil fields
// keep the current value.
type CameraOverrides struct {
	Initial         *Vec3
	DefaultDistance *float64
	FOV             *float64
	Near            *float64
	Far             *float64
}

// PlaybackOverrides is a deep-partial override of PlaybackSettings.
type PlaybackOverrides struct {
	Duration  *float64
	TimeSpeed *float64
	StartAt   *float64
	Paused    *bool
}

// Overrides is a deep-partial override of Settings. Struct sections merge
// recursively; slice fields replace wholesale when non-nil.
type Overrides struct {
	Width  *int
	Height *int

	Camera   *CameraOverrides
	Playback *PlaybackOverrides

	DefaultEffects []EffectInstruction

	Debug       *bool
	GlobalAlpha *float64
}

// Merge returns a copy of s with every non-nil override applied.
func (s Settings) Merge(o Overrides) Settings {
	if o.Width != nil {
		s.Width = *o.Width
	}
	if o.Height != nil {
		s.Height = *o.Height
	}
	if o.Camera != nil {
		if o.Camera.Initial != nil {
			s.Camera.Initial = *o.Camera.Initial
		}
		if o.Camera.DefaultDistance != nil {
			s.Camera.DefaultDistance = *o.Camera.DefaultDistance
		}
		if o.Camera.FOV != nil {
			s.Camera.FOV = *o.Camera.FOV
		}
		if o.Camera.Near != nil {
			s.Camera.Near = *o.Camera.Near
		}
		if o.Camera.Far != nil {
			s.Camera.Far = *o.Camera.Far
		}
	}
	if o.Playback != nil {
		if o.Playback.Duration != nil {
			s.Playback.Duration = *o.Playback.Duration
		}
		if o.Playback.TimeSpeed != nil {
			s.Playback.TimeSpeed = *o.Playback.TimeSpeed
		}
		if o.Playback.StartAt != nil {
			s.Playback.StartAt = *o.Playback.StartAt
		}
		if o.Playback.Paused != nil {
			s.Playback.Paused = *o.Playback.Paused
		}
	}
	if o.DefaultEffects != nil {
		s.DefaultEffects = o.DefaultEffects
	}
	if o.Debug != nil {
		s.Debug = *o.Debug
	}
	if o.GlobalAlpha != nil {
		s.GlobalAlpha = *o.GlobalAlpha
	}
	return s
}

// Ptr returns a pointer to v, for building Overrides literals inline.
func Ptr[T any](v T) *T {
	return &v
}
