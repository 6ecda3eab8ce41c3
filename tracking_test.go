package diorama

import "testing"

// fakeProvider is a scriptable tracking driver.
type fakeProvider struct {
	status    TrackingStatus
	face      *FaceGeometry
	faceCalls int
}

func (p *fakeProvider) Init() <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	return ch
}

func (p *fakeProvider) Face() *FaceGeometry {
	p.faceCalls++
	return p.face
}

func (p *fakeProvider) Status() TrackingStatus { return p.status }

func TestTrackingSourceSamplesOncePerFrame(t *testing.T) {
	provider := &fakeProvider{status: TrackingReady, face: &FaceGeometry{}}
	source := NewTrackingSource(provider)
	offset := NewTrackingOffset("head", source, Vec3{X: 1, Y: 1})
	gaze := NewTrackingOrientation("headGaze", 100, source, 1, 300)

	frame := Frame{ID: 1}
	offset.Tick(frame)
	gaze.Tick(frame)

	if provider.faceCalls != 1 {
		t.Errorf("Face calls = %d, want 1 (shared source, one poll per frame)", provider.faceCalls)
	}

	offset.Tick(Frame{ID: 2})
	if provider.faceCalls != 2 {
		t.Errorf("Face calls = %d, want a fresh poll on a new frame", provider.faceCalls)
	}
}

func TestTrackingOffsetScalesAndSelectsAxes(t *testing.T) {
	provider := &fakeProvider{
		status: TrackingReady,
		face:   &FaceGeometry{Position: Vec3{X: 2, Y: 3, Z: 4}},
	}
	offset := NewTrackingOffset("head", NewTrackingSource(provider), Vec3{X: 10, Y: 10, Z: 10})

	offset.Tick(Frame{ID: 1})
	vote, err := offset.Offsets()
	if err != nil {
		t.Fatalf("Offsets: %v", err)
	}
	if !vote.X.Voted || vote.X.Value != 20 {
		t.Errorf("X = %+v, want voted 20", vote.X)
	}
	if !vote.Y.Voted || vote.Y.Value != 30 {
		t.Errorf("Y = %+v, want voted 30", vote.Y)
	}
	if vote.Z.Voted {
		t.Error("Z voted, want unvoted by default")
	}
}

func TestTrackingOffsetDefaultsEyeOnly(t *testing.T) {
	offset := NewTrackingOffset("head", NewTrackingSource(&fakeProvider{}), Vec3{})
	if offset.Scope() != ScopeEyeOnly {
		t.Errorf("scope = %v, want eye-only by default", offset.Scope())
	}
	offset.SetScope(ScopeCamera)
	if offset.Scope() != ScopeCamera {
		t.Error("SetScope did not change the scope")
	}
}

func TestTrackingFailsWithoutFace(t *testing.T) {
	provider := &fakeProvider{status: TrackingReady, face: nil}
	source := NewTrackingSource(provider)
	offset := NewTrackingOffset("head", source, Vec3{X: 1})
	gaze := NewTrackingOrientation("headGaze", 100, source, 1, 300)

	frame := Frame{ID: 1}
	offset.Tick(frame)
	gaze.Tick(frame)

	if _, err := offset.Offsets(); err == nil {
		t.Error("Offsets returned nil error with no face")
	}
	if _, err := gaze.Orientation(); err == nil {
		t.Error("Orientation returned nil error with no face")
	}
}

func TestTrackingNotReadyYieldsNoFace(t *testing.T) {
	provider := &fakeProvider{status: TrackingInitializing, face: &FaceGeometry{}}
	source := NewTrackingSource(provider)
	offset := NewTrackingOffset("head", source, Vec3{X: 1})

	offset.Tick(Frame{ID: 1})
	if _, err := offset.Offsets(); err == nil {
		t.Error("Offsets returned nil error while the driver is not ready")
	}
	if provider.faceCalls != 0 {
		t.Errorf("Face polled %d times before the driver was ready", provider.faceCalls)
	}
}

func TestTrackingOrientationGain(t *testing.T) {
	provider := &fakeProvider{
		status: TrackingReady,
		face:   &FaceGeometry{Yaw: 0.2, Pitch: -0.1, Roll: 0.05},
	}
	gaze := NewTrackingOrientation("headGaze", 100, NewTrackingSource(provider), 2, 300)

	gaze.Tick(Frame{ID: 1})
	got, err := gaze.Orientation()
	if err != nil {
		t.Fatalf("Orientation: %v", err)
	}
	want := Orientation{Yaw: 0.4, Pitch: -0.2, Roll: 0.1, Distance: 300}
	if !approxEqual(got.Yaw, want.Yaw, epsilon) || !approxEqual(got.Pitch, want.Pitch, epsilon) ||
		!approxEqual(got.Roll, want.Roll, epsilon) || got.Distance != 300 {
		t.Errorf("gaze = %+v, want %+v", got, want)
	}
}

func TestTrackingLossFallsBackInOrchestrator(t *testing.T) {
	provider := &fakeProvider{status: TrackingReady, face: &FaceGeometry{Yaw: 0.5}}
	source := NewTrackingSource(provider)

	o := NewOrchestrator(Vec3{}, 500)
	o.AddOrientation(NewTrackingOrientation("headGaze", 100, source, 1, 300))
	o.AddOrientation(NewFixedOrientation("ambient", 10, Orientation{Yaw: 0.1, Distance: 500}))

	cam := o.Resolve(Frame{ID: 1})
	if !approxEqual(cam.Orientation.Yaw, 0.5, epsilon) {
		t.Fatalf("Yaw = %f, want the tracked gaze while a face is present", cam.Orientation.Yaw)
	}

	provider.face = nil
	cam = o.Resolve(Frame{ID: 2})
	if !approxEqual(cam.Orientation.Yaw, 0.1, epsilon) {
		t.Errorf("Yaw = %f, want the ambient fallback after tracking loss", cam.Orientation.Yaw)
	}
}
