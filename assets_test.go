package diorama

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeResource is a minimal Resource for lifecycle tests.
type fakeResource struct {
	kind AssetKind
	name string
}

func (r fakeResource) ResourceKind() AssetKind { return r.kind }

// manualLoader hands out hydrations the test completes itself, and counts
// calls per reference.
type manualLoader struct {
	mu       sync.Mutex
	calls    map[string]int
	pending  map[string]*Hydration
	allReady chan struct{}
}

func newManualLoader() *manualLoader {
	return &manualLoader{
		calls:    make(map[string]int),
		pending:  make(map[string]*Hydration),
		allReady: make(chan struct{}),
	}
}

func (l *manualLoader) hydrate(key string) *Hydration {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[key]++
	h := NewHydration()
	l.pending[key] = h
	return h
}

func (l *manualLoader) HydrateTexture(ref string) *Hydration { return l.hydrate("tex:" + ref) }
func (l *manualLoader) HydrateFont(ref string) *Hydration    { return l.hydrate("font:" + ref) }
func (l *manualLoader) WaitForAllAssets() <-chan struct{}    { return l.allReady }

func (l *manualLoader) callCount(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[key]
}

func (l *manualLoader) finish(key string, res Resource, err error) {
	l.mu.Lock()
	h := l.pending[key]
	l.mu.Unlock()
	if err != nil {
		h.Fail(err)
		return
	}
	h.Complete(res)
}

// waitStatus polls a handle until it reaches a terminal status. Hydration
// completion crosses a goroutine, so tests need a deadline, not a sleep.
func waitStatus(t *testing.T, h *AssetHandle, want AssetStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Status() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("handle stuck at %v, want %v", h.Status(), want)
}

func TestHandleEmptyRefIsReadyNull(t *testing.T) {
	h := newAssetHandle("", AssetTexture)
	if h.Status() != AssetReady {
		t.Errorf("status = %v, want ready", h.Status())
	}
	if h.Resource() != nil {
		t.Errorf("resource = %v, want nil", h.Resource())
	}
}

func TestHandleCompleteIsTerminal(t *testing.T) {
	h := newAssetHandle("a.png", AssetTexture)
	h.markLoading()
	h.complete(fakeResource{kind: AssetTexture, name: "first"}, "")
	h.complete(nil, "too late")

	if h.Status() != AssetReady {
		t.Errorf("status = %v, want ready (terminal states never revert)", h.Status())
	}
	if res, ok := h.Resource().(fakeResource); !ok || res.name != "first" {
		t.Errorf("resource = %v, want the first completion", h.Resource())
	}
}

func TestRegisterHydratesDeclaredRefs(t *testing.T) {
	loader := newManualLoader()
	reg := NewRegistry(loader)

	el := reg.Register("hero", Blueprint{Kind: KindBillboard, TextureRef: "hero.png"})

	if el.Texture.Status() != AssetLoading {
		t.Errorf("texture status = %v, want loading", el.Texture.Status())
	}
	if el.Font.Status() != AssetReady {
		t.Errorf("font status = %v, want ready-null for an undeclared ref", el.Font.Status())
	}

	loader.finish("tex:hero.png", fakeResource{kind: AssetTexture, name: "hero"}, nil)
	waitStatus(t, el.Texture, AssetReady)
}

func TestRegisterFailureFlipsHandleToError(t *testing.T) {
	loader := newManualLoader()
	reg := NewRegistry(loader)

	el := reg.Register("hero", Blueprint{Kind: KindBillboard, TextureRef: "missing.png"})
	loader.finish("tex:missing.png", nil, errors.New("file not found"))

	waitStatus(t, el.Texture, AssetError)
	if el.Texture.Err() != "file not found" {
		t.Errorf("Err = %q", el.Texture.Err())
	}
}

func TestRegisterIdempotent(t *testing.T) {
	loader := newManualLoader()
	reg := NewRegistry(loader)

	first := reg.Register("hero", Blueprint{Kind: KindBillboard, TextureRef: "hero.png"})
	second := reg.Register("hero", Blueprint{Kind: KindBox, TextureRef: "other.png"})

	if first != second {
		t.Error("repeated registration created a new element")
	}
	if got := loader.callCount("tex:hero.png"); got != 1 {
		t.Errorf("hydration calls = %d, want exactly 1", got)
	}
	if got := loader.callCount("tex:other.png"); got != 0 {
		t.Errorf("re-registration issued a hydration for the new blueprint")
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1", reg.Len())
	}
}

func TestRegisterWithoutLoaderErrorsDeclaredRefs(t *testing.T) {
	reg := NewRegistry(nil)
	el := reg.Register("hero", Blueprint{Kind: KindBillboard, TextureRef: "hero.png"})

	if el.Texture.Status() != AssetError {
		t.Errorf("status = %v, want error with no loader", el.Texture.Status())
	}
	if el.Font.Status() != AssetReady {
		t.Errorf("undeclared font status = %v, want ready-null", el.Font.Status())
	}
}

func TestRemoveThenLookup(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register("a", Blueprint{Kind: KindBox})
	reg.Register("b", Blueprint{Kind: KindBox})
	reg.Remove("a")
	reg.Remove("ghost")

	if _, ok := reg.Lookup("a"); ok {
		t.Error("removed element still found")
	}
	els := reg.Elements()
	if len(els) != 1 || els[0].ID() != "b" {
		t.Errorf("Elements = %v", els)
	}
}

func TestCachingLoaderDeduplicatesRefs(t *testing.T) {
	var fetches atomic.Int32
	loader := NewCachingLoader(func(ref string) (Resource, error) {
		fetches.Add(1)
		return fakeResource{kind: AssetTexture, name: ref}, nil
	}, nil)

	a := loader.HydrateTexture("shared.png")
	<-a.Done()
	b := loader.HydrateTexture("shared.png")
	<-b.Done()

	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1 (second hydration served from cache)", got)
	}
	res, err := b.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res.(fakeResource).name != "shared.png" {
		t.Errorf("resource = %v", res)
	}
}

func TestCachingLoaderFetchError(t *testing.T) {
	loader := NewCachingLoader(func(ref string) (Resource, error) {
		return nil, errors.New("decode failed")
	}, nil)

	h := loader.HydrateTexture("bad.png")
	<-h.Done()
	if _, err := h.Result(); err == nil {
		t.Error("Result returned nil error")
	}
}

func TestCachingLoaderNilFetcherFails(t *testing.T) {
	loader := NewCachingLoader(nil, nil)
	h := loader.HydrateFont("mono.ttf")

	select {
	case <-h.Done():
	default:
		t.Fatal("nil-fetcher hydration should fail immediately")
	}
	if _, err := h.Result(); err == nil {
		t.Error("Result returned nil error")
	}
}

func TestWaitForAllAssets(t *testing.T) {
	release := make(chan struct{})
	loader := NewCachingLoader(func(ref string) (Resource, error) {
		<-release
		return fakeResource{kind: AssetTexture, name: ref}, nil
	}, nil)

	loader.HydrateTexture("a.png")
	loader.HydrateTexture("b.png")
	done := loader.WaitForAllAssets()

	select {
	case <-done:
		t.Fatal("WaitForAllAssets closed before fetches finished")
	case <-time.After(10 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForAllAssets never closed")
	}
}
