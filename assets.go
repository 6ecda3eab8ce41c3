package diorama

import (
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// AssetStatus is the lifecycle state of one asset handle. Handles transition
// once, Pending/Loading → Ready/Error, and never revert.
type AssetStatus uint8

const (
	AssetPending AssetStatus = iota
	AssetLoading
	AssetReady
	AssetError
)

// String returns the status name used in diagnostics.
func (s AssetStatus) String() string {
	switch s {
	case AssetPending:
		return "pending"
	case AssetLoading:
		return "loading"
	case AssetReady:
		return "ready"
	case AssetError:
		return "error"
	default:
		return "unknown"
	}
}

// AssetKind distinguishes texture and font references.
type AssetKind uint8

const (
	AssetTexture AssetKind = iota
	AssetFont
)

// Resource is a backend-usable asset produced by hydration. The concrete
// types are the backend's (an ebiten image, a font face); the core only
// carries them.
type Resource interface {
	ResourceKind() AssetKind
}

// assetState is the immutable value an AssetHandle points at. Replaced
// wholesale on transition so frame-loop readers need no lock.
type assetState struct {
	status   AssetStatus
	resource Resource
	err      string
}

// AssetHandle tracks one asset reference for one element. The frame loop
// reads whichever state is current; hydration completion swaps the state
// atomically from another goroutine.
type AssetHandle struct {
	Ref   string
	Kind  AssetKind
	state atomic.Pointer[assetState]
}

// newAssetHandle creates a handle: Pending when a reference was supplied,
// empty-Ready otherwise (the element simply has no such asset).
func newAssetHandle(ref string, kind AssetKind) *AssetHandle {
	h := &AssetHandle{Ref: ref, Kind: kind}
	if ref == "" {
		h.state.Store(&assetState{status: AssetReady})
	} else {
		h.state.Store(&assetState{status: AssetPending})
	}
	return h
}

// Status returns the current lifecycle state.
func (h *AssetHandle) Status() AssetStatus {
	return h.state.Load().status
}

// Resource returns the hydrated resource, or nil unless Status is
// AssetReady. A Ready handle with a nil resource means the element declared
// no reference.
func (h *AssetHandle) Resource() Resource {
	return h.state.Load().resource
}

// Err returns the hydration error string, or "" unless Status is AssetError.
func (h *AssetHandle) Err() string {
	return h.state.Load().err
}

// markLoading moves Pending → Loading. Any later state wins the race and
// stays put.
func (h *AssetHandle) markLoading() {
	pending := h.state.Load()
	if pending.status == AssetPending {
		h.state.CompareAndSwap(pending, &assetState{status: AssetLoading})
	}
}

// complete finishes the transition to Ready or Error exactly once.
func (h *AssetHandle) complete(resource Resource, errMsg string) {
	for {
		cur := h.state.Load()
		if cur.status == AssetReady || cur.status == AssetError {
			return
		}
		next := &assetState{status: AssetReady, resource: resource}
		if errMsg != "" {
			next = &assetState{status: AssetError, err: errMsg}
		}
		if h.state.CompareAndSwap(cur, next) {
			return
		}
	}
}

// --- Hydration deferred ---

// Hydration is the deferred result of one loader call. It completes on the
// loader's schedule; the registry watches it and flips the element's asset
// handle when it does.
type Hydration struct {
	once     sync.Once
	done     chan struct{}
	resource Resource
	err      error
}

// NewHydration creates an unfinished hydration.
func NewHydration() *Hydration {
	return &Hydration{done: make(chan struct{})}
}

// Complete finishes the hydration with a resource. Later calls to Complete
// or Fail are no-ops.
func (h *Hydration) Complete(resource Resource) {
	h.once.Do(func() {
		h.resource = resource
		close(h.done)
	})
}

// Fail finishes the hydration with an error. Later calls are no-ops.
func (h *Hydration) Fail(err error) {
	h.once.Do(func() {
		h.err = err
		close(h.done)
	})
}

// Done returns a channel closed when the hydration finishes.
func (h *Hydration) Done() <-chan struct{} {
	return h.done
}

// Result returns the outcome. Only valid after Done is closed.
func (h *Hydration) Result() (Resource, error) {
	return h.resource, h.err
}

// Loader is the asset-loading collaborator. Hydrate calls must return
// immediately; the deferred completes on the loader's own schedule.
// WaitForAllAssets is for boot sequences and tests that want full hydration
// before the first paint.
type Loader interface {
	HydrateTexture(ref string) *Hydration
	HydrateFont(ref string) *Hydration
	WaitForAllAssets() <-chan struct{}
}

// --- Caching loader ---

// FetchFunc performs the actual (blocking) load of one reference. It runs
// on a loader goroutine, never on the frame loop.
type FetchFunc func(ref string) (Resource, error)

// CachingLoader adapts fetch functions into a Loader that deduplicates
// identical references across elements: concurrent hydrations of the same
// ref share one in-flight fetch, and completed results are cached.
type CachingLoader struct {
	fetchTexture FetchFunc
	fetchFont    FetchFunc

	group   singleflight.Group
	mu      sync.Mutex
	results map[string]Resource
	pending sync.WaitGroup
}

// NewCachingLoader creates a loader over the given fetch functions. Either
// may be nil if the scene declares no references of that kind.
func NewCachingLoader(fetchTexture, fetchFont FetchFunc) *CachingLoader {
	return &CachingLoader{
		fetchTexture: fetchTexture,
		fetchFont:    fetchFont,
		results:      make(map[string]Resource),
	}
}

// HydrateTexture starts (or joins) the load of a texture reference.
func (l *CachingLoader) HydrateTexture(ref string) *Hydration {
	return l.hydrate("tex:"+ref, ref, l.fetchTexture)
}

// HydrateFont starts (or joins) the load of a font reference.
func (l *CachingLoader) HydrateFont(ref string) *Hydration {
	return l.hydrate("font:"+ref, ref, l.fetchFont)
}

func (l *CachingLoader) hydrate(key, ref string, fetch FetchFunc) *Hydration {
	h := NewHydration()
	if fetch == nil {
		h.Fail(errNoFetcher)
		return h
	}

	l.mu.Lock()
	if res, ok := l.results[key]; ok {
		l.mu.Unlock()
		h.Complete(res)
		return h
	}
	l.pending.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.pending.Done()
		v, err, _ := l.group.Do(key, func() (any, error) {
			res, err := fetch(ref)
			if err != nil {
				return nil, err
			}
			l.mu.Lock()
			l.results[key] = res
			l.mu.Unlock()
			return res, nil
		})
		if err != nil {
			h.Fail(err)
			return
		}
		h.Complete(v.(Resource))
	}()
	return h
}

// WaitForAllAssets returns a channel closed once every hydration issued so
// far has finished. Register elements first, then wait.
func (l *CachingLoader) WaitForAllAssets() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		l.pending.Wait()
		close(ch)
	}()
	return ch
}

var errNoFetcher = errors.New("no fetch function configured for this asset kind")

// --- Element registry ---

// Element is one registered scene element: its compiled dynamic tree plus
// per-asset handles. Created on first Register for an id and reused
// unchanged on repeated registrations.
type Element struct {
	id    string
	order int
	tree  *DynamicTree

	Texture *AssetHandle
	Font    *AssetHandle
}

// ID returns the element's registered id.
func (e *Element) ID() string { return e.id }

// Registry owns element registration and the asset hydration lifecycle.
type Registry struct {
	loader    Loader
	elements  map[string]*Element
	order     []*Element
	nextOrder int
}

// NewRegistry creates a registry over the given loader. The loader may be
// nil for scenes with no asset references; a declared reference with a nil
// loader hydrates straight to Error.
func NewRegistry(loader Loader) *Registry {
	return &Registry{
		loader:   loader,
		elements: make(map[string]*Element),
	}
}

// Register compiles the blueprint under the given id and issues one
// hydration call per declared asset reference. Registering an existing id
// returns the existing element unchanged and issues no hydration calls, so
// declarative re-registration is free.
func (r *Registry) Register(id string, bp Blueprint) *Element {
	if existing, ok := r.elements[id]; ok {
		return existing
	}

	bp.ID = id
	el := &Element{
		id:      id,
		order:   r.nextOrder,
		tree:    Compile(bp),
		Texture: newAssetHandle(bp.TextureRef, AssetTexture),
		Font:    newAssetHandle(bp.FontRef, AssetFont),
	}
	r.nextOrder++
	r.elements[id] = el
	r.order = append(r.order, el)

	if bp.TextureRef != "" {
		r.issueHydration(el.Texture, func() *Hydration { return r.loader.HydrateTexture(bp.TextureRef) })
	}
	if bp.FontRef != "" {
		r.issueHydration(el.Font, func() *Hydration { return r.loader.HydrateFont(bp.FontRef) })
	}
	return el
}

// issueHydration starts one loader call and watches the deferred. The watch
// goroutine is the only writer of the handle's terminal state.
func (r *Registry) issueHydration(handle *AssetHandle, call func() *Hydration) {
	if r.loader == nil {
		handle.complete(nil, "no loader configured")
		return
	}
	handle.markLoading()
	hyd := call()
	go func() {
		<-hyd.Done()
		res, err := hyd.Result()
		if err != nil {
			handle.complete(nil, err.Error())
			return
		}
		handle.complete(res, "")
	}()
}

// Lookup returns the element for id, reporting false when it was never
// registered or has been removed.
func (r *Registry) Lookup(id string) (*Element, bool) {
	el, ok := r.elements[id]
	return el, ok
}

// Remove deletes the element. In-flight hydration for it still completes
// and is discarded with the handle. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	if _, ok := r.elements[id]; !ok {
		return
	}
	delete(r.elements, id)
	for i, el := range r.order {
		if el.id == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Elements returns the registered elements in registration order. The
// returned slice MUST NOT be mutated.
func (r *Registry) Elements() []*Element {
	return r.order
}

// Len returns the number of registered elements.
func (r *Registry) Len() int {
	return len(r.elements)
}
