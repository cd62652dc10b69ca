package visa

import (
	"sort"
	"sync"

	"govisa/attr"
	"govisa/backend"
	"govisa/resourcename"
	"govisa/visaerr"
)

// ResourceManager is the process-local entry point of spec §4.E: it owns
// one default-RM session per backend it has dispatched to, and tracks
// every Resource opened through it so Close can tear everything down in
// one pass. The live-set bookkeeping is adapted from the teacher's
// hal.Service mutex-guarded device map (services/hal/hal.go): a single
// mutex over a plain map, no separate locking per entry, since the set
// churns at open/close rate rather than per-I/O rate.
type ResourceManager struct {
	mu sync.Mutex

	cfg backend.Config

	// rms holds one default-RM session per backend name already
	// dispatched to; a resource name's trailing @name selector picks
	// which entry serves it (spec §6 backend selector syntax).
	rms map[string]rmBinding

	open   map[*Resource]struct{}
	closed bool
}

type rmBinding struct {
	be      backend.Backend
	session backend.Session
}

// OpenDefaultRM constructs a ResourceManager with no backend dispatched to
// yet; the first OpenResource call lazily opens whichever backend its
// resource name selects (spec §4.E "the resource manager defers opening a
// backend until first use").
func OpenDefaultRM(cfg backend.Config) (*ResourceManager, error) {
	return &ResourceManager{
		cfg:  cfg,
		rms:  map[string]rmBinding{},
		open: map[*Resource]struct{}{},
	}, nil
}

func (rm *ResourceManager) bindingFor(backendName string) (rmBinding, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	name := backendName
	if name == "" {
		name = backend.DefaultName
	}
	if b, ok := rm.rms[name]; ok {
		return b, nil
	}

	be, err := backend.Open(name, rm.cfg)
	if err != nil {
		return rmBinding{}, err
	}
	session, err := be.OpenDefaultRM()
	if err != nil {
		return rmBinding{}, err
	}
	b := rmBinding{be: be, session: session}
	rm.rms[name] = b
	return b, nil
}

// ListResources returns every resource name the dispatched backend(s)
// currently enumerate that matches pattern (a VISA-style wildcard
// expression); an empty pattern matches everything. Backends that have
// never been dispatched to (no resource opened through them yet) are not
// queried — spec §4.E scopes discovery to backends already in play, same
// as the teacher's registry only iterating already-registered builders.
func (rm *ResourceManager) ListResources(pattern string) ([]string, error) {
	rm.mu.Lock()
	bindings := make([]rmBinding, 0, len(rm.rms))
	for _, b := range rm.rms {
		bindings = append(bindings, b)
	}
	rm.mu.Unlock()

	var names []string
	for _, b := range bindings {
		found, err := b.be.ListResources(b.session, pattern)
		if err != nil {
			return nil, err
		}
		names = append(names, found...)
	}
	sort.Strings(names)
	return names, nil
}

// ListResourcesInfo is ListResources with each match already parsed (spec
// §4.E supplemental).
func (rm *ResourceManager) ListResourcesInfo(pattern string) ([]ResourceInfo, error) {
	names, err := rm.ListResources(pattern)
	if err != nil {
		return nil, err
	}
	infos := make([]ResourceInfo, 0, len(names))
	for _, n := range names {
		bare, alias := backend.SplitSelector(n)
		rec, err := resourcename.Parse(bare)
		if err != nil {
			continue
		}
		infos = append(infos, ResourceInfo{Record: rec, Alias: alias})
	}
	return infos, nil
}

// openOptions carries the optional overrides OpenOption functions apply
// once a resource has been opened and parsed but before it is handed back
// to the caller.
type attrOverride struct {
	id    attr.ID
	value any
}

type openOptions struct {
	classOverride *attr.ResourceClass
	attrOverrides []attrOverride
}

// OpenOption customizes OpenResource beyond the resource name/mode/timeout
// triple (spec §4.E supplemental: some callers need to open against a
// resource class the name grammar alone under- or over-specifies, or seed
// attributes before the resource is used for the first time).
type OpenOption func(*openOptions)

// WithResourceClassOverride replaces the ResourceClass OpenResource parsed
// from the resource name with c, for backends whose name grammar is
// ambiguous about class (spec §2 GLOSSARY "ResourceClass").
func WithResourceClassOverride(c attr.ResourceClass) OpenOption {
	return func(o *openOptions) {
		o.classOverride = &c
	}
}

// WithAttrOverride sets attribute id to value via SetVisaAttribute
// immediately after open, before the resource is returned to the caller.
// Multiple WithAttrOverride options apply in the order given.
func WithAttrOverride(id attr.ID, value any) OpenOption {
	return func(o *openOptions) {
		o.attrOverrides = append(o.attrOverrides, attrOverride{id: id, value: value})
	}
}

// OpenResource parses name, dispatches to the backend its @selector (or
// the default) names, and opens a session (spec §4.E, §6). The returned
// Resource is tracked in the manager's live-set until it is closed
// explicitly or by ResourceManager.Close. opts are applied, in order,
// after the session opens and before the resource is handed back; if any
// option fails to apply the partially-opened resource is closed and the
// error returned rather than handing back a half-configured session.
func (rm *ResourceManager) OpenResource(name string, mode attr.AccessMode, openTimeoutMS int64, opts ...OpenOption) (*Resource, error) {
	rm.mu.Lock()
	if rm.closed {
		rm.mu.Unlock()
		return nil, &visaerr.InvalidSession{Op: "open", Resource: name}
	}
	rm.mu.Unlock()

	bare, selector := backend.SplitSelector(name)
	rec, err := resourcename.Parse(bare)
	if err != nil {
		return nil, err
	}

	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.classOverride != nil {
		rec.ResourceClass = *o.classOverride
	}

	b, err := rm.bindingFor(selector)
	if err != nil {
		return nil, err
	}

	session, status, err := b.be.Open(b.session, bare, mode, openTimeoutMS)
	if err != nil {
		return nil, err
	}

	res := newResource(rm, b.be, session, rec, name)
	res.recordStatus(status)

	for _, a := range o.attrOverrides {
		if err := res.SetVisaAttribute(a.id, a.value); err != nil {
			res.backend.Close(res.session)
			return nil, err
		}
	}

	rm.mu.Lock()
	rm.open[res] = struct{}{}
	rm.mu.Unlock()

	return res, nil
}

// ListOpenedResources returns every Resource currently tracked as open
// (spec §4.E supplemental, used by the REPL-style inspection tooling).
func (rm *ResourceManager) ListOpenedResources() []*Resource {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	out := make([]*Resource, 0, len(rm.open))
	for r := range rm.open {
		out = append(out, r)
	}
	return out
}

// forget removes r from the live-set; called by Resource.Close, never
// directly.
func (rm *ResourceManager) forget(r *Resource) {
	rm.mu.Lock()
	delete(rm.open, r)
	rm.mu.Unlock()
}

// Close closes every resource still open through rm, then every
// dispatched backend's default-RM session (spec §8 law: closing the
// resource manager invalidates every session opened through it). It is
// idempotent.
func (rm *ResourceManager) Close() error {
	rm.mu.Lock()
	if rm.closed {
		rm.mu.Unlock()
		return nil
	}
	rm.closed = true
	open := make([]*Resource, 0, len(rm.open))
	for r := range rm.open {
		open = append(open, r)
	}
	bindings := make([]rmBinding, 0, len(rm.rms))
	for _, b := range rm.rms {
		bindings = append(bindings, b)
	}
	rm.mu.Unlock()

	var first error
	for _, r := range open {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, b := range bindings {
		if err := b.be.Close(b.session); err != nil && first == nil {
			first = err
		}
	}
	return first
}
