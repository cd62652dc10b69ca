// Package probe is an in-process fake backend.Backend, registered under
// the name "probe" the same way every real backend registers itself
// (spec §4.D selection by trailing @name). It exists so visa package
// tests can exercise the resource/event/I-O machinery without a real
// foreign VISA library or physical bus, the same role the teacher's
// device builders play for services/hal tests — a Build-time-registered,
// fully in-memory stand-in wired through the same registration path as
// the production implementation (services/hal/devices/led/builder.go).
package probe

import (
	"sync"
	"time"

	"govisa/attr"
	"govisa/backend"
	"govisa/visaerr"
)

func init() {
	backend.Register("probe", Open)
}

// Script lets a test script canned responses keyed by the exact message a
// Write call sent, and queue events for WaitOnEvent to deliver.
type Script struct {
	mu        sync.Mutex
	responses map[string]string
	events    []backend.WaitResult
	attrs     map[attr.ID]any
}

func NewScript() *Script {
	return &Script{responses: map[string]string{}, attrs: map[attr.ID]any{}}
}

func (s *Script) OnWrite(request, response string) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[request] = response
	return s
}

func (s *Script) QueueEvent(ev backend.WaitResult) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s
}

func (s *Script) SetAttr(id attr.ID, v any) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[id] = v
	return s
}

// binding is the backend.Backend implementation; each Open serves the
// Script registered via Register under the resource name being opened (a
// fresh empty Script if none is), so a test can script a resource before
// opening it.
type binding struct {
	mu       sync.Mutex
	sessions map[backend.Session]*session
	nextID   backend.Session
}

type session struct {
	script  *Script
	pending []byte // bytes staged by the last Write, consumed by the next Read
	closed  bool
}

var (
	registryMu sync.Mutex
	scripts    = map[string]*Script{}
)

// Register makes script the one served to sessions opened on resource
// name, given without the backend selector (e.g. "GPIB0::1::INSTR" for a
// resource opened as "GPIB0::1::INSTR@probe").
func Register(name string, script *Script) {
	registryMu.Lock()
	defer registryMu.Unlock()
	scripts[name] = script
}

func lookup(name string) *Script {
	registryMu.Lock()
	defer registryMu.Unlock()
	if s, ok := scripts[name]; ok {
		return s
	}
	return NewScript()
}

func Open(cfg backend.Config) (backend.Backend, error) {
	return &binding{sessions: map[backend.Session]*session{}}, nil
}

func (b *binding) OpenDefaultRM() (backend.Session, error) {
	return b.newSession(NewScript()), nil
}

func (b *binding) newSession(s *Script) backend.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.sessions[id] = &session{script: s}
	return id
}

func (b *binding) get(id backend.Session) (*session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[id]
	if !ok || s.closed {
		return nil, &visaerr.InvalidSession{Op: "probe", Session: uint64(id)}
	}
	return s, nil
}

func (b *binding) Open(rm backend.Session, resourceName string, mode attr.AccessMode, openTimeoutMS int64) (backend.Session, attr.Status, error) {
	script := lookup(resourceName)
	return b.newSession(script), attr.StatusSuccess, nil
}

func (b *binding) Close(id backend.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[id]; ok {
		s.closed = true
	}
	return nil
}

func (b *binding) ListResources(rm backend.Session, pattern string) ([]string, error) {
	return nil, nil
}

func (b *binding) GetAttr(id backend.Session, attrID attr.ID) (any, error) {
	s, err := b.get(id)
	if err != nil {
		return nil, err
	}
	s.script.mu.Lock()
	defer s.script.mu.Unlock()
	if v, ok := s.script.attrs[attrID]; ok {
		return v, nil
	}
	d, ok := attr.Lookup(attrID)
	if !ok {
		return nil, &visaerr.UnsupportedOperation{Op: "get_attr", ResourceKind: "probe"}
	}
	return d.Default, nil
}

func (b *binding) SetAttr(id backend.Session, attrID attr.ID, value any) error {
	s, err := b.get(id)
	if err != nil {
		return err
	}
	s.script.mu.Lock()
	defer s.script.mu.Unlock()
	s.script.attrs[attrID] = value
	return nil
}

func (b *binding) Lock(id backend.Session, kind attr.LockKind, timeoutMS int64, requestedKey string) (string, error) {
	return "probe-key", nil
}

func (b *binding) Unlock(id backend.Session) error { return nil }

func (b *binding) Read(id backend.Session, count int) ([]byte, attr.Status, error) {
	s, err := b.get(id)
	if err != nil {
		return nil, attr.StatusSuccess, err
	}
	if len(s.pending) == 0 {
		return nil, attr.StatusSuccess, nil
	}
	n := count
	if n > len(s.pending) {
		n = len(s.pending)
	}
	out := s.pending[:n]
	s.pending = s.pending[n:]
	return out, attr.StatusSuccess, nil
}

func (b *binding) Write(id backend.Session, data []byte) (int, attr.Status, error) {
	s, err := b.get(id)
	if err != nil {
		return 0, attr.StatusSuccess, err
	}
	s.script.mu.Lock()
	resp, ok := s.script.responses[string(data)]
	s.script.mu.Unlock()
	if ok {
		s.pending = append(s.pending, []byte(resp)...)
	}
	return len(data), attr.StatusSuccess, nil
}

func (b *binding) EnableEvent(id backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	_, err := b.get(id)
	return err
}

func (b *binding) DisableEvent(id backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	_, err := b.get(id)
	return err
}

func (b *binding) DiscardEvents(id backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	_, err := b.get(id)
	return err
}

func (b *binding) WaitOnEvent(id backend.Session, eventType attr.EventType, timeoutMS int64) (backend.WaitResult, error) {
	s, err := b.get(id)
	if err != nil {
		return backend.WaitResult{}, err
	}
	s.script.mu.Lock()
	for i, ev := range s.script.events {
		if ev.EventType == eventType {
			s.script.events = append(s.script.events[:i], s.script.events[i+1:]...)
			s.script.mu.Unlock()
			return ev, nil
		}
	}
	s.script.mu.Unlock()
	if timeoutMS > 0 {
		time.Sleep(time.Duration(timeoutMS) * time.Millisecond)
	}
	return backend.WaitResult{EventType: eventType, TimedOut: true}, nil
}

func (b *binding) InstallHandler(id backend.Session, eventType attr.EventType, cb backend.EventCallback, userHandle uintptr) (backend.HandlerHandle, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "install_handler", ResourceKind: "probe"}
}

func (b *binding) UninstallHandler(id backend.Session, eventType attr.EventType, handle backend.HandlerHandle) error {
	return nil
}

func (b *binding) AssertTrigger(id backend.Session, protocol int) error {
	_, err := b.get(id)
	return err
}

func (b *binding) Clear(id backend.Session) error {
	s, err := b.get(id)
	if err != nil {
		return err
	}
	s.pending = nil
	return nil
}

func (b *binding) ReadSTB(id backend.Session) (byte, error) {
	_, err := b.get(id)
	return 0, err
}

func (b *binding) GPIBCommand(id backend.Session, cmd []byte) (int, error) {
	return len(cmd), nil
}

func (b *binding) GPIBControlREN(id backend.Session, mode int) error { return nil }

func (b *binding) Flush(id backend.Session, mask int) error { return nil }

func (b *binding) USBControlIn(id backend.Session, request, value, index, length int) ([]byte, error) {
	return make([]byte, length), nil
}

func (b *binding) USBControlOut(id backend.Session, request, value, index int, data []byte) error {
	return nil
}

func (b *binding) Peek8(id backend.Session, address uintptr) (uint8, error)   { return 0, nil }
func (b *binding) Peek16(id backend.Session, address uintptr) (uint16, error) { return 0, nil }
func (b *binding) Peek32(id backend.Session, address uintptr) (uint32, error) { return 0, nil }
func (b *binding) Peek64(id backend.Session, address uintptr) (uint64, error) { return 0, nil }
func (b *binding) Poke8(id backend.Session, address uintptr, value uint8) error   { return nil }
func (b *binding) Poke16(id backend.Session, address uintptr, value uint16) error { return nil }
func (b *binding) Poke32(id backend.Session, address uintptr, value uint32) error { return nil }
func (b *binding) Poke64(id backend.Session, address uintptr, value uint64) error { return nil }
