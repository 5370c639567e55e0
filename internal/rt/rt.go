// Package rt is the Go-native runtime support the interpreter backend
// (internal/ir) links against instead of the C runtime.c + Boehm GC the
// AOT pipeline (cmd/namlc's "build"/"run" path) shells out to clang/llc
// for. Every heap object type here mirrors one of internal/runtimeabi's
// categories - string, slice, hashmap, channel, the exception slot - so
// the interpreter's behavior matches what compiled code would observe.
package rt

import (
	"fmt"
	"sync/atomic"
)

// RefCounted is implemented by every heap object the generator's
// Incref/Decref statements (internal/mir's Incref/Decref) can target.
// Go's own GC owns the actual memory; these counts exist so the
// interpreter can report the same double-free/use-after-decref class of
// bugs compiled code would hit, instead of silently tolerating them.
type RefCounted interface {
	Incref()
	Decref() bool // reports whether this decref dropped the count to zero
}

// Incref bumps v's reference count if it is heap-allocated; a no-op for
// plain values (ints, bools, doubles) that the language passes by value.
func Incref(v interface{}) {
	if rc, ok := v.(RefCounted); ok {
		rc.Incref()
	}
}

// Decref drops v's reference count if it is heap-allocated.
func Decref(v interface{}) {
	if rc, ok := v.(RefCounted); ok {
		rc.Decref()
	}
}

// String is a reference-counted heap string, the interpreter's analogue of
// runtime_string_new's %String*.
type String struct {
	refs int32
	Data string
}

func NewString(s string) *String { return &String{refs: 1, Data: s} }

func (s *String) Incref()      { atomic.AddInt32(&s.refs, 1) }
func (s *String) Decref() bool { return atomic.AddInt32(&s.refs, -1) == 0 }

func (s *String) Concat(o *String) *String { return NewString(s.Data + o.Data) }
func (s *String) Equal(o *String) bool     { return s.Data == o.Data }

// Slice is a reference-counted growable array, the interpreter's analogue
// of runtime_slice_* / %Slice*.
type Slice struct {
	refs int32
	elems []interface{}
}

func NewSlice(capacity int64) *Slice {
	return &Slice{refs: 1, elems: make([]interface{}, 0, capacity)}
}

func (s *Slice) Incref()      { atomic.AddInt32(&s.refs, 1) }
func (s *Slice) Decref() bool { return atomic.AddInt32(&s.refs, -1) == 0 }

func (s *Slice) Push(v interface{}) { s.elems = append(s.elems, v) }
func (s *Slice) Len() int64         { return int64(len(s.elems)) }
func (s *Slice) IsEmpty() bool      { return len(s.elems) == 0 }
func (s *Slice) Cap() int64         { return int64(cap(s.elems)) }
func (s *Slice) Clear()             { s.elems = s.elems[:0] }

func (s *Slice) Get(i int64) (interface{}, error) {
	if i < 0 || i >= int64(len(s.elems)) {
		return nil, fmt.Errorf("slice index %d out of range (len %d)", i, len(s.elems))
	}
	return s.elems[i], nil
}

func (s *Slice) Set(i int64, v interface{}) error {
	if i < 0 || i >= int64(len(s.elems)) {
		return fmt.Errorf("slice index %d out of range (len %d)", i, len(s.elems))
	}
	s.elems[i] = v
	return nil
}

func (s *Slice) Pop() (interface{}, error) {
	if len(s.elems) == 0 {
		return nil, fmt.Errorf("pop from empty slice")
	}
	last := s.elems[len(s.elems)-1]
	s.elems = s.elems[:len(s.elems)-1]
	return last, nil
}

func (s *Slice) Remove(i int64) error {
	if i < 0 || i >= int64(len(s.elems)) {
		return fmt.Errorf("slice index %d out of range (len %d)", i, len(s.elems))
	}
	s.elems = append(s.elems[:i], s.elems[i+1:]...)
	return nil
}

func (s *Slice) Insert(i int64, v interface{}) error {
	if i < 0 || i > int64(len(s.elems)) {
		return fmt.Errorf("slice index %d out of range (len %d)", i, len(s.elems))
	}
	s.elems = append(s.elems, nil)
	copy(s.elems[i+1:], s.elems[i:])
	s.elems[i] = v
	return nil
}

func (s *Slice) Subslice(lo, hi int64) (*Slice, error) {
	if lo < 0 || hi > int64(len(s.elems)) || lo > hi {
		return nil, fmt.Errorf("invalid subslice range [%d:%d] (len %d)", lo, hi, len(s.elems))
	}
	sub := NewSlice(hi - lo)
	sub.elems = append(sub.elems, s.elems[lo:hi]...)
	return sub, nil
}

// HashMap is a reference-counted string-keyed map, the interpreter's
// analogue of runtime_hashmap_* / %HashMap*.
type HashMap struct {
	refs int32
	m    map[string]interface{}
}

func NewHashMap() *HashMap { return &HashMap{refs: 1, m: make(map[string]interface{})} }

func (h *HashMap) Incref()      { atomic.AddInt32(&h.refs, 1) }
func (h *HashMap) Decref() bool { return atomic.AddInt32(&h.refs, -1) == 0 }

func (h *HashMap) Put(key string, v interface{}) { h.m[key] = v }
func (h *HashMap) Len() int64                     { return int64(len(h.m)) }
func (h *HashMap) IsEmpty() bool                  { return len(h.m) == 0 }
func (h *HashMap) ContainsKey(key string) bool    { _, ok := h.m[key]; return ok }

func (h *HashMap) Get(key string) (interface{}, error) {
	v, ok := h.m[key]
	if !ok {
		return nil, fmt.Errorf("key %q not found", key)
	}
	return v, nil
}

// Channel wraps a Go channel, the interpreter's analogue of
// runtime_channel_* / %Channel*. Legions (see internal/ir) are ordinary
// goroutines, so this needs no extra synchronization beyond what the Go
// channel already provides.
type Channel struct {
	ch     chan interface{}
	closed int32
}

func NewChannel(capacity int64) *Channel {
	return &Channel{ch: make(chan interface{}, capacity)}
}

func (c *Channel) Send(v interface{}) { c.ch <- v }

func (c *Channel) Recv() (interface{}, error) {
	v, ok := <-c.ch
	if !ok {
		return nil, fmt.Errorf("receive on closed channel")
	}
	return v, nil
}

func (c *Channel) TrySend(v interface{}) bool {
	select {
	case c.ch <- v:
		return true
	default:
		return false
	}
}

func (c *Channel) TryRecv() (interface{}, bool) {
	select {
	case v, ok := <-c.ch:
		if !ok {
			return nil, false
		}
		return v, true
	default:
		return nil, false
	}
}

func (c *Channel) Close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		close(c.ch)
	}
}

func (c *Channel) IsClosed() bool { return atomic.LoadInt32(&c.closed) != 0 }

// ExceptionSlot mirrors the thread-local slot runtime_exception_set_typed /
// _check / _clear / _get_type_id expose to compiled code. The interpreter
// gives each legion its own slot (a goroutine isn't an OS thread, so there
// is no real thread-local storage to piggyback on).
type ExceptionSlot struct {
	pending bool
	typeID  int32
	Value   interface{}
}

func NewExceptionSlot() *ExceptionSlot { return &ExceptionSlot{} }

func (s *ExceptionSlot) Set(typeID int32, value interface{}) {
	s.pending = true
	s.typeID = typeID
	s.Value = value
}

func (s *ExceptionSlot) Check() bool   { return s.pending }
func (s *ExceptionSlot) TypeID() int32 { return s.typeID }

func (s *ExceptionSlot) Clear() {
	s.pending = false
	s.Value = nil
}

// Println renders v the way the matching runtime_println_* variant would.
func Println(v interface{}) {
	switch val := v.(type) {
	case *String:
		fmt.Println(val.Data)
	case nil:
		fmt.Println()
	default:
		fmt.Println(val)
	}
}
