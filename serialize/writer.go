/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package serialize

import (
	"encoding/binary"
	"io"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dirpx.dev/rtti/apis"
	"dirpx.dev/rtti/config"
	"dirpx.dev/rtti/iter"
	"dirpx.dev/rtti/meta"
	"dirpx.dev/rtti/object"
)

// MarkerSize is the encoded size of a {type id, count} marker.
const MarkerSize = 8

// Status is the state a Step leaves the Writer in.
type Status uint8

const (
	// Finished means the whole graph has been written.
	Finished Status = iota
	// MoreSpaceNeeded means the destination is full; call Step again.
	MoreSpaceNeeded
)

func (s Status) String() string {
	switch s {
	case Finished:
		return "finished"
	case MoreSpaceNeeded:
		return "more-space-needed"
	default:
		return "unknown"
	}
}

// Writer serializes one object graph into caller-provided buffers.
//
// Every marker, scalar payload and marker+payload pair is a unit.
// Units are written whole or not at all, unless a single unit is larger than
// an empty destination and splitting is enabled, in which case it is carried
// over several steps. The walk keeps an explicit frame stack, so any Step may
// be followed by another at a later time as long as the graph stays valid.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	reg   apis.Registry
	cfg   apis.Config
	split *bool
	log   *zap.Logger
	id    uuid.UUID

	root    object.Ptr
	started bool
	stack   []*frame

	// unit holds the bytes of the current unit; off counts those already emitted.
	unit []byte
	off  int

	written  int64
	finished bool
	err      error
}

// NewWriter returns a Writer over the graph rooted at root. The root's final
// type and everything reachable from it are registered with reg.
func NewWriter(reg apis.Registry, root object.Ptr, opts ...Option) (*Writer, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	if root.IsEmpty() || root.IsNil() {
		return nil, ErrNilObject
	}
	if root.Type().IsPointer() {
		return nil, errors.Wrapf(ErrPointerSerialization, "root of type %s", root.Type())
	}
	if _, err := reg.Register(root.Type().FinalType()); err != nil {
		return nil, err
	}
	w := &Writer{
		reg:  reg,
		cfg:  config.DefaultConfig(),
		log:  zap.NewNop(),
		id:   uuid.New(),
		root: root,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With(zap.Stringer("session", w.id))
	w.log.Debug("serialization started", zap.String("root", root.Type().String()))
	return w, nil
}

// ID returns the session id used in log entries.
func (w *Writer) ID() uuid.UUID { return w.id }

// Written returns the number of bytes emitted so far.
func (w *Writer) Written() int64 { return w.written }

func (w *Writer) splitUnits() bool {
	if w.split != nil {
		return *w.split
	}
	return w.cfg.SplitUnits
}

// Step writes as many whole units into dst as fit and reports how many bytes
// were written. MoreSpaceNeeded is not an error: drain dst and call Step
// again. Any error other than ErrBufferTooSmall is fatal and repeated by
// every later call. ErrBufferTooSmall leaves the state untouched so a larger
// destination can be offered.
func (w *Writer) Step(dst []byte) (int, Status, error) {
	if w.err != nil {
		return 0, MoreSpaceNeeded, w.err
	}
	if w.finished {
		return 0, Finished, nil
	}
	n := 0
	for {
		if w.unit == nil {
			unit, ok, err := w.next()
			if err != nil {
				w.fail(err)
				return n, MoreSpaceNeeded, err
			}
			if !ok {
				w.finish()
				return n, Finished, nil
			}
			w.unit, w.off = unit, 0
		}
		rest := w.unit[w.off:]
		room := len(dst) - n
		switch {
		case len(rest) <= room:
			n += copy(dst[n:], rest)
			w.written += int64(len(rest))
			w.unit, w.off = nil, 0
			continue
		case w.off == 0 && (n > 0 || room == 0):
			// The unit stays staged for the next destination.
		case w.off == 0 && !w.splitUnits():
			return n, MoreSpaceNeeded, errors.Wrapf(ErrBufferTooSmall, "unit of %d bytes, destination of %d", len(w.unit), room)
		default:
			c := copy(dst[n:], rest)
			n += c
			w.off += c
			w.written += int64(c)
		}
		return n, MoreSpaceNeeded, nil
	}
}

// WriteTo drains the whole graph into out through a buffer of
// StepBufferSize bytes. It implements io.WriterTo.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	buf := make([]byte, w.cfg.StepBufferSize)
	var total int64
	for {
		n, st, err := w.Step(buf)
		if n > 0 {
			m, werr := out.Write(buf[:n])
			total += int64(m)
			if werr != nil {
				return total, werr
			}
		}
		if err != nil {
			return total, err
		}
		if st == Finished {
			return total, nil
		}
	}
}

// Close releases open iterators and materialized values. Closing a Writer
// that has not finished abandons the serialization.
func (w *Writer) Close() error {
	for _, f := range w.stack {
		f.close()
	}
	w.stack = nil
	w.unit = nil
	if !w.finished && w.err == nil {
		w.err = ErrClosed
	}
	return nil
}

func (w *Writer) fail(err error) {
	w.err = err
	for _, f := range w.stack {
		f.close()
	}
	w.stack = nil
	w.log.Warn("serialization aborted", zap.String("written", humanize.Bytes(uint64(w.written))), zap.Error(err))
}

func (w *Writer) finish() {
	w.finished = true
	w.log.Debug("serialization finished",
		zap.Int64("bytes", w.written), zap.String("written", humanize.Bytes(uint64(w.written))))
}

// next advances the walk to the next unit. It returns false once the frame
// stack is empty.
func (w *Writer) next() ([]byte, bool, error) {
	if !w.started {
		w.started = true
		d := w.root.Type().FinalType()
		if d.IsScalar() {
			return w.scalar(d, w.root.Addr(), true)
		}
		w.push(newFrame(d, w.root.Addr(), nil))
	}
	for len(w.stack) > 0 {
		f := w.stack[len(w.stack)-1]
		if !f.propsDone {
			if f.props.Next() {
				return w.property(f)
			}
			f.propsDone = true
		}
		if f.container() {
			if f.elems == nil {
				u, err := iter.NewUniversal(f.desc, f.obj)
				if err != nil {
					return nil, false, err
				}
				f.elems = u
			}
			if !f.elems.Done() {
				cur := f.elems.Current()
				f.elems.Advance()
				return w.element(cur)
			}
		}
		f.close()
		w.stack = w.stack[:len(w.stack)-1]
	}
	return nil, false, nil
}

func (w *Writer) push(f *frame) {
	w.stack = append(w.stack, f)
}

func (w *Writer) property(f *frame) ([]byte, bool, error) {
	p := f.props.Property()
	typ := p.Type()
	if typ.IsPointer() {
		return nil, false, errors.Wrapf(ErrPointerSerialization, "property %s.%s of type %s", f.props.Owner().Name(), p.Name(), typ)
	}
	d := typ.FinalType()

	var (
		addr  unsafe.Pointer
		owned *object.Value
	)
	if p.InPlace() {
		addr = f.props.Value().Addr()
	} else {
		v, err := object.NewValue(typ)
		if err != nil {
			return nil, false, errors.Wrapf(err, "property %s.%s", f.props.Owner().Name(), p.Name())
		}
		if err := p.Get(f.props.Object(), v.Addr()); err != nil {
			v.Reset()
			return nil, false, err
		}
		addr, owned = v.Addr(), v
	}

	if d.IsScalar() {
		unit, ok, err := w.scalar(d, addr, false)
		if owned != nil {
			owned.Reset()
		}
		return unit, ok, err
	}
	unit, err := w.marker(d)
	if err != nil {
		if owned != nil {
			owned.Reset()
		}
		return nil, false, err
	}
	w.push(newFrame(d, addr, owned))
	return unit, true, nil
}

func (w *Writer) element(cur object.Ptr) ([]byte, bool, error) {
	typ := cur.Type()
	if typ.IsPointer() {
		return nil, false, errors.Wrapf(ErrPointerSerialization, "element of type %s", typ)
	}
	d := typ.FinalType()
	if d.IsScalar() {
		return w.scalar(d, cur.Addr(), true)
	}
	unit, err := w.marker(d)
	if err != nil {
		return nil, false, err
	}
	w.push(newFrame(d, cur.Addr(), nil))
	return unit, true, nil
}

// scalar encodes the raw bytes of a scalar, preceded by a marker if marked.
func (w *Writer) scalar(d *meta.Descriptor, addr unsafe.Pointer, marked bool) ([]byte, bool, error) {
	size := int(d.Size())
	var unit []byte
	if marked {
		m, err := w.marker(d)
		if err != nil {
			return nil, false, err
		}
		unit = append(m, make([]byte, size)...)
	} else {
		unit = make([]byte, size)
	}
	if size > 0 {
		copy(unit[len(unit)-size:], unsafe.Slice((*byte)(addr), size))
	}
	return unit, true, nil
}

func (w *Writer) marker(d *meta.Descriptor) ([]byte, error) {
	id, err := w.reg.Register(d)
	if err != nil {
		return nil, errors.Wrapf(err, "type id of %s", d.Name())
	}
	m := make([]byte, MarkerSize, MarkerSize+int(d.Size()))
	binary.NativeEndian.PutUint32(m[0:4], id)
	binary.NativeEndian.PutUint32(m[4:8], 1)
	return m, nil
}
