package visa

import (
	"strings"
	"time"

	"govisa/attr"
	"govisa/visaerr"
)

// Monitor observes the progress of a chunked read, invoked after each
// backend read with the number of bytes that chunk added (spec §4.G
// read_bytes "invoke the optional monitoring object after each backend
// read"). A nil Monitor is a valid no-op.
type Monitor interface {
	Update(deltaBytes int)
}

// MonitorFunc adapts a plain function to Monitor.
type MonitorFunc func(deltaBytes int)

func (f MonitorFunc) Update(deltaBytes int) { f(deltaBytes) }

func notify(m Monitor, n int) {
	if m != nil && n > 0 {
		m.Update(n)
	}
}

// ReadBytes reads exactly count bytes in chunks of at most chunkSize
// (resource.ChunkSize() if chunkSize<=0), unless the backend reports a
// short read or a fatal error first (spec §4.G read_bytes). When
// breakOnTermchar is true, VI_ATTR_TERMCHAR_EN is asserted for the
// duration of the read so the backend stops the first chunk that contains
// the termination character, and the previous setting is restored
// afterward regardless of outcome. monitor, if non-nil, is invoked with
// the size of each chunk as it arrives.
func (r *Resource) ReadBytes(count int, chunkSize int, breakOnTermchar bool, monitor Monitor) (out []byte, err error) {
	err = r.withLock("read_bytes", func() error {
		if chunkSize <= 0 {
			chunkSize = r.chunkSize
		}
		if breakOnTermchar {
			restore, e := r.enableTermCharLocked()
			if e != nil {
				return e
			}
			defer restore()
		}
		buf := make([]byte, 0, count)
		for len(buf) < count {
			want := count - len(buf)
			if want > chunkSize {
				want = chunkSize
			}
			b, status, e := r.backend.Read(r.session, want)
			r.recordStatus(status)
			if e != nil {
				out = buf
				return &visaerr.IOError{Op: "read_bytes", Resource: r.name, Status: int32(status), Bytes: len(buf)}
			}
			buf = append(buf, b...)
			notify(monitor, len(b))
			if len(b) < want {
				// Legitimate short read (e.g. termination char mid-chunk);
				// caller sees exactly what arrived plus the shortfall in
				// last_status.
				break
			}
		}
		out = buf
		return nil
	})
	return
}

// enableTermCharLocked temporarily sets VI_ATTR_TERMCHAR_EN so the backend
// terminates the next read on the first termination character, returning a
// restore func that puts the attribute back the way it was. The caller
// must already hold r.mu.
func (r *Resource) enableTermCharLocked() (restore func(), err error) {
	prevEnabled, _ := r.backend.GetAttr(r.session, attr.AttrTermCharEnabled)
	if e := r.backend.SetAttr(r.session, attr.AttrTermCharEnabled, true); e != nil {
		return nil, e
	}
	return func() {
		_ = r.backend.SetAttr(r.session, attr.AttrTermCharEnabled, prevEnabled)
	}, nil
}

// ReadRaw returns exactly what the backend hands back from a single read of
// up to chunkSize bytes, with no termination detection, decoding, or
// looping applied — the read-side counterpart of WriteRaw (spec §4.F
// MessageBased.read_raw).
func (r *Resource) ReadRaw() (out []byte, err error) {
	err = r.withLock("read_raw", func() error {
		b, status, e := r.backend.Read(r.session, r.chunkSize)
		r.recordStatus(status)
		if e != nil {
			return &visaerr.IOError{Op: "read_raw", Resource: r.name, Status: int32(status), Bytes: len(b)}
		}
		out = b
		return nil
	})
	return
}

// Read reads chunk by chunk until termination is seen (stripped from the
// result) or, if termination is empty, reads exactly one chunk (spec
// §4.G read).
func (r *Resource) Read() (text string, err error) {
	err = r.withLock("read", func() error {
		term := r.readTermination
		if term == "" {
			b, status, e := r.backend.Read(r.session, r.chunkSize)
			r.recordStatus(status)
			if e != nil {
				return &visaerr.IOError{Op: "read", Resource: r.name, Status: int32(status), Bytes: len(b)}
			}
			var decodeErr error
			text, decodeErr = decodeText(b, r.encoding)
			return decodeErr
		}

		var buf []byte
		for {
			b, status, e := r.backend.Read(r.session, r.chunkSize)
			r.recordStatus(status)
			if e != nil {
				return &visaerr.IOError{Op: "read", Resource: r.name, Status: int32(status), Bytes: len(buf)}
			}
			buf = append(buf, b...)
			if idx := strings.Index(string(buf), term); idx >= 0 {
				var decodeErr error
				text, decodeErr = decodeText(buf[:idx], r.encoding)
				return decodeErr
			}
			if len(b) == 0 {
				var decodeErr error
				text, decodeErr = decodeText(buf, r.encoding)
				return decodeErr
			}
		}
	})
	return
}

func decodeText(b []byte, encoding string) (string, error) {
	if encoding == "" || encoding == "ascii" || encoding == "utf-8" || encoding == "utf8" {
		return string(b), nil
	}
	return "", &visaerr.EncodingError{Encoding: encoding, Offset: 0}
}

// Write appends termination exactly once and sends message, failing if
// message already ends with a non-empty termination (spec §4.G write,
// "prevent double-termination").
func (r *Resource) Write(message string) (n int, err error) {
	err = r.withLock("write", func() error {
		if r.writeTermination != "" && strings.HasSuffix(message, r.writeTermination) {
			return &visaerr.ProtocolError{Reason: "message already ends with the write termination"}
		}
		var e error
		n, e = r.writeRaw([]byte(message + r.writeTermination))
		return e
	})
	return
}

// WriteRaw sends data unmodified, with no termination handling.
func (r *Resource) WriteRaw(data []byte) (n int, err error) {
	err = r.withLock("write_raw", func() error {
		var e error
		n, e = r.writeRaw(data)
		return e
	})
	return
}

// writeRaw performs the actual backend write; the caller must already hold
// r.mu.
func (r *Resource) writeRaw(data []byte) (int, error) {
	n, status, err := r.backend.Write(r.session, data)
	r.recordStatus(status)
	if err != nil {
		return n, &visaerr.IOError{Op: "write", Resource: r.name, Status: int32(status), Bytes: n}
	}
	return n, nil
}

// Query writes command, waits QueryDelay() seconds if positive, then reads
// the response (spec §4.G query). Errors from either leg propagate. Write
// and Read each serialize themselves; a concurrent Close between the two
// legs surfaces as InvalidSession from the Read leg rather than a race.
func (r *Resource) Query(command string) (string, error) {
	if _, err := r.Write(command); err != nil {
		return "", err
	}
	if r.queryDelaySecs > 0 {
		time.Sleep(time.Duration(r.queryDelaySecs * float64(time.Second)))
	}
	return r.Read()
}

// Clear issues a device clear (spec §4.F MessageBased.clear).
func (r *Resource) Clear() error {
	return r.withLock("clear", func() error {
		return r.backend.Clear(r.session)
	})
}

// Flush discards buffered I/O per mask (spec §4.F MessageBased.flush).
func (r *Resource) Flush(mask int) error {
	return r.withLock("flush", func() error {
		return r.backend.Flush(r.session, mask)
	})
}

// ReadSTB reads the instrument's status byte (spec §4.F MessageBased.read_stb).
func (r *Resource) ReadSTB() (stb byte, err error) {
	err = r.withLock("read_stb", func() error {
		var e error
		stb, e = r.backend.ReadSTB(r.session)
		return e
	})
	return
}

// AssertTrigger issues a bus trigger with the given protocol selector
// (spec §4.F GPIBInstrument.trigger and the generic trigger capability).
func (r *Resource) AssertTrigger(protocol int) error {
	return r.withLock("assert_trigger", func() error {
		return r.backend.AssertTrigger(r.session, protocol)
	})
}

// WaitForSRQ blocks until a service-request event fires or timeoutMS
// elapses (spec §4.F GPIBInstrument.wait_for_srq), a thin convenience over
// the generic event machinery for the one event type GPIB instruments
// actually raise this way.
func (r *Resource) WaitForSRQ(timeoutMS int64) (WaitResponse, error) {
	return r.WaitOnEvent(attr.EventServiceRequest, timeoutMS)
}
