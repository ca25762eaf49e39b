// Package eventlog implements the engine's event-log reporter (spec
// §6): durable, replayable segment files of every emitted event.
package eventlog

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/nmxmxh/necsim/internal/errs"
	"github.com/nmxmxh/necsim/internal/event"
	"github.com/nmxmxh/necsim/internal/lineage"
)

const (
	magic       = "NCSEVLG1"
	fieldKind   = 1
	fieldGlobal = 2
	fieldOX     = 3
	fieldOY     = 4
	fieldOIdx   = 5
	fieldTX     = 6
	fieldTY     = 7
	fieldTIdx   = 8
	fieldInter  = 9
	fieldParent = 10
	fieldPrior  = 11
	fieldAt     = 12
)

// Writer appends length-prefixed, protowire-encoded events to a segment
// file, writing a fixed header once on creation.
type Writer struct {
	f      *os.File
	buf    *bufio.Writer
	RunID  uuid.UUID
}

// Create opens path for writing, truncating any existing content, and
// writes the segment header: the magic string followed by a fresh
// run ID. The run ID lets a resumed run (internal/restart) confirm a
// set of segment files all belong to the same checkpoint lineage
// rather than a stale or foreign one.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "creating event log segment")
	}
	runID := uuid.New()
	if _, err := f.WriteString(magic); err != nil {
		f.Close()
		return nil, errs.Wrap(errs.Configuration, err, "writing event log header")
	}
	idBytes, _ := runID.MarshalBinary()
	if _, err := f.Write(idBytes); err != nil {
		f.Close()
		return nil, errs.Wrap(errs.Configuration, err, "writing event log run id")
	}
	return &Writer{f: f, buf: bufio.NewWriter(f), RunID: runID}, nil
}

func encodeEvent(e event.Event) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Kind))
	b = protowire.AppendTag(b, fieldGlobal, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.GlobalLineage))
	b = protowire.AppendTag(b, fieldOX, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Origin.X))
	b = protowire.AppendTag(b, fieldOY, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Origin.Y))
	b = protowire.AppendTag(b, fieldOIdx, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Origin.Index))

	if e.Kind == event.KindDispersal {
		b = protowire.AppendTag(b, fieldTX, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Target.X))
		b = protowire.AppendTag(b, fieldTY, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Target.Y))
		b = protowire.AppendTag(b, fieldTIdx, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Target.Index))
		b = protowire.AppendTag(b, fieldInter, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Interaction.Tag))
		if e.Interaction.Tag == event.InteractionCoalescence {
			b = protowire.AppendTag(b, fieldParent, protowire.VarintType)
			b = protowire.AppendVarint(b, uint64(e.Interaction.Parent))
		}
	}

	b = protowire.AppendTag(b, fieldPrior, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, uint64(int64(e.PriorTime*1e9)))
	b = protowire.AppendTag(b, fieldAt, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, uint64(int64(e.EventTime*1e9)))
	return b
}

// Append writes one event as a 4-byte length prefix followed by its
// protowire encoding.
func (w *Writer) Append(e event.Event) error {
	payload := encodeEvent(e)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.buf.Write(lenBuf[:]); err != nil {
		return errs.Wrap(errs.Simulation, err, "writing event log record length")
	}
	if _, err := w.buf.Write(payload); err != nil {
		return errs.Wrap(errs.Simulation, err, "writing event log record")
	}
	return nil
}

func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		return errs.Wrap(errs.Simulation, err, "flushing event log")
	}
	return w.f.Close()
}

// Reader replays a segment file written by Writer, used both by the
// "resume" path (replaying committed events to rebuild state) and by
// offline analysis tools.
type Reader struct {
	f     *os.File
	r     *bufio.Reader
	RunID uuid.UUID
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.Resume, err, "opening event log segment")
	}
	hdr := make([]byte, len(magic))
	if _, err := io.ReadFull(f, hdr); err != nil || string(hdr) != magic {
		f.Close()
		return nil, errs.New(errs.Resume, "event log segment has invalid header")
	}
	idBytes := make([]byte, 16)
	if _, err := io.ReadFull(f, idBytes); err != nil {
		f.Close()
		return nil, errs.New(errs.Resume, "event log segment missing run id")
	}
	runID, err := uuid.FromBytes(idBytes)
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.Resume, err, "event log segment has invalid run id")
	}
	return &Reader{f: f, r: bufio.NewReader(f), RunID: runID}, nil
}

// Next returns the next event, or io.EOF once the segment is
// exhausted.
func (r *Reader) Next() (event.Event, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		return event.Event{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return event.Event{}, errs.Wrap(errs.Resume, err, "truncated event log record")
	}
	return decodeEvent(payload)
}

func (r *Reader) Close() error { return r.f.Close() }

func decodeEvent(b []byte) (event.Event, error) {
	var e event.Event
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return e, errs.New(errs.Resume, "malformed event log record")
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return e, errs.New(errs.Resume, "malformed event log record")
			}
			b = b[n:]
			switch num {
			case fieldKind:
				e.Kind = event.Kind(v)
			case fieldGlobal:
				e.GlobalLineage = lineage.GlobalReference(v)
			case fieldOX:
				e.Origin.X = uint32(v)
			case fieldOY:
				e.Origin.Y = uint32(v)
			case fieldOIdx:
				e.Origin.Index = uint32(v)
			case fieldTX:
				e.Target.X = uint32(v)
			case fieldTY:
				e.Target.Y = uint32(v)
			case fieldTIdx:
				e.Target.Index = uint32(v)
			case fieldInter:
				e.Interaction.Tag = event.InteractionTag(v)
			case fieldParent:
				e.Interaction.Parent = lineage.GlobalReference(v)
			}
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return e, errs.New(errs.Resume, "malformed event log record")
			}
			b = b[n:]
			switch num {
			case fieldPrior:
				e.PriorTime = lineage.Time(float64(int64(v)) / 1e9)
			case fieldAt:
				e.EventTime = lineage.Time(float64(int64(v)) / 1e9)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return e, errs.New(errs.Resume, "malformed event log record")
			}
			b = b[n:]
		}
	}
	return e, nil
}

// Reporter adapts a Writer to the reporter.Reporter interface.
type Reporter struct {
	w *Writer
}

func NewReporter(w *Writer) *Reporter { return &Reporter{w: w} }

func (r *Reporter) Report(e event.Event) { r.w.Append(e) }

func (r *Reporter) Flush() error { return r.w.Close() }
