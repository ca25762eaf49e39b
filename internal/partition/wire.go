package partition

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/nmxmxh/necsim/internal/lineage"
)

// Wire field numbers for an encoded MigratingLineage. Hand-rolled over
// protowire rather than generated from a .proto: the message shape is
// small, fixed, and internal to this package, so paying for a protoc
// codegen step buys nothing — protowire gives the same self-describing,
// forward-compatible tag/length framing without it.
const (
	fieldGlobalRef       = 1
	fieldOriginX         = 2
	fieldOriginY         = 3
	fieldTargetX         = 4
	fieldTargetY         = 5
	fieldPriorTime       = 6
	fieldEventTime       = 7
	fieldCoalescenceRNG  = 8
	fieldTieBreaker      = 9
	fieldOwnerPartition  = 10
)

// EncodeMigration serialises a migrating lineage plus the partition
// rank it is destined for into a wire-format envelope.
func EncodeMigration(owner uint32, mig lineage.MigratingLineage) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldGlobalRef, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(mig.GlobalRef))

	b = protowire.AppendTag(b, fieldOriginX, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(mig.DispersalOrigin.X))
	b = protowire.AppendTag(b, fieldOriginY, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(mig.DispersalOrigin.Y))

	b = protowire.AppendTag(b, fieldTargetX, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(mig.DispersalTarget.X))
	b = protowire.AppendTag(b, fieldTargetY, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(mig.DispersalTarget.Y))

	b = protowire.AppendTag(b, fieldPriorTime, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, doubleBits(float64(mig.PriorTime)))
	b = protowire.AppendTag(b, fieldEventTime, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, doubleBits(float64(mig.EventTime)))

	b = protowire.AppendTag(b, fieldCoalescenceRNG, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, mig.CoalescenceRNG)
	b = protowire.AppendTag(b, fieldTieBreaker, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, mig.TieBreaker)

	b = protowire.AppendTag(b, fieldOwnerPartition, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(owner))
	return b
}

// DecodeMigration parses the envelope produced by EncodeMigration.
func DecodeMigration(b []byte) (owner uint32, mig lineage.MigratingLineage, ok bool) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, lineage.MigratingLineage{}, false
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, lineage.MigratingLineage{}, false
			}
			b = b[n:]
			switch num {
			case fieldGlobalRef:
				mig.GlobalRef = lineage.GlobalReference(v)
			case fieldOriginX:
				mig.DispersalOrigin.X = uint32(v)
			case fieldOriginY:
				mig.DispersalOrigin.Y = uint32(v)
			case fieldTargetX:
				mig.DispersalTarget.X = uint32(v)
			case fieldTargetY:
				mig.DispersalTarget.Y = uint32(v)
			case fieldOwnerPartition:
				owner = uint32(v)
			}
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return 0, lineage.MigratingLineage{}, false
			}
			b = b[n:]
			switch num {
			case fieldPriorTime:
				mig.PriorTime = lineage.Time(doubleFromBits(v))
			case fieldEventTime:
				mig.EventTime = lineage.Time(doubleFromBits(v))
			case fieldCoalescenceRNG:
				mig.CoalescenceRNG = v
			case fieldTieBreaker:
				mig.TieBreaker = v
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return 0, lineage.MigratingLineage{}, false
			}
			b = b[n:]
		}
	}
	return owner, mig, true
}
