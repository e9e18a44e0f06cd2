// Package serialize implements Mizu's binary and portable wire formats
// (spec.md §4.7, §6): a fixed-width little-endian opcode record, and a
// portable bundle format that appends raw stack-bottom data after the
// opcode stream.
//
// Grounded on original_source/mizu/serialize.hpp and portable_format.hpp.
package serialize

import (
	"encoding/binary"
	"math"

	"github.com/data-oriented-ir/mizu"
)

// recordSize is the fixed wire size of one opcode record: a 64-bit op-id
// plus three 16-bit register selectors.
const recordSize = 8 + 2 + 2 + 2

// unregisteredID is what an opcode whose function identity the registry
// doesn't know serializes as, per spec.md §4.7.
const unregisteredID = mizu.OperationID(math.MaxUint64)

// ToBinary writes prog as a sequence of fixed-width little-endian records.
// Opcodes store registry IDs directly (see DESIGN.md's "ID-based
// dispatch" resolution of spec.md §9), so this is mostly a direct
// little-endian pack; an ID that reg doesn't recognize (e.g. produced
// against a different registry) still serializes as the dedicated
// "unregistered" sentinel rather than silently writing a bogus ID.
func ToBinary(prog mizu.Program, reg *mizu.Registry) []byte {
	out := make([]byte, 0, len(prog)*recordSize)
	for _, op := range prog {
		id := op.Op
		if _, ok := reg.LookupInstruction(id); !ok {
			id = unregisteredID
		}
		out = append(out, encodeRecord(id, op.Out, op.A, op.B)...)
	}
	return out
}

// FromBinary is the inverse of ToBinary against reg. An unknown op-id
// (including the unregistered sentinel) deserializes to the null
// instruction — programs calling it terminate cleanly.
func FromBinary(data []byte, reg *mizu.Registry) mizu.Program {
	n := len(data) / recordSize
	prog := make(mizu.Program, n)
	for i := 0; i < n; i++ {
		id, out, a, b := decodeRecord(data[i*recordSize : (i+1)*recordSize])
		if _, ok := reg.LookupInstruction(id); !ok {
			id = mizu.NullOperation
		}
		prog[i] = mizu.Opcode{Op: id, Out: out, A: a, B: b}
	}
	return prog
}

// ToPortable serializes prog and, if stackData is non-empty, appends a null
// terminator opcode (unless prog already ends in one) followed by
// stackData verbatim, matching original_source/mizu/portable_format.hpp's
// to_portable.
func ToPortable(prog mizu.Program, reg *mizu.Registry, stackData []byte) []byte {
	out := ToBinary(prog, reg)
	if len(stackData) == 0 {
		return out
	}
	if !endsInNullOpcode(prog) {
		out = append(out, encodeRecord(mizu.NullOperation, 0, 0, 0)...)
	}
	out = append(out, stackData...)
	return out
}

func endsInNullOpcode(prog mizu.Program) bool {
	if len(prog) == 0 {
		return false
	}
	last := prog[len(prog)-1]
	return last.Op == mizu.NullOperation && last.Out == 0 && last.A == 0 && last.B == 0
}

// FromPortable scans opcode records until a null terminator or the data
// ends, then — if env is non-nil and bytes remain — copies the remainder
// into the top of env's stack via mizu.FillStackBottom.
func FromPortable(data []byte, reg *mizu.Registry, env *mizu.Environment) (mizu.Program, error) {
	n := len(data) / recordSize
	var prog mizu.Program
	consumed := 0
	for i := 0; i < n; i++ {
		rec := data[i*recordSize : (i+1)*recordSize]
		id, out, a, b := decodeRecord(rec)
		consumed += recordSize
		if id == mizu.NullOperation && out == 0 && a == 0 && b == 0 {
			break
		}
		if _, ok := reg.LookupInstruction(id); !ok {
			id = mizu.NullOperation
		}
		prog = append(prog, mizu.Opcode{Op: id, Out: out, A: a, B: b})
	}
	if env != nil && consumed < len(data) {
		if err := mizu.FillStackBottom(env, data[consumed:]); err != nil {
			return prog, err
		}
	}
	return prog, nil
}

func encodeRecord(id mizu.OperationID, out, a, b uint16) []byte {
	var rec [recordSize]byte
	binary.LittleEndian.PutUint64(rec[0:8], uint64(id))
	binary.LittleEndian.PutUint16(rec[8:10], out)
	binary.LittleEndian.PutUint16(rec[10:12], a)
	binary.LittleEndian.PutUint16(rec[12:14], b)
	return rec[:]
}

func decodeRecord(rec []byte) (id mizu.OperationID, out, a, b uint16) {
	id = mizu.OperationID(binary.LittleEndian.Uint64(rec[0:8]))
	out = binary.LittleEndian.Uint16(rec[8:10])
	a = binary.LittleEndian.Uint16(rec[10:12])
	b = binary.LittleEndian.Uint16(rec[12:14])
	return
}
