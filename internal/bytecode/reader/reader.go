// Package reader is the inverse of internal/bytecode/writer: it decodes
// the big-endian wire format back into a bytecode.Program.
//
// Resolving a native-flagged Function's actual function pointer against a
// package's provider ABI is internal/native's job, not this package's —
// Read only reconstructs the in-memory IR; a caller that needs native
// dispatch wires internal/native in afterward, the same separation the
// teacher draws between parsing a term and resolving it against the
// predicate database.
package reader

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/emojicode/emojicode/internal/bytecode"
)

// ErrFormatVersion is returned when the file's leading format-version byte
// does not match bytecode.CurrentFormatVersion.
type ErrFormatVersion struct {
	Got byte
}

func (e *ErrFormatVersion) Error() string {
	return fmt.Sprintf("reader: unsupported bytecode format version %d, want %d", e.Got, bytecode.CurrentFormatVersion)
}

// Read decodes a bytecode.Program from r.
func Read(r io.Reader) (*bytecode.Program, error) {
	br := &byteReader{r: r}

	version := br.u8()
	if br.err == nil && version != bytecode.CurrentFormatVersion {
		return nil, &ErrFormatVersion{Got: version}
	}

	prog := &bytecode.Program{FormatVersion: version}

	classCount := br.u16()
	packageCount := br.u8()
	for i := 0; i < int(packageCount); i++ {
		prog.Packages = append(prog.Packages, readPackage(br))
	}

	for i := 0; i < classCount; i++ {
		prog.Classes = append(prog.Classes, readClass(br))
	}

	stringCount := br.u16()
	for i := 0; i < stringCount; i++ {
		prog.StringPool = append(prog.StringPool, readString(br))
	}

	prog.StartupClassIndex = br.u16()
	prog.StartupTypeMethodVTI = br.u16()

	if br.err != nil {
		return nil, br.err
	}
	return prog, nil
}

func readPackage(br *byteReader) bytecode.PackageSection {
	nameLen := br.u8()
	if nameLen == 0 {
		return bytecode.PackageSection{Standard: true}
	}
	name := br.rawString(int(nameLen))
	major := br.u16()
	minor := br.u16()
	native := br.boolean()
	return bytecode.PackageSection{
		Name: name, Major: uint16(major), Minor: uint16(minor),
		RequiresNativeBinary: native,
	}
}

func readClass(br *byteReader) *bytecode.Class {
	c := &bytecode.Class{}
	c.Name = br.rune()
	c.SuperIndex = br.u16()
	c.InstanceVarCount = br.u16()
	c.MethodVTableSize = br.u16()
	c.InheritsInitializer = br.boolean()
	c.InitVTableSize = br.u16()

	methodCount := br.u16()
	initCount := br.u16()
	typeMethodCount := br.u16()

	for i := 0; i < methodCount; i++ {
		c.Methods = append(c.Methods, readFunction(br))
	}
	for i := 0; i < initCount; i++ {
		c.Initializers = append(c.Initializers, readFunction(br))
	}
	for i := 0; i < typeMethodCount; i++ {
		c.TypeMethods = append(c.TypeMethods, readFunction(br))
	}

	protoCount := br.u16()
	if protoCount > 0 {
		c.ProtocolMaxIndex = br.u16()
		c.ProtocolMinIndex = br.u16()
		for i := 0; i < protoCount; i++ {
			entry := bytecode.ProtocolTableEntry{Index: br.u16()}
			n := br.u16()
			for j := 0; j < n; j++ {
				entry.Methods = append(entry.Methods, br.u16())
			}
			c.ProtocolTable = append(c.ProtocolTable, entry)
		}
	}
	return c
}

func readFunction(br *byteReader) *bytecode.Function {
	fn := &bytecode.Function{}
	fn.Name = br.rune()
	fn.VTI = br.u16()
	fn.ArgCount = int(br.u8())
	fn.Native = br.boolean()
	if fn.Native {
		return fn
	}
	fn.VariableCount = int(br.u8())

	words := br.u32()
	read := 0
	for read < words {
		op := br.u32()
		operandCount := br.u32()
		var operands []int32
		if operandCount > 0 {
			operands = make([]int32, operandCount)
			for i := range operands {
				operands[i] = br.u32s()
			}
		}
		fn.Code = append(fn.Code, bytecode.Instruction{Op: bytecode.Op(op), Operands: operands})
		read += 2 + operandCount
		if br.err != nil {
			break
		}
	}
	return fn
}

func readString(br *byteReader) string {
	n := br.u16()
	rs := make([]rune, n)
	for i := range rs {
		rs[i] = br.rune()
	}
	return string(rs)
}

// byteReader accumulates the first error encountered across a sequence of
// fixed-width field reads, mirroring writer.byteWriter: once err is set,
// every subsequent read is a no-op returning the zero value.
type byteReader struct {
	r   io.Reader
	err error
}

func (br *byteReader) fill(n int) []byte {
	if br.err != nil {
		return make([]byte, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		br.err = err
		return make([]byte, n)
	}
	return buf
}

func (br *byteReader) u8() byte {
	return br.fill(1)[0]
}

func (br *byteReader) u16() int {
	return int(binary.BigEndian.Uint16(br.fill(2)))
}

func (br *byteReader) u32() int {
	return int(binary.BigEndian.Uint32(br.fill(4)))
}

func (br *byteReader) u32s() int32 {
	return int32(binary.BigEndian.Uint32(br.fill(4)))
}

func (br *byteReader) rune() rune {
	return rune(br.u32())
}

func (br *byteReader) boolean() bool {
	return br.u8() != 0
}

func (br *byteReader) rawString(n int) string {
	return string(br.fill(n))
}
