// Package writer serializes a bytecode.Program to the byte-exact,
// big-endian wire format consumed by internal/bytecode/reader (and, at
// runtime, by internal/runtime/interp).
//
// The flat, length-prefixed record shape — counts before the records they
// count, sentinel-bearing variable-size entries — follows the same
// "disassemble to a readable, round-trippable form" spirit as the
// teacher's wam/fmt.go, generalized from a text disassembly to a binary
// one since the consumer here is another Go process, not a human reading
// a REPL trace.
package writer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/emojicode/emojicode/internal/bytecode"
)

// Write serializes prog to w. It returns the first I/O error encountered;
// partial output may already have reached w.
func Write(w io.Writer, prog *bytecode.Program) error {
	bw := &byteWriter{w: bufio.NewWriter(w)}

	bw.u8(int(prog.FormatVersion))
	bw.u16(len(prog.Classes))

	bw.u8(len(prog.Packages))
	for _, pkg := range prog.Packages {
		writePackage(bw, pkg)
	}

	for _, c := range prog.Classes {
		writeClass(bw, c)
	}

	bw.u16(len(prog.StringPool))
	for _, s := range prog.StringPool {
		writeString(bw, s)
	}

	bw.u16(prog.StartupClassIndex)
	bw.u16(prog.StartupTypeMethodVTI)

	return bw.flush()
}

func writePackage(bw *byteWriter, pkg bytecode.PackageSection) {
	if pkg.Standard {
		bw.u8(0)
		return
	}
	bw.u8(len(pkg.Name))
	bw.raw([]byte(pkg.Name))
	bw.u16(int(pkg.Major))
	bw.u16(int(pkg.Minor))
	bw.bool(pkg.RequiresNativeBinary)
}

func writeClass(bw *byteWriter, c *bytecode.Class) {
	bw.rune(c.Name)
	bw.u16(c.SuperIndex)
	bw.u16(c.InstanceVarCount)
	bw.u16(c.MethodVTableSize)
	bw.bool(c.InheritsInitializer)
	bw.u16(c.InitVTableSize)

	bw.u16(len(c.Methods))
	bw.u16(len(c.Initializers))
	bw.u16(len(c.TypeMethods))

	for _, fn := range c.Methods {
		writeFunction(bw, fn)
	}
	for _, fn := range c.Initializers {
		writeFunction(bw, fn)
	}
	for _, fn := range c.TypeMethods {
		writeFunction(bw, fn)
	}

	bw.u16(len(c.ProtocolTable))
	if len(c.ProtocolTable) > 0 {
		bw.u16(c.ProtocolMaxIndex)
		bw.u16(c.ProtocolMinIndex)
		for _, entry := range c.ProtocolTable {
			bw.u16(entry.Index)
			bw.u16(len(entry.Methods))
			for _, vti := range entry.Methods {
				bw.u16(vti)
			}
		}
	}
}

func writeFunction(bw *byteWriter, fn *bytecode.Function) {
	bw.rune(fn.Name)
	bw.u16(fn.VTI)
	bw.u8(fn.ArgCount)
	bw.bool(fn.Native)
	if fn.Native {
		return
	}
	bw.u8(fn.VariableCount)

	words := instructionWordCount(fn.Code)
	bw.u32(words)
	for _, ins := range fn.Code {
		bw.u32(int(ins.Op))
		bw.u32(len(ins.Operands))
		for _, operand := range ins.Operands {
			bw.u32s(operand)
		}
	}
}

// instructionWordCount counts the 32-bit words an instruction stream
// occupies: one for the opcode, one for the operand count, plus one per
// operand. bytecode.Instruction carries a variable-arity operand slice
// rather than a per-opcode fixed arity table, so the operand count is
// written explicitly instead of being derivable from the opcode alone.
func instructionWordCount(code []bytecode.Instruction) int {
	n := 0
	for _, ins := range code {
		n += 2 + len(ins.Operands)
	}
	return n
}

func writeString(bw *byteWriter, s string) {
	rs := []rune(s)
	bw.u16(len(rs))
	for _, r := range rs {
		bw.rune(r)
	}
}

// byteWriter accumulates fixed-width big-endian fields and the first
// error encountered, so call sites never need to thread an err return
// through every field write.
type byteWriter struct {
	w   *bufio.Writer
	err error
}

func (bw *byteWriter) raw(b []byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write(b)
}

func (bw *byteWriter) u8(v int) {
	if bw.err != nil {
		return
	}
	if v < 0 || v > 0xFF {
		bw.err = fmt.Errorf("writer: value %d does not fit in u8", v)
		return
	}
	bw.err = bw.w.WriteByte(byte(v))
}

func (bw *byteWriter) u16(v int) {
	if bw.err != nil {
		return
	}
	if v < 0 || v > 0xFFFF {
		bw.err = fmt.Errorf("writer: value %d does not fit in u16", v)
		return
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(v))
	bw.raw(buf[:])
}

func (bw *byteWriter) u32(v int) {
	bw.u32s(int32(v))
}

func (bw *byteWriter) u32s(v int32) {
	if bw.err != nil {
		return
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	bw.raw(buf[:])
}

func (bw *byteWriter) rune(r rune) {
	bw.u32(int(r))
}

func (bw *byteWriter) bool(b bool) {
	if b {
		bw.u8(1)
	} else {
		bw.u8(0)
	}
}

func (bw *byteWriter) flush() error {
	if bw.err != nil {
		return bw.err
	}
	return bw.w.Flush()
}
