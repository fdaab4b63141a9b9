package program

import (
	"fmt"
	"io"
)

// Disassemble writes one line per instruction: its address, type name and
// operand bytes in hex, followed by the entry point of every state.
func (p *Program) Disassemble(w io.Writer) error {
	for a := 1; a < len(p.Offsets); a++ {
		code, args := p.Instruction(uint32(a))
		if _, err := fmt.Fprintf(w, "%5d %-28s % x\n", a, code, args); err != nil {
			return err
		}
	}
	for _, s := range p.States {
		if _, err := fmt.Fprintf(w, "state %q root=%d params=%v\n", s.Name, s.Root, s.RuntimeParams); err != nil {
			return err
		}
	}
	return nil
}
