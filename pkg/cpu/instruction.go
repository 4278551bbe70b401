package cpu

import "fmt"

// Op identifies the operation of a decoded instruction word.
type Op uint8

const (
	OpUnknown  Op = iota
	OpCLS         // 00E0
	OpRET         // 00EE
	OpJP          // 1NNN
	OpCALL        // 2NNN
	OpSEImm       // 3XNN
	OpSNEImm      // 4XNN
	OpSEReg       // 5XY0
	OpLDImm       // 6XNN
	OpADDImm      // 7XNN
	OpLDReg       // 8XY0
	OpOR          // 8XY1
	OpAND         // 8XY2
	OpXOR         // 8XY3
	OpADDReg      // 8XY4
	OpSUB         // 8XY5
	OpSHR         // 8XY6
	OpSUBN        // 8XY7
	OpSHL         // 8XYE
	OpSNEReg      // 9XY0
	OpLDI         // ANNN
	OpJPOffset    // BNNN
	OpRND         // CXNN
	OpDRW         // DXYN
	OpSKP         // EX9E
	OpSKNP        // EXA1
	OpLDVxDT      // FX07
	OpLDVxK       // FX0A
	OpLDDTVx      // FX15
	OpLDSTVx      // FX18
	OpADDI        // FX1E
	OpLDF         // FX29
	OpLDB         // FX33
	OpLDStore     // FX55
	OpLDLoad      // FX65
)

// Instruction is a decoded instruction word. Only the operand fields that
// belong to Op are meaningful, but all of them are always extracted.
type Instruction struct {
	Op   Op
	Word uint16
	X    uint8
	Y    uint8
	N    uint8
	NN   uint8
	NNN  uint16
}

// Decode classifies a big-endian instruction word.
func Decode(word uint16) Instruction {
	in := Instruction{
		Word: word,
		X:    uint8((word & 0x0F00) >> 8),
		Y:    uint8((word & 0x00F0) >> 4),
		N:    uint8(word & 0x000F),
		NN:   uint8(word & 0x00FF),
		NNN:  word & 0x0FFF,
	}

	switch word & 0xF000 {
	case 0x0000:
		switch word {
		case 0x00E0:
			in.Op = OpCLS
		case 0x00EE:
			in.Op = OpRET
		}
	case 0x1000:
		in.Op = OpJP
	case 0x2000:
		in.Op = OpCALL
	case 0x3000:
		in.Op = OpSEImm
	case 0x4000:
		in.Op = OpSNEImm
	case 0x5000:
		if in.N == 0 {
			in.Op = OpSEReg
		}
	case 0x6000:
		in.Op = OpLDImm
	case 0x7000:
		in.Op = OpADDImm
	case 0x8000:
		switch in.N {
		case 0x0:
			in.Op = OpLDReg
		case 0x1:
			in.Op = OpOR
		case 0x2:
			in.Op = OpAND
		case 0x3:
			in.Op = OpXOR
		case 0x4:
			in.Op = OpADDReg
		case 0x5:
			in.Op = OpSUB
		case 0x6:
			in.Op = OpSHR
		case 0x7:
			in.Op = OpSUBN
		case 0xE:
			in.Op = OpSHL
		}
	case 0x9000:
		if in.N == 0 {
			in.Op = OpSNEReg
		}
	case 0xA000:
		in.Op = OpLDI
	case 0xB000:
		in.Op = OpJPOffset
	case 0xC000:
		in.Op = OpRND
	case 0xD000:
		in.Op = OpDRW
	case 0xE000:
		switch in.NN {
		case 0x9E:
			in.Op = OpSKP
		case 0xA1:
			in.Op = OpSKNP
		}
	case 0xF000:
		switch in.NN {
		case 0x07:
			in.Op = OpLDVxDT
		case 0x0A:
			in.Op = OpLDVxK
		case 0x15:
			in.Op = OpLDDTVx
		case 0x18:
			in.Op = OpLDSTVx
		case 0x1E:
			in.Op = OpADDI
		case 0x29:
			in.Op = OpLDF
		case 0x33:
			in.Op = OpLDB
		case 0x55:
			in.Op = OpLDStore
		case 0x65:
			in.Op = OpLDLoad
		}
	}

	return in
}

// Mnemonic renders the instruction as it executes under q. Only BNNN differs:
// with JumpWithVX it offsets by VX rather than V0.
func (in Instruction) Mnemonic(q Quirks) string {
	if in.Op == OpJPOffset && q.JumpWithVX {
		return fmt.Sprintf("JP V%X, $%03X", in.X, in.NNN)
	}
	return in.String()
}

// String renders the instruction in the usual mnemonic form. Unknown words
// are rendered as a data word.
func (in Instruction) String() string {
	switch in.Op {
	case OpCLS:
		return "CLS"
	case OpRET:
		return "RET"
	case OpJP:
		return fmt.Sprintf("JP $%03X", in.NNN)
	case OpCALL:
		return fmt.Sprintf("CALL $%03X", in.NNN)
	case OpSEImm:
		return fmt.Sprintf("SE V%X, $%02X", in.X, in.NN)
	case OpSNEImm:
		return fmt.Sprintf("SNE V%X, $%02X", in.X, in.NN)
	case OpSEReg:
		return fmt.Sprintf("SE V%X, V%X", in.X, in.Y)
	case OpLDImm:
		return fmt.Sprintf("LD V%X, $%02X", in.X, in.NN)
	case OpADDImm:
		return fmt.Sprintf("ADD V%X, $%02X", in.X, in.NN)
	case OpLDReg:
		return fmt.Sprintf("LD V%X, V%X", in.X, in.Y)
	case OpOR:
		return fmt.Sprintf("OR V%X, V%X", in.X, in.Y)
	case OpAND:
		return fmt.Sprintf("AND V%X, V%X", in.X, in.Y)
	case OpXOR:
		return fmt.Sprintf("XOR V%X, V%X", in.X, in.Y)
	case OpADDReg:
		return fmt.Sprintf("ADD V%X, V%X", in.X, in.Y)
	case OpSUB:
		return fmt.Sprintf("SUB V%X, V%X", in.X, in.Y)
	case OpSHR:
		return fmt.Sprintf("SHR V%X, V%X", in.X, in.Y)
	case OpSUBN:
		return fmt.Sprintf("SUBN V%X, V%X", in.X, in.Y)
	case OpSHL:
		return fmt.Sprintf("SHL V%X, V%X", in.X, in.Y)
	case OpSNEReg:
		return fmt.Sprintf("SNE V%X, V%X", in.X, in.Y)
	case OpLDI:
		return fmt.Sprintf("LD I, $%03X", in.NNN)
	case OpJPOffset:
		return fmt.Sprintf("JP V0, $%03X", in.NNN)
	case OpRND:
		return fmt.Sprintf("RND V%X, $%02X", in.X, in.NN)
	case OpDRW:
		return fmt.Sprintf("DRW V%X, V%X, $%X", in.X, in.Y, in.N)
	case OpSKP:
		return fmt.Sprintf("SKP V%X", in.X)
	case OpSKNP:
		return fmt.Sprintf("SKNP V%X", in.X)
	case OpLDVxDT:
		return fmt.Sprintf("LD V%X, DT", in.X)
	case OpLDVxK:
		return fmt.Sprintf("LD V%X, K", in.X)
	case OpLDDTVx:
		return fmt.Sprintf("LD DT, V%X", in.X)
	case OpLDSTVx:
		return fmt.Sprintf("LD ST, V%X", in.X)
	case OpADDI:
		return fmt.Sprintf("ADD I, V%X", in.X)
	case OpLDF:
		return fmt.Sprintf("LD F, V%X", in.X)
	case OpLDB:
		return fmt.Sprintf("LD B, V%X", in.X)
	case OpLDStore:
		return fmt.Sprintf("LD [I], V%X", in.X)
	case OpLDLoad:
		return fmt.Sprintf("LD V%X, [I]", in.X)
	}
	return fmt.Sprintf(".WORD $%04X", in.Word)
}
