package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gochip8/pkg/cpu"
)

// Origin is the address the first assembled byte is loaded at.
const Origin = cpu.ProgramStart

// aluOps are the 8XYN register-register operations.
var aluOps = map[string]uint16{
	"OR":   0x1,
	"AND":  0x2,
	"XOR":  0x3,
	"SUB":  0x5,
	"SHR":  0x6,
	"SUBN": 0x7,
	"SHL":  0xE,
}

var mnemonics = map[string]bool{
	"CLS": true, "RET": true, "JP": true, "CALL": true, "SE": true,
	"SNE": true, "LD": true, "ADD": true, "OR": true, "AND": true,
	"XOR": true, "SUB": true, "SUBN": true, "SHR": true, "SHL": true,
	"RND": true, "DRW": true, "SKP": true, "SKNP": true,
}

type operandKind int

const (
	kindValue    operandKind = iota // number or label
	kindReg                         // V0-VF
	kindI                           // I
	kindIndirect                    // [I]
	kindDT
	kindST
	kindK
	kindF
	kindB
)

type operand struct {
	kind operandKind
	reg  uint16
	text string
}

type Assembler struct {
	labels map[string]uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
	}
}

// Assemble translates a listing into program bytes to be loaded at Origin.
// The source map records the line each emitted instruction or data
// directive came from, keyed by absolute address.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]byte, map[uint16]int, error) {
	lines := strings.Split(code, "\n")

	parsed := make([]parsedLine, 0, len(lines))
	for i, raw := range lines {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, nil, err
		}
		parsed = append(parsed, p)
	}

	if err := a.pass1(parsed); err != nil {
		return nil, nil, err
	}
	return a.pass2(parsed)
}

// pass1 assigns an address to every label.
func (a *Assembler) pass1(lines []parsedLine) error {
	address := uint32(Origin)

	for _, p := range lines {
		if p.mnemonic == ".ORG" {
			target, err := parseOrg(p, address)
			if err != nil {
				return err
			}
			address = target
		}

		for _, lbl := range p.labels {
			key := normalizeLabel(lbl)
			if isReserved(key) {
				return fmt.Errorf("label '%s' on line %d is a reserved name", lbl, p.lineNo)
			}
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, p.lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" || p.mnemonic == ".ORG" {
			continue
		}

		length, err := lineLength(p)
		if err != nil {
			return err
		}
		if address+length > cpu.MemorySize {
			return fmt.Errorf("program too large near line %d", p.lineNo)
		}
		address += length
	}

	return nil
}

// pass2 emits bytes now that every label is known.
func (a *Assembler) pass2(lines []parsedLine) ([]byte, map[uint16]int, error) {
	program := make([]byte, 0)
	sourceMap := make(map[uint16]int)

	for _, p := range lines {
		if p.mnemonic == "" {
			continue
		}
		address := uint32(Origin + len(program))

		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrg(p, address)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, make([]byte, target-address)...)
			continue

		case ".BYTE":
			sourceMap[uint16(address)] = p.lineNo
			for _, op := range p.operands {
				v, err := a.parseValue(op, 0xFF, p.lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(v))
			}
			continue

		case ".WORD":
			sourceMap[uint16(address)] = p.lineNo
			for _, op := range p.operands {
				v, err := a.parseValue(op, 0xFFFF, p.lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(v>>8), byte(v))
			}
			continue
		}

		var word uint16
		if isHexWord(p.mnemonic) && len(p.operands) == 0 {
			v, _ := strconv.ParseUint(p.mnemonic, 16, 16)
			word = uint16(v)
		} else {
			w, err := a.encode(p)
			if err != nil {
				return nil, nil, err
			}
			word = w
		}

		sourceMap[uint16(address)] = p.lineNo
		program = append(program, byte(word>>8), byte(word))
	}

	return program, sourceMap, nil
}

func (a *Assembler) encode(p parsedLine) (uint16, error) {
	ops := make([]operand, len(p.operands))
	for i, tok := range p.operands {
		ops[i] = classify(tok)
	}
	m := p.mnemonic

	switch m {
	case "CLS", "RET":
		if err := expectOperands(p, 0); err != nil {
			return 0, err
		}
		if m == "CLS" {
			return 0x00E0, nil
		}
		return 0x00EE, nil

	case "JP":
		if len(ops) == 2 {
			if ops[0].kind != kindReg || ops[0].reg != 0 {
				return 0, fmt.Errorf("JP with offset expects V0 on line %d", p.lineNo)
			}
			addr, err := a.value(ops[1], 0xFFF, p.lineNo)
			if err != nil {
				return 0, err
			}
			return 0xB000 | addr, nil
		}
		fallthrough

	case "CALL":
		if err := expectOperands(p, 1); err != nil {
			return 0, err
		}
		addr, err := a.value(ops[0], 0xFFF, p.lineNo)
		if err != nil {
			return 0, err
		}
		if m == "JP" {
			return 0x1000 | addr, nil
		}
		return 0x2000 | addr, nil

	case "SE", "SNE":
		if err := expectOperands(p, 2); err != nil {
			return 0, err
		}
		x, err := register(ops[0], p.lineNo)
		if err != nil {
			return 0, err
		}
		if ops[1].kind == kindReg {
			base := uint16(0x5000)
			if m == "SNE" {
				base = 0x9000
			}
			return base | x<<8 | ops[1].reg<<4, nil
		}
		nn, err := a.value(ops[1], 0xFF, p.lineNo)
		if err != nil {
			return 0, err
		}
		base := uint16(0x3000)
		if m == "SNE" {
			base = 0x4000
		}
		return base | x<<8 | nn, nil

	case "LD":
		if err := expectOperands(p, 2); err != nil {
			return 0, err
		}
		return a.encodeLoad(ops, p.lineNo)

	case "ADD":
		if err := expectOperands(p, 2); err != nil {
			return 0, err
		}
		if ops[0].kind == kindI {
			x, err := register(ops[1], p.lineNo)
			if err != nil {
				return 0, err
			}
			return 0xF01E | x<<8, nil
		}
		x, err := register(ops[0], p.lineNo)
		if err != nil {
			return 0, err
		}
		if ops[1].kind == kindReg {
			return 0x8004 | x<<8 | ops[1].reg<<4, nil
		}
		nn, err := a.value(ops[1], 0xFF, p.lineNo)
		if err != nil {
			return 0, err
		}
		return 0x7000 | x<<8 | nn, nil

	case "OR", "AND", "XOR", "SUB", "SUBN", "SHR", "SHL":
		shift := m == "SHR" || m == "SHL"
		if shift && len(ops) == 1 {
			// VY defaults to VX; the classic shift ignores it.
			ops = append(ops, ops[0])
		} else if err := expectOperands(p, 2); err != nil {
			return 0, err
		}
		x, err := register(ops[0], p.lineNo)
		if err != nil {
			return 0, err
		}
		y, err := register(ops[1], p.lineNo)
		if err != nil {
			return 0, err
		}
		return 0x8000 | x<<8 | y<<4 | aluOps[m], nil

	case "RND":
		if err := expectOperands(p, 2); err != nil {
			return 0, err
		}
		x, err := register(ops[0], p.lineNo)
		if err != nil {
			return 0, err
		}
		nn, err := a.value(ops[1], 0xFF, p.lineNo)
		if err != nil {
			return 0, err
		}
		return 0xC000 | x<<8 | nn, nil

	case "DRW":
		if err := expectOperands(p, 3); err != nil {
			return 0, err
		}
		x, err := register(ops[0], p.lineNo)
		if err != nil {
			return 0, err
		}
		y, err := register(ops[1], p.lineNo)
		if err != nil {
			return 0, err
		}
		n, err := a.value(ops[2], 0xF, p.lineNo)
		if err != nil {
			return 0, err
		}
		return 0xD000 | x<<8 | y<<4 | n, nil

	case "SKP", "SKNP":
		if err := expectOperands(p, 1); err != nil {
			return 0, err
		}
		x, err := register(ops[0], p.lineNo)
		if err != nil {
			return 0, err
		}
		if m == "SKP" {
			return 0xE09E | x<<8, nil
		}
		return 0xE0A1 | x<<8, nil
	}

	return 0, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, m)
}

// encodeLoad handles the many forms of LD.
func (a *Assembler) encodeLoad(ops []operand, lineNo int) (uint16, error) {
	dst, src := ops[0], ops[1]

	switch dst.kind {
	case kindReg:
		x := dst.reg << 8
		switch src.kind {
		case kindReg:
			return 0x8000 | x | src.reg<<4, nil
		case kindDT:
			return 0xF007 | x, nil
		case kindK:
			return 0xF00A | x, nil
		case kindIndirect:
			return 0xF065 | x, nil
		case kindValue:
			nn, err := a.value(src, 0xFF, lineNo)
			if err != nil {
				return 0, err
			}
			return 0x6000 | x | nn, nil
		}

	case kindI:
		addr, err := a.value(src, 0xFFF, lineNo)
		if err != nil {
			return 0, err
		}
		return 0xA000 | addr, nil

	case kindDT, kindST, kindF, kindB, kindIndirect:
		x, err := register(src, lineNo)
		if err != nil {
			return 0, err
		}
		low := map[operandKind]uint16{
			kindDT:       0x15,
			kindST:       0x18,
			kindF:        0x29,
			kindB:        0x33,
			kindIndirect: 0x55,
		}[dst.kind]
		return 0xF000 | x<<8 | low, nil
	}

	return 0, fmt.Errorf("invalid operands for LD on line %d: %s, %s", lineNo, dst.text, src.text)
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	mnemonic, rest := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		mnemonic, rest = line[:i], line[i:]
	}
	p.mnemonic = strings.ToUpper(mnemonic)

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return p, nil
	}
	for _, tok := range strings.Split(rest, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return p, fmt.Errorf("empty operand on line %d", lineNo)
		}
		p.operands = append(p.operands, tok)
	}

	return p, nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

func classify(tok string) operand {
	up := strings.ToUpper(tok)
	op := operand{kind: kindValue, text: tok}

	switch up {
	case "I":
		op.kind = kindI
	case "[I]":
		op.kind = kindIndirect
	case "DT":
		op.kind = kindDT
	case "ST":
		op.kind = kindST
	case "K":
		op.kind = kindK
	case "F":
		op.kind = kindF
	case "B":
		op.kind = kindB
	default:
		if len(up) == 2 && up[0] == 'V' {
			if r, err := strconv.ParseUint(up[1:], 16, 8); err == nil {
				op.kind = kindReg
				op.reg = uint16(r)
			}
		}
	}
	return op
}

func register(op operand, lineNo int) (uint16, error) {
	if op.kind != kindReg {
		return 0, fmt.Errorf("invalid register '%s' on line %d", op.text, lineNo)
	}
	return op.reg, nil
}

func (a *Assembler) value(op operand, limit uint16, lineNo int) (uint16, error) {
	if op.kind != kindValue {
		return 0, fmt.Errorf("expected a value, got '%s' on line %d", op.text, lineNo)
	}
	return a.parseValue(op.text, limit, lineNo)
}

// parseValue accepts $hex, 0x hex, 0b binary, decimal or a label.
func (a *Assembler) parseValue(token string, limit uint16, lineNo int) (uint16, error) {
	num := token
	if strings.HasPrefix(num, "$") {
		num = "0x" + num[1:]
	}
	if value, err := strconv.ParseUint(num, 0, 32); err == nil {
		if value > uint64(limit) {
			return 0, fmt.Errorf("value out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	label := normalizeLabel(token)
	if addr, ok := a.labels[label]; ok {
		if addr > limit {
			return 0, fmt.Errorf("label '%s' out of range on line %d", token, lineNo)
		}
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid value '%s' on line %d", token, lineNo)
}

func parseOrg(p parsedLine, address uint32) (uint32, error) {
	if len(p.operands) != 1 {
		return 0, fmt.Errorf(".ORG expects exactly one operand on line %d", p.lineNo)
	}
	num := p.operands[0]
	if strings.HasPrefix(num, "$") {
		num = "0x" + num[1:]
	}
	target, err := strconv.ParseUint(num, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid .ORG value on line %d: %s", p.lineNo, p.operands[0])
	}
	if target < Origin || target >= cpu.MemorySize {
		return 0, fmt.Errorf(".ORG out of range on line %d: %s", p.lineNo, p.operands[0])
	}
	if uint32(target) < address {
		return 0, fmt.Errorf("cannot move origin backward on line %d", p.lineNo)
	}
	return uint32(target), nil
}

// lineLength returns the number of bytes a line emits.
func lineLength(p parsedLine) (uint32, error) {
	switch p.mnemonic {
	case ".BYTE":
		if len(p.operands) == 0 {
			return 0, fmt.Errorf(".BYTE expects at least one operand on line %d", p.lineNo)
		}
		return uint32(len(p.operands)), nil
	case ".WORD":
		if len(p.operands) == 0 {
			return 0, fmt.Errorf(".WORD expects at least one operand on line %d", p.lineNo)
		}
		return uint32(2 * len(p.operands)), nil
	}

	if mnemonics[p.mnemonic] || (isHexWord(p.mnemonic) && len(p.operands) == 0) {
		return 2, nil
	}
	return 0, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
}

func expectOperands(p parsedLine, n int) error {
	if len(p.operands) != n {
		return fmt.Errorf("%s expects %d operands on line %d", p.mnemonic, n, p.lineNo)
	}
	return nil
}

// isHexWord reports whether s is a bare four digit hex instruction word.
func isHexWord(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return false
		}
	}
	return true
}

func isReserved(s string) bool {
	return classify(s).kind != kindValue || mnemonics[s] || isHexWord(s)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
