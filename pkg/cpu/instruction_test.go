package cpu

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		word uint16
		op   Op
		text string
	}{
		{0x00E0, OpCLS, "CLS"},
		{0x00EE, OpRET, "RET"},
		{0x0123, OpUnknown, ".WORD $0123"},
		{0x1234, OpJP, "JP $234"},
		{0x2ABC, OpCALL, "CALL $ABC"},
		{0x3A12, OpSEImm, "SE VA, $12"},
		{0x4B34, OpSNEImm, "SNE VB, $34"},
		{0x5120, OpSEReg, "SE V1, V2"},
		{0x5121, OpUnknown, ".WORD $5121"},
		{0x6C0C, OpLDImm, "LD VC, $0C"},
		{0x7D05, OpADDImm, "ADD VD, $05"},
		{0x8120, OpLDReg, "LD V1, V2"},
		{0x8121, OpOR, "OR V1, V2"},
		{0x8122, OpAND, "AND V1, V2"},
		{0x8123, OpXOR, "XOR V1, V2"},
		{0x8124, OpADDReg, "ADD V1, V2"},
		{0x8125, OpSUB, "SUB V1, V2"},
		{0x8126, OpSHR, "SHR V1, V2"},
		{0x8127, OpSUBN, "SUBN V1, V2"},
		{0x812E, OpSHL, "SHL V1, V2"},
		{0x8128, OpUnknown, ".WORD $8128"},
		{0x9120, OpSNEReg, "SNE V1, V2"},
		{0xA123, OpLDI, "LD I, $123"},
		{0xB200, OpJPOffset, "JP V0, $200"},
		{0xC3FF, OpRND, "RND V3, $FF"},
		{0xD125, OpDRW, "DRW V1, V2, $5"},
		{0xE59E, OpSKP, "SKP V5"},
		{0xE5A1, OpSKNP, "SKNP V5"},
		{0xE500, OpUnknown, ".WORD $E500"},
		{0xF607, OpLDVxDT, "LD V6, DT"},
		{0xF60A, OpLDVxK, "LD V6, K"},
		{0xF615, OpLDDTVx, "LD DT, V6"},
		{0xF618, OpLDSTVx, "LD ST, V6"},
		{0xF61E, OpADDI, "ADD I, V6"},
		{0xF629, OpLDF, "LD F, V6"},
		{0xF633, OpLDB, "LD B, V6"},
		{0xF655, OpLDStore, "LD [I], V6"},
		{0xF665, OpLDLoad, "LD V6, [I]"},
		{0xF600, OpUnknown, ".WORD $F600"},
	}

	for _, tc := range tests {
		in := Decode(tc.word)
		if in.Op != tc.op {
			t.Errorf("Decode(0x%04X).Op = %d; want %d", tc.word, in.Op, tc.op)
		}
		if got := in.String(); got != tc.text {
			t.Errorf("Decode(0x%04X).String() = %q; want %q", tc.word, got, tc.text)
		}
		if in.Word != tc.word {
			t.Errorf("Decode(0x%04X).Word = 0x%04X", tc.word, in.Word)
		}
	}
}

func TestDecodeFields(t *testing.T) {
	in := Decode(0xD7A3)
	if in.X != 0x7 || in.Y != 0xA || in.N != 0x3 || in.NN != 0xA3 || in.NNN != 0x7A3 {
		t.Errorf("Decode(0xD7A3): unexpected fields %+v", in)
	}
}

func TestKey(t *testing.T) {
	if KeyNone.Pressed() {
		t.Error("KeyNone.Pressed(): expected false")
	}
	if !KeyF.Pressed() || !Key0.Pressed() {
		t.Error("Key0/KeyF.Pressed(): expected true")
	}
	if !KeyA.Matches(0x0A) || KeyA.Matches(0x0B) || KeyNone.Matches(byte(KeyNone)) {
		t.Error("Matches: unexpected result")
	}
	if KeyNone.String() != "none" || KeyC.String() != "C" {
		t.Errorf("String: got %q and %q", KeyNone.String(), KeyC.String())
	}
}
