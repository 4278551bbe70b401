package cpu

// FontGlyphSize is the number of bytes (rows) in one hex digit sprite.
const FontGlyphSize = 5

// DefaultFontBase is where the font is placed unless Options.FontBase says
// otherwise.
const DefaultFontBase uint16 = 0x050

// fontSet holds the 4x5 sprites for the hex digits 0-F, one row per byte,
// left aligned in the high nibble.
var fontSet = [16 * FontGlyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Glyph returns a copy of the sprite rows for a hex digit. Only the low
// nibble of digit is used.
func Glyph(digit byte) [FontGlyphSize]byte {
	var g [FontGlyphSize]byte
	start := int(digit&0x0F) * FontGlyphSize
	copy(g[:], fontSet[start:start+FontGlyphSize])
	return g
}

// validFontBase reports whether the whole font fits below the program region.
func validFontBase(base uint16) bool {
	return int(base)+len(fontSet) <= ProgramStart
}

// LoadFont writes the font table at the configured base address.
func (c *CPU) LoadFont() {
	copy(c.Memory[c.fontBase:], fontSet[:])
}

// FontAddress returns the memory address of the sprite for a hex digit.
func (c *CPU) FontAddress(digit byte) uint16 {
	return c.fontBase + uint16(digit&0x0F)*FontGlyphSize
}
