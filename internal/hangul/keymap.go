package hangul

// X11 hardware keycodes on a PC keyboard.
const (
	keycodeBackSpace = 22
	shiftMask        = 0x1
)

type keyDef struct {
	plain, shifted rune
}

// dubeolsik maps letter keycodes to jamo in the standard 2-set layout.
var dubeolsik = map[uint16]keyDef{
	24: {'ㅂ', 'ㅃ'}, 25: {'ㅈ', 'ㅉ'}, 26: {'ㄷ', 'ㄸ'}, 27: {'ㄱ', 'ㄲ'}, 28: {'ㅅ', 'ㅆ'},
	29: {'ㅛ', 'ㅛ'}, 30: {'ㅕ', 'ㅕ'}, 31: {'ㅑ', 'ㅑ'}, 32: {'ㅐ', 'ㅒ'}, 33: {'ㅔ', 'ㅖ'},
	38: {'ㅁ', 'ㅁ'}, 39: {'ㄴ', 'ㄴ'}, 40: {'ㅇ', 'ㅇ'}, 41: {'ㄹ', 'ㄹ'}, 42: {'ㅎ', 'ㅎ'},
	43: {'ㅗ', 'ㅗ'}, 44: {'ㅓ', 'ㅓ'}, 45: {'ㅏ', 'ㅏ'}, 46: {'ㅣ', 'ㅣ'},
	52: {'ㅋ', 'ㅋ'}, 53: {'ㅌ', 'ㅌ'}, 54: {'ㅊ', 'ㅊ'}, 55: {'ㅍ', 'ㅍ'}, 56: {'ㅠ', 'ㅠ'},
	57: {'ㅜ', 'ㅜ'}, 58: {'ㅡ', 'ㅡ'},
}

// usASCII maps printable keycodes of a US keyboard to characters.
var usASCII = map[uint16]keyDef{
	10: {'1', '!'}, 11: {'2', '@'}, 12: {'3', '#'}, 13: {'4', '$'}, 14: {'5', '%'},
	15: {'6', '^'}, 16: {'7', '&'}, 17: {'8', '*'}, 18: {'9', '('}, 19: {'0', ')'},
	20: {'-', '_'}, 21: {'=', '+'},
	24: {'q', 'Q'}, 25: {'w', 'W'}, 26: {'e', 'E'}, 27: {'r', 'R'}, 28: {'t', 'T'},
	29: {'y', 'Y'}, 30: {'u', 'U'}, 31: {'i', 'I'}, 32: {'o', 'O'}, 33: {'p', 'P'},
	34: {'[', '{'}, 35: {']', '}'},
	38: {'a', 'A'}, 39: {'s', 'S'}, 40: {'d', 'D'}, 41: {'f', 'F'}, 42: {'g', 'G'},
	43: {'h', 'H'}, 44: {'j', 'J'}, 45: {'k', 'K'}, 46: {'l', 'L'},
	47: {';', ':'}, 48: {'\'', '"'}, 49: {'`', '~'}, 51: {'\\', '|'},
	52: {'z', 'Z'}, 53: {'x', 'X'}, 54: {'c', 'C'}, 55: {'v', 'V'}, 56: {'b', 'B'},
	57: {'n', 'N'}, 58: {'m', 'M'},
	59: {',', '<'}, 60: {'.', '>'}, 61: {'/', '?'},
}

func lookup(m map[uint16]keyDef, keycode uint16, state uint32) (rune, bool) {
	def, ok := m[keycode]
	if !ok {
		return 0, false
	}
	if state&shiftMask != 0 {
		return def.shifted, true
	}
	return def.plain, true
}
