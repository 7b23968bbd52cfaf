package config

// keyCodeNames maps the string names used in layer configuration files
// to the Linux evdev event codes they name (linux/input-event-codes.h).
// Only the common alphanumeric/control subset is enumerated; extend as
// needed for a given matrix.
var keyCodeNames = map[string]uint16{
	"KC_ESC":        1,
	"KC_1":          2,
	"KC_2":          3,
	"KC_3":          4,
	"KC_4":          5,
	"KC_5":          6,
	"KC_6":          7,
	"KC_7":          8,
	"KC_8":          9,
	"KC_9":          10,
	"KC_0":          11,
	"KC_MINUS":      12,
	"KC_EQUAL":      13,
	"KC_BACKSPACE":  14,
	"KC_TAB":        15,
	"KC_Q":          16,
	"KC_W":          17,
	"KC_E":          18,
	"KC_R":          19,
	"KC_T":          20,
	"KC_Y":          21,
	"KC_U":          22,
	"KC_I":          23,
	"KC_O":          24,
	"KC_P":          25,
	"KC_LEFTBRACE":  26,
	"KC_RIGHTBRACE": 27,
	"KC_ENTER":      28,
	"KC_LCTRL":      29,
	"KC_A":          30,
	"KC_S":          31,
	"KC_D":          32,
	"KC_F":          33,
	"KC_G":          34,
	"KC_H":          35,
	"KC_J":          36,
	"KC_K":          37,
	"KC_L":          38,
	"KC_SEMICOLON":  39,
	"KC_APOSTROPHE": 40,
	"KC_GRAVE":      41,
	"KC_LSHIFT":     42,
	"KC_BACKSLASH":  43,
	"KC_Z":          44,
	"KC_X":          45,
	"KC_C":          46,
	"KC_V":          47,
	"KC_B":          48,
	"KC_N":          49,
	"KC_M":          50,
	"KC_COMMA":      51,
	"KC_DOT":        52,
	"KC_SLASH":      53,
	"KC_RSHIFT":     54,
	"KC_KPASTERISK": 55,
	"KC_LALT":       56,
	"KC_SPACE":      57,
	"KC_CAPSLOCK":   58,
	"KC_F1":         59,
	"KC_F2":         60,
	"KC_F3":         61,
	"KC_F4":         62,
	"KC_F5":         63,
	"KC_F6":         64,
	"KC_F7":         65,
	"KC_F8":         66,
	"KC_F9":         67,
	"KC_F10":        68,
	"KC_NUMLOCK":    69,
	"KC_SCROLLLOCK": 70,
	"KC_KP7":        71,
	"KC_KP8":        72,
	"KC_KP9":        73,
	"KC_KPMINUS":    74,
	"KC_KP4":        75,
	"KC_KP5":        76,
	"KC_KP6":        77,
	"KC_KPPLUS":     78,
	"KC_KP1":        79,
	"KC_KP2":        80,
	"KC_KP3":        81,
	"KC_KP0":        82,
	"KC_KPDOT":      83,
	"KC_F11":        87,
	"KC_F12":        88,
	"KC_LMETA":      125,
	"KC_RMETA":      126,
}

func lookupRegularCode(name string) (uint16, bool) {
	code, ok := keyCodeNames[name]
	return code, ok
}
