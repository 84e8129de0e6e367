// Copyright (c) 2021 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package input defines the key bitmask passed to the root process on every
// tick.
package input

import (
	"fmt"
)

// Key is a bit position in the input mask.
type Key uint

const (
	KeyA Key = iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyMinus
	KeyPlus
	KeyEquals
	KeyLBracket
	KeyRBracket
	KeyPeriod
	KeyComma
	KeyColon
	KeySemicolon
	KeyApostrophe
	KeyBackslash
	KeyTab
	KeyEscape
	KeySpace
	KeyBack
	KeyDelete
	KeyReturn

	NumKeys = int(iota)
)

var keyNames = [NumKeys]string{
	KeyMinus:      "minus",
	KeyPlus:       "plus",
	KeyEquals:     "equals",
	KeyLBracket:   "lbracket",
	KeyRBracket:   "rbracket",
	KeyPeriod:     "period",
	KeyComma:      "comma",
	KeyColon:      "colon",
	KeySemicolon:  "semicolon",
	KeyApostrophe: "apostrophe",
	KeyBackslash:  "backslash",
	KeyTab:        "tab",
	KeyEscape:     "escape",
	KeySpace:      "space",
	KeyBack:       "back",
	KeyDelete:     "delete",
	KeyReturn:     "return",
}

func (k Key) String() string {
	switch {
	case k <= KeyZ:
		return string(rune('a' + k))

	case k <= Key9:
		return string(rune('0' + k - Key0))

	case int(k) < NumKeys:
		return keyNames[k]

	default:
		return fmt.Sprintf("key(%d)", uint(k))
	}
}

// Bit of the key in the mask.
func (k Key) Bit() uint64 {
	return 1 << k
}

// Mask of held keys.
func Mask(keys ...Key) (mask uint64) {
	for _, k := range keys {
		mask |= k.Bit()
	}
	return
}

// Held reports if the key's bit is set.
func Held(mask uint64, k Key) bool {
	return mask&k.Bit() != 0
}

// Keys in the mask in bit order.
func Keys(mask uint64) (keys []Key) {
	for k := Key(0); int(k) < NumKeys; k++ {
		if Held(mask, k) {
			keys = append(keys, k)
		}
	}
	return
}

var punctuation = map[byte]Key{
	'-':  KeyMinus,
	'+':  KeyPlus,
	'=':  KeyEquals,
	'[':  KeyLBracket,
	']':  KeyRBracket,
	'.':  KeyPeriod,
	',':  KeyComma,
	':':  KeyColon,
	';':  KeySemicolon,
	'\'': KeyApostrophe,
	'\\': KeyBackslash,
	'\t': KeyTab,
	' ':  KeySpace,
	0x08: KeyBack,
	0x7f: KeyBack,
	'\r': KeyReturn,
	'\n': KeyReturn,
}

const esc = 0x1b

// Decode a terminal byte stream into the keys it mentions.  Letters are case
// insensitive.  A lone escape byte is the escape key; the control sequence
// "ESC [ 3 ~" is the delete key, and other control sequences are ignored.
func Decode(b []byte) (mask uint64) {
	for i := 0; i < len(b); i++ {
		c := b[i]

		switch {
		case c >= 'a' && c <= 'z':
			mask |= (KeyA + Key(c-'a')).Bit()

		case c >= 'A' && c <= 'Z':
			mask |= (KeyA + Key(c-'A')).Bit()

		case c >= '0' && c <= '9':
			mask |= (Key0 + Key(c-'0')).Bit()

		case c == esc:
			if i+1 < len(b) && (b[i+1] == '[' || b[i+1] == 'O') {
				n, k, ok := controlSequence(b[i+2:])
				if ok {
					mask |= k.Bit()
				}
				i += 1 + n
			} else {
				mask |= KeyEscape.Bit()
			}

		default:
			if k, found := punctuation[c]; found {
				mask |= k.Bit()
			}
		}
	}

	return
}

// controlSequence parses parameter bytes and the final byte following the
// introducer.  It returns the number of bytes consumed.
func controlSequence(b []byte) (n int, k Key, ok bool) {
	for n < len(b) {
		c := b[n]
		n++

		if c >= 0x40 && c <= 0x7e {
			if c == '~' && string(b[:n]) == "3~" {
				return n, KeyDelete, true
			}
			return n, 0, false
		}
	}

	return n, 0, false
}
