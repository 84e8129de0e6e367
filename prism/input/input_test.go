// Copyright (c) 2021 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayout(t *testing.T) {
	assert.Equal(t, Key(0), KeyA)
	assert.Equal(t, Key(25), KeyZ)
	assert.Equal(t, Key(26), Key0)
	assert.Equal(t, Key(35), Key9)
	assert.Equal(t, Key(36), KeyMinus)
	assert.Equal(t, Key(46), KeyBackslash)
	assert.Equal(t, Key(47), KeyTab)
	assert.Equal(t, Key(48), KeyEscape)
	assert.Equal(t, Key(49), KeySpace)
	assert.Equal(t, Key(50), KeyBack)
	assert.Equal(t, Key(51), KeyDelete)
	assert.Equal(t, Key(52), KeyReturn)
	assert.Equal(t, 53, NumKeys)
}

func TestString(t *testing.T) {
	assert.Equal(t, "a", KeyA.String())
	assert.Equal(t, "z", KeyZ.String())
	assert.Equal(t, "0", Key0.String())
	assert.Equal(t, "9", Key9.String())
	assert.Equal(t, "return", KeyReturn.String())
	assert.Equal(t, "key(60)", Key(60).String())

	for k := Key(0); int(k) < NumKeys; k++ {
		assert.NotEmpty(t, k.String())
	}
}

func TestMask(t *testing.T) {
	mask := Mask(KeyA, KeySpace, KeyReturn)
	assert.Equal(t, uint64(1|1<<49|1<<52), mask)

	assert.True(t, Held(mask, KeySpace))
	assert.False(t, Held(mask, KeyB))
	assert.Equal(t, []Key{KeyA, KeySpace, KeyReturn}, Keys(mask))
	assert.Empty(t, Keys(0))
}

func TestDecode(t *testing.T) {
	for s, keys := range map[string][]Key{
		"":            nil,
		"a":           {KeyA},
		"A":           {KeyA},
		"wasd":        {KeyA, KeyD, KeyS, KeyW},
		"09":          {Key0, Key9},
		"-+=[].,:;'\\": {KeyMinus, KeyPlus, KeyEquals, KeyLBracket, KeyRBracket, KeyPeriod, KeyComma, KeyColon, KeySemicolon, KeyApostrophe, KeyBackslash},
		"\t \r":       {KeyTab, KeySpace, KeyReturn},
		"\n":          {KeyReturn},
		"\x7f":        {KeyBack},
		"\x08":        {KeyBack},
		"\x1b":        {KeyEscape},
		"\x1b[3~":     {KeyDelete},
		"\x1b[A":      nil,
		"\x1b[1;5Cx":  {KeyX},
		"\x1bOP":      nil,
		"\x1b[":       nil,
		"\x1bx":       {KeyX, KeyEscape},
		"!@#":         nil,
	} {
		assert.Equal(t, Mask(keys...), Decode([]byte(s)), "%q", s)
	}
}
