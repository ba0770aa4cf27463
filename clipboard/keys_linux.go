//go:build linux

package clipboard

type keyStroke struct {
	code  uint16
	shift bool
}

// US QWERTY rows: each run of characters maps to consecutive key codes
// starting at first.
var qwertyRows = []struct {
	first        uint16
	plain, shift string
}{
	{2, "1234567890-=", "!@#$%^&*()_+"},
	{16, "qwertyuiop[]", "QWERTYUIOP{}"},
	{30, "asdfghjkl;'`", "ASDFGHJKL:\"~"},
	{43, `\zxcvbnm,./`, "|ZXCVBNM<>?"},
}

var keys = buildKeys()

func buildKeys() map[byte]keyStroke {
	m := map[byte]keyStroke{
		' ':  {code: 57},
		'\t': {code: 15},
	}
	for _, row := range qwertyRows {
		for i := 0; i < len(row.plain); i++ {
			code := row.first + uint16(i)
			m[row.plain[i]] = keyStroke{code: code}
			m[row.shift[i]] = keyStroke{code: code, shift: true}
		}
	}
	return m
}

// TypeKeys types the ASCII characters of text one key at a time through the
// virtual keyboard. Characters without a key are skipped. Newlines are among
// them, so a dictated line never submits itself.
func TypeKeys(text string) error {
	if err := Init(); err != nil {
		return err
	}
	for i := 0; i < len(text); i++ {
		k, ok := keys[text[i]]
		if !ok {
			continue
		}
		var mods []uint16
		if k.shift {
			mods = append(mods, keyLeftShift)
		}
		if err := kbd.chord(k.code, mods...); err != nil {
			return err
		}
	}
	return nil
}

func fallbackTyper() func(string) error { return TypeKeys }
