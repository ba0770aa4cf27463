package trigger

import "golang.design/x/hotkey"

func hotkeyModifiers(m Modifier) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if m.Has(ModCtrl) {
		mods = append(mods, hotkey.ModCtrl)
	}
	if m.Has(ModAlt) {
		mods = append(mods, hotkey.ModOption)
	}
	if m.Has(ModShift) {
		mods = append(mods, hotkey.ModShift)
	}
	if m.Has(ModCmd) {
		mods = append(mods, hotkey.ModCmd)
	}
	return mods
}
