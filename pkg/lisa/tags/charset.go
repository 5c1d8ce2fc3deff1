/*
   LisaHD - bootable Apple Lisa hard disk image builder
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of LisaHD.

   LisaHD is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   LisaHD is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with LisaHD. If not, see <http://www.gnu.org/licenses/>.
*/

package tags

import (
	"strings"
)

// the characters defined in the Lisa boot ROM's font
const romCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ ./-?"

//
func inROM(r rune) bool {
	return strings.ContainsRune(romCharset, r)
}

// firstInvalid returns the index of the first character in s that the boot
// ROM cannot display, or -1.
func firstInvalid(s string) int {
	return strings.IndexFunc(s, func(r rune) bool { return !inROM(r) })
}
