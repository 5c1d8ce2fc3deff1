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

// Package bootloader holds the built-in copy of bootloader_hd, released on
// 30 March 2020. Besides loading the program, it carries an entire ProFile I/O
// library.
package bootloader

import (
	"encoding/base64"

	"github.com/pkg/errors"
)

// MaxLength is the size of two 532 byte blocks, tags included
const MaxLength = 1064

// built-in bootloader, MC68000 machine code
const builtIn = `
WW8hIKqqIEknbSBib290YWJsZSEQOAGzYRphAACcckDliTQ8CgNB+gHsYQABKmcAAvBOQDI8APxI
QTI83YEiQZL8BIB0BFcAaxxRAGoYdBAyPOABBEFAAFYAa/hTAGcEBkEIACJBQfoAKiDB0kIgwUXp
AGAgykXpABAgyiDJRekAGCDKRekAeCDKRekACCDKTnU8LS0tLVpvbmUgZm9yIFZJQSBhZGRyZXNz
ZXMtLS0tPgAAU1RBVEjnAPxB+v/UTNA/AAAQAKAAEQCgAhIAewASAGsavAAAABQAGAIUAPsCEwD8
ABMAHAgUAABM3z8ATnVCEQISAO8WvAAASEAwPP//CBIAAWcKTnFOcVHI//RgJEhAsBRW0VfAAkAA
VQISAOcWvAD/GIAAEgAQSEBCQOSIYRJmBAARAAEWvAAAABIAGEoRTnVSgAgSAAFmBFOAZvZOdWCc
SOcAfEP6/0ZM2TwAQOcAfAcAQhFwCEhAYdZmBlQRYAAAgHABYdhrAAB4Zw5wCO2IYb5nbHABYcZm
ZgISAPcWvAD/cAMageGZUcj/+uFaGoLhWhqCFrwAAAASAAgQAVQAYZxmPDA8AhNKAWceAhIA9xa8
AP8amFHI//wWvAAAABIACHAGYQD/FmYWSfr+0hjVGNUY1RjVSgFmBhDVUcj//EbfShFM3z4ATnUA
AAAAAAAAAAAAAAAAAAAAAAAAACBiaXQubHkvM2FydWNOSiAgAAAAMHwIANKHYQD/JmY2YTpnHkIo
ABJI52GAR+gAAnoNfBh4GE65AP4AiEzfAYZg1kH6/dxD+v5cRfr+9kf6/k5O+AgAR/oAWGBIkPwC
FCJITNl8AHB/INlRyP/8SNB8AEjnYYCQ/AIAMDwBAEJBTrkA/gC8TN8BhmUUQ+gAAkX6/24QGrAZ
ZgRKAGb2TnVH+gA7IAHgiJXKTrkA/gCEUkVBRCBFUlJPUi4uLiBTRUNUT1IgTlVNIFNIT1dOIElO
IEVSUk9SIENPREUAQkFEIENIRUNLU1VNLi4uIFNFQ1RPUiBOVU0gU0hPV04gSU4gRVJST1IgQ09E
RQAwPALsIHgCqND8gACQwEP6/QRTQBDZUcj//C4BkPwA+E7Q
`

// BuiltIn returns a fresh copy of the built-in bootloader binary.
func BuiltIn() []byte {
	ret, err := base64.StdEncoding.DecodeString(builtIn)
	if err != nil {
		panic(errors.Wrap(err, "corrupt built-in bootloader"))
	}
	return ret
}
