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

// Package interleave rearranges blocks in 32 block windows. LisaEm and BLU
// both de-interleave the 5:1 sector interleaving LisaOS uses on ProFiles when
// reading an image, so images for them have to be laid out with this
// permutation applied to cancel that out.
package interleave

// WindowSize is the number of items permuted as one unit
const WindowSize = 32

// Table maps item j of each window to position Table[j].
var Table = [WindowSize]int{
	0, 13, 10, 7, 4,
	1, 14, 11, 8, 5,
	2, 15, 12, 9, 6,
	3,
	16, 29, 26, 23, 20,
	17, 30, 27, 24, 21,
	18, 31, 28, 25, 22,
	19,
}

// Permute applies Table to each consecutive window of items. A final short
// window is padded with zero filled items as long as its first item, and the
// padding stays in the result, so the result length is always a multiple of
// WindowSize. The items themselves are not copied.
func Permute(items [][]byte) [][]byte {
	ret := make([][]byte, 0, padded(len(items)))
	for start := 0; start < len(items); start += WindowSize {
		end := start + WindowSize
		if end > len(items) {
			end = len(items)
		}
		win := items[start:end]
		out := make([][]byte, WindowSize)
		for j, item := range win {
			out[Table[j]] = item
		}
		for ix := range out {
			if out[ix] == nil {
				out[ix] = make([]byte, len(win[0]))
			}
		}
		ret = append(ret, out...)
	}
	return ret
}

// Inverse undoes Permute. Padding items added by Permute are kept.
func Inverse(items [][]byte) [][]byte {
	ret := make([][]byte, 0, padded(len(items)))
	for start := 0; start < len(items); start += WindowSize {
		end := start + WindowSize
		if end > len(items) {
			end = len(items)
		}
		win := items[start:end]
		out := make([][]byte, len(win))
		for j := range out {
			if Table[j] < len(win) {
				out[j] = win[Table[j]]
			} else {
				out[j] = make([]byte, len(win[0]))
			}
		}
		ret = append(ret, out...)
	}
	return ret
}

//
func padded(n int) int {
	return (n + WindowSize - 1) / WindowSize * WindowSize
}
