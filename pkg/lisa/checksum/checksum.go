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

// Package checksum implements the two checksums found in Lisa hard disk
// images: the per-block checksum that bootloader_hd verifies while loading a
// program, and the DiskCopy 4.2 container checksum.
package checksum

import (
	"encoding/binary"
)

// BlockLength is the length of a block checksum in bytes
const BlockLength = 2

// ContainerLength is the length of a container checksum in bytes
const ContainerLength = 4

// BlockSum computes the add-and-rotate-left 16 bit checksum over the big
// endian words in buf, and returns its two's complement. A trailing odd byte
// is ignored.
func BlockSum(buf []byte) uint16 {
	var sum uint16
	for ix := 0; ix+1 < len(buf); ix += 2 {
		sum += binary.BigEndian.Uint16(buf[ix:])
		sum = sum<<1 | sum>>15
	}
	return -sum
}

// Block returns BlockSum for buf as big endian bytes.
func Block(buf []byte) []byte {
	ret := make([]byte, BlockLength)
	binary.BigEndian.PutUint16(ret, BlockSum(buf))
	return ret
}

// ContainerSum computes the add-and-rotate-right 32 bit checksum over the big
// endian words in buf, as used by DiskCopy 4.2. A trailing odd byte is ignored.
func ContainerSum(buf []byte) uint32 {
	var sum uint32
	for ix := 0; ix+1 < len(buf); ix += 2 {
		sum += uint32(binary.BigEndian.Uint16(buf[ix:]))
		sum = sum>>1 | sum<<31
	}
	return sum
}

// Container returns ContainerSum for buf as big endian bytes.
func Container(buf []byte) []byte {
	ret := make([]byte, ContainerLength)
	binary.BigEndian.PutUint32(ret, ContainerSum(buf))
	return ret
}
