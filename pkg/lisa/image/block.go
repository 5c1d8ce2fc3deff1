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

package image

import (
	"encoding/hex"
	"fmt"
	"io"
)

// TagLength is the number of tag bytes in a block
const TagLength = 20

// DataLength is the number of data bytes in a block
const DataLength = 0x200

// BlockLength is the length of a block including its tag
const BlockLength = TagLength + DataLength

// Block is a view on one tag and data pair of a Sequence.
type Block struct {
	Tag  []byte
	Data []byte
}

// TagFirst returns a new slice with the tag followed by the data, the way a
// ProFile stores blocks.
func (b *Block) TagFirst() []byte {
	ret := make([]byte, 0, BlockLength)
	return append(append(ret, b.Tag...), b.Data...)
}

// DataFirst returns a new slice with the data followed by the tag.
func (b *Block) DataFirst() []byte {
	ret := make([]byte, 0, BlockLength)
	return append(append(ret, b.Data...), b.Tag...)
}

// Sequence is the list of blocks making up a drive image, in linear order.
// Tags and Data always have the same length.
type Sequence struct {
	Tags [][]byte
	Data [][]byte
}

//
func (s *Sequence) Len() int {
	return len(s.Data)
}

// Block returns the block at index ix, or nil if ix is out of range.
func (s *Sequence) Block(ix int) *Block {
	if ix < 0 || ix >= s.Len() {
		return nil
	}
	return &Block{Tag: s.Tags[ix], Data: s.Data[ix]}
}

// Emit writes a hex dump of the first count blocks to w. A count < 0 emits
// all blocks.
func (s *Sequence) Emit(w io.Writer, count int) error {
	if count < 0 || count > s.Len() {
		count = s.Len()
	}
	for ix := 0; ix < count; ix++ {
		if _, err := fmt.Fprintf(w, "\nBLOCK %d TAG: %+q\n", ix, s.Tags[ix]); err != nil {
			return err
		}
		d := hex.Dumper(w)
		if _, err := d.Write(s.Data[ix]); err != nil {
			return err
		}
		if err := d.Close(); err != nil {
			return err
		}
	}
	return nil
}
