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

package format

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/image"
	"github.com/xelalexv/lisahd/pkg/lisa/interleave"
)

// BLUIDTag is the tag BLU gives to the identification block of its images.
// Other utilities may treat it as a magic number, so it's used verbatim.
const BLUIDTag = "Lisa HD Img BLUV0.90"

// BLUImage is an image for the Basic Lisa Utility. It starts with a block
// sized header holding the device's identification record, followed by all
// blocks with data first.
//
// When BLU writes an image to a Widget, it places tags after the data, as
// LisaOS does on that drive. bootloader_hd expects tags first on any drive, so
// for Widgets the blocks are written tag first to cancel this out. For ProFile
// images, BLU de-interleaves blocks in groups of 32, so these blocks are
// stored permuted, and the image gets padded to a multiple of 32 blocks.
type BLUImage struct{}

//
func NewBLU() *BLUImage {
	return &BLUImage{}
}

//
func (b *BLUImage) Write(seq *image.Sequence, dev device.Device,
	out io.Writer) error {

	id := dev.IDRecord()
	if id == nil {
		return errors.Wrapf(ErrUnsupportedDevice,
			"creating blu images for device '%s'", dev)
	}

	blocks := make([][]byte, seq.Len())
	for ix := range blocks {
		if dev.Class() == device.ClassWidget {
			blocks[ix] = seq.Block(ix).TagFirst()
		} else {
			blocks[ix] = seq.Block(ix).DataFirst()
		}
	}

	if dev.Class() == device.ClassProFile {
		blocks = interleave.Permute(blocks)
	}

	if _, err := out.Write(id); err != nil {
		return err
	}
	if _, err := io.WriteString(out, BLUIDTag); err != nil {
		return err
	}

	for _, bl := range blocks {
		if _, err := out.Write(bl); err != nil {
			return err
		}
	}

	return nil
}

// Read reads a BLU image for dev. The identification record in the image
// has to match that of dev, since it determines the block layout.
func (b *BLUImage) Read(in io.Reader, dev device.Device) (*image.Sequence, error) {

	id := dev.IDRecord()
	if id == nil {
		return nil, errors.Wrapf(ErrUnsupportedDevice,
			"reading blu images for device '%s'", dev)
	}

	header := make([]byte, image.BlockLength)
	if _, err := io.ReadFull(in, header); err != nil {
		return nil, errors.Wrapf(ErrMalformedImage, "reading blu header: %v", err)
	}

	if tag := string(header[device.IDRecordLength:]); tag != BLUIDTag {
		return nil, errors.Wrapf(ErrMalformedImage,
			"header tag is %q, not %q", tag, BLUIDTag)
	}

	if !bytes.Equal(header[:device.IDRecordLength], id) {
		return nil, errors.Wrapf(ErrMalformedImage,
			"identification record is not that of device '%s'", dev)
	}

	blocks, err := readBlocks(in, image.BlockLength)
	if err != nil {
		return nil, err
	}

	if dev.Class() == device.ClassWidget {
		return toSequence(blocks, true), nil
	}

	if len(blocks)%interleave.WindowSize != 0 {
		return nil, errors.Wrapf(ErrMalformedImage,
			"%d blocks are not a multiple of %d", len(blocks),
			interleave.WindowSize)
	}

	return toSequence(interleave.Inverse(blocks), false), nil
}
