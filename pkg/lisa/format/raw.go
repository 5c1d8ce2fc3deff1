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
	"io"

	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/image"
)

// RawImage is a concatenation of all blocks as if read from the drive in
// sequential order, tag first. Suitable for IDLE and Cameo/Aphid.
type RawImage struct{}

//
func NewRaw() *RawImage {
	return &RawImage{}
}

//
func (r *RawImage) Write(seq *image.Sequence, dev device.Device,
	out io.Writer) error {
	return writeSequential(seq, out, nil)
}

//
func (r *RawImage) Read(in io.Reader, dev device.Device) (*image.Sequence, error) {
	blocks, err := readBlocks(in, image.BlockLength)
	if err != nil {
		return nil, err
	}
	return toSequence(blocks, true), nil
}

// USBWidExImage is a raw image with every block padded to 1024 bytes, as
// stored by the IDEFile ProFile emulator. UsbWidEx reads these with image
// options "Y, N, N".
type USBWidExImage struct{}

// USBWidExBlockLength is the stride of blocks in a UsbWidEx image
const USBWidExBlockLength = 0x400

//
func NewUSBWidEx() *USBWidExImage {
	return &USBWidExImage{}
}

//
func (u *USBWidExImage) Write(seq *image.Sequence, dev device.Device,
	out io.Writer) error {
	return writeSequential(
		seq, out, make([]byte, USBWidExBlockLength-image.BlockLength))
}

//
func (u *USBWidExImage) Read(in io.Reader, dev device.Device) (
	*image.Sequence, error) {
	blocks, err := readBlocks(in, USBWidExBlockLength)
	if err != nil {
		return nil, err
	}
	return toSequence(blocks, true), nil
}

//
func writeSequential(seq *image.Sequence, out io.Writer, padding []byte) error {

	for ix := 0; ix < seq.Len(); ix++ {

		if _, err := out.Write(seq.Tags[ix]); err != nil {
			return err
		}

		if _, err := out.Write(seq.Data[ix]); err != nil {
			return err
		}

		if len(padding) > 0 {
			if _, err := out.Write(padding); err != nil {
				return err
			}
		}
	}

	return nil
}
