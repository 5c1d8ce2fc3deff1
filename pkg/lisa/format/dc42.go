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
	"encoding/binary"
	"io"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/xelalexv/lisahd/pkg/lisa/checksum"
	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/image"
	"github.com/xelalexv/lisahd/pkg/lisa/interleave"
)

// DC42 header values as used by LisaEm
const (
	DC42Name     = "-not a Macintosh disk-"
	DC42Encoding = 0x5d
	DC42Format   = 0x93
	DC42Magic    = 0x0100
)

// DC42HeaderLength is the size of a DC42 header in bytes
const DC42HeaderLength = 84

// the first bytes of the tag stream are left out of its checksum, as DiskCopy
// does
const dc42TagChecksumSkip = 12

// offsets of the checksums within the header
const (
	dc42DataChecksumOffset = 72
	dc42TagChecksumOffset  = 76
)

//
type dc42Header struct {
	Name         [64]byte
	DataLength   uint32
	TagLength    uint32
	DataChecksum uint32
	TagChecksum  uint32
	Encoding     byte
	Format       byte
	Magic        uint16
}

// DC42Image is a Disk Copy 4.2 image as used by LisaEm. In every group of
// 32 blocks, LisaEm moves block n to position interleave.Table[n] when
// reading a hard disk image, so blocks are stored permuted. This pads the
// image to the next multiple of 32 blocks.
type DC42Image struct{}

//
func NewDC42() *DC42Image {
	return &DC42Image{}
}

//
func (d *DC42Image) Write(seq *image.Sequence, dev device.Device,
	out io.Writer) error {

	data := bytes.Join(interleave.Permute(seq.Data), nil)
	tags := bytes.Join(interleave.Permute(seq.Tags), nil)

	hd := dc42Header{
		DataLength:   uint32(len(data)),
		TagLength:    uint32(len(tags)),
		DataChecksum: checksum.ContainerSum(data),
		Encoding:     DC42Encoding,
		Format:       DC42Format,
		Magic:        DC42Magic,
	}

	// Pascal string
	hd.Name[0] = byte(copy(hd.Name[1:], DC42Name))

	if len(tags) > dc42TagChecksumSkip {
		hd.TagChecksum = checksum.ContainerSum(tags[dc42TagChecksumSkip:])
	}

	if err := binary.Write(out, binary.BigEndian, &hd); err != nil {
		return err
	}

	if _, err := out.Write(data); err != nil {
		return err
	}

	_, err := out.Write(tags)
	return err
}

// Read reads a DC42 image and verifies its checksums. The blocks are returned
// de-interleaved, including the padding to a multiple of 32 blocks.
func (d *DC42Image) Read(in io.Reader, dev device.Device) (*image.Sequence, error) {

	raw, err := ioutil.ReadAll(in)
	if err != nil {
		return nil, err
	}

	if len(raw) < DC42HeaderLength {
		return nil, errors.Wrapf(ErrMalformedImage,
			"%d bytes are too short for a DC42 header", len(raw))
	}

	header := raw[:DC42HeaderLength]
	var hd dc42Header
	if err := binary.Read(
		bytes.NewReader(header), binary.BigEndian, &hd); err != nil {
		return nil, err
	}

	if hd.Magic != DC42Magic {
		return nil, errors.Wrapf(ErrMalformedImage,
			"magic number is 0x%04x, not 0x%04x", hd.Magic, DC42Magic)
	}

	if hd.DataLength%image.DataLength != 0 ||
		hd.TagLength%image.TagLength != 0 ||
		hd.DataLength/image.DataLength != hd.TagLength/image.TagLength {
		return nil, errors.Wrapf(ErrMalformedImage,
			"%d data bytes and %d tag bytes don't make up whole blocks",
			hd.DataLength, hd.TagLength)
	}

	body := raw[DC42HeaderLength:]
	if uint64(len(body)) != uint64(hd.DataLength)+uint64(hd.TagLength) {
		return nil, errors.Wrapf(ErrMalformedImage,
			"header announces %d bytes, but image holds %d bytes",
			uint64(hd.DataLength)+uint64(hd.TagLength), len(body))
	}

	data := body[:hd.DataLength]
	tags := body[hd.DataLength:]

	if sum := checksum.Container(data); !bytes.Equal(sum,
		header[dc42DataChecksumOffset:dc42DataChecksumOffset+checksum.ContainerLength]) {
		return nil, errors.Wrapf(ErrChecksumMismatch, "data checksum is %x", sum)
	}

	sum := make([]byte, checksum.ContainerLength)
	if len(tags) > dc42TagChecksumSkip {
		sum = checksum.Container(tags[dc42TagChecksumSkip:])
	}
	if !bytes.Equal(sum,
		header[dc42TagChecksumOffset:dc42TagChecksumOffset+checksum.ContainerLength]) {
		return nil, errors.Wrapf(ErrChecksumMismatch, "tag checksum is %x", sum)
	}

	return &image.Sequence{
		Tags: interleave.Inverse(split(tags, image.TagLength)),
		Data: interleave.Inverse(split(data, image.DataLength)),
	}, nil
}
