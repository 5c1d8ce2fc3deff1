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
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/image"
)

//
var (
	ErrUnknownFormat     = errors.New("unrecognised disk image format")
	ErrUnsupportedDevice = errors.New("device not supported by format")
	ErrMalformedSequence = errors.New("malformed block sequence")
	ErrMalformedImage    = errors.New("malformed disk image")
	ErrChecksumMismatch  = errors.New("disk image checksum mismatch")
)

// Format is a container format for drive images
type Format int

//
const (
	UNKNOWN Format = iota - 1
	DC42
	BLU
	Raw
	USBWidEx
)

var formatNames = [...]string{
	DC42:     "dc42",
	BLU:      "blu",
	Raw:      "raw",
	USBWidEx: "usbwidex",
}

// All returns all formats, the default format first.
func All() []Format {
	return []Format{DC42, BLU, Raw, USBWidEx}
}

// Get returns the format with the given name, or ErrUnknownFormat.
func Get(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, f := range All() {
		if f.String() == n {
			return f, nil
		}
	}
	return UNKNOWN, errors.Wrapf(ErrUnknownFormat, "'%s'", name)
}

// Names returns the names of all formats.
func Names() []string {
	var ret []string
	for _, f := range All() {
		ret = append(ret, f.String())
	}
	return ret
}

//
func (f Format) String() string {
	if f < DC42 || int(f) >= len(formatNames) {
		return "<unknown>"
	}
	return formatNames[f]
}

// Description returns which tools the format is meant for.
func (f Format) Description() string {

	switch f {

	case DC42:
		return "Disk Copy 4.2 image for the LisaEm emulator"

	case BLU:
		return "image for the Basic Lisa Utility"

	case Raw:
		return "sequential blocks for Cameo/Aphid and IDLE"

	case USBWidEx:
		return "IDEFile storage format, for the UsbWidEx diagnostic tool"

	default:
		return ""
	}
}

// Reader interface for reading in a drive image
type Reader interface {
	// Read reads an image for device dev. Blocks are returned in linear order,
	// including any padding blocks the format added.
	Read(in io.Reader, dev device.Device) (*image.Sequence, error)
}

// Writer interface for writing out a drive image
type Writer interface {
	Write(seq *image.Sequence, dev device.Device, out io.Writer) error
}

// ReaderWriter interface for reading/writing a drive image
type ReaderWriter interface {
	Reader
	Writer
}

//
func NewFormat(f Format) (ReaderWriter, error) {

	switch f {

	case DC42:
		return NewDC42(), nil

	case BLU:
		return NewBLU(), nil

	case Raw:
		return NewRaw(), nil

	case USBWidEx:
		return NewUSBWidEx(), nil

	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%d", int(f))
	}
}

// Encode renders the blocks in seq as a complete image in format f. Nothing
// is returned unless the whole image could be created.
func Encode(seq *image.Sequence, dev device.Device, f Format) ([]byte, error) {

	w, err := NewFormat(f)
	if err != nil {
		return nil, err
	}

	if err := validate(seq); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := w.Write(seq, dev, buf); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"format": f,
		"device": dev,
		"bytes":  buf.Len(),
	}).Debug("image encoded")

	return buf.Bytes(), nil
}

// Decode reads an image in format f for device dev from in.
func Decode(in io.Reader, dev device.Device, f Format) (*image.Sequence, error) {

	r, err := NewFormat(f)
	if err != nil {
		return nil, err
	}

	seq, err := r.Read(in, dev)
	if err != nil {
		return nil, err
	}

	if err := validate(seq); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"format": f,
		"device": dev,
		"blocks": seq.Len(),
	}).Debug("image decoded")

	return seq, nil
}

// readBlocks reads in completely as consecutive chunks of stride bytes
func readBlocks(in io.Reader, stride int) ([][]byte, error) {

	data, err := ioutil.ReadAll(in)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 || len(data)%stride != 0 {
		return nil, errors.Wrapf(ErrMalformedImage,
			"%d bytes are not a whole number of %d byte blocks", len(data), stride)
	}

	return split(data, stride), nil
}

// split cuts data into chunks of size bytes, sharing data's storage
func split(data []byte, size int) [][]byte {
	ret := make([][]byte, 0, len(data)/size)
	for start := 0; start+size <= len(data); start += size {
		ret = append(ret, data[start:start+size:start+size])
	}
	return ret
}

// toSequence separates the tag and data in each of blocks. Any bytes beyond
// image.BlockLength are ignored.
func toSequence(blocks [][]byte, tagFirst bool) *image.Sequence {
	seq := &image.Sequence{
		Tags: make([][]byte, len(blocks)),
		Data: make([][]byte, len(blocks)),
	}
	for ix, b := range blocks {
		if tagFirst {
			seq.Tags[ix] = b[:image.TagLength]
			seq.Data[ix] = b[image.TagLength:image.BlockLength]
		} else {
			seq.Data[ix] = b[:image.DataLength]
			seq.Tags[ix] = b[image.DataLength:image.BlockLength]
		}
	}
	return seq
}

//
func validate(seq *image.Sequence) error {

	if seq == nil || seq.Len() == 0 {
		return errors.Wrap(ErrMalformedSequence, "no blocks")
	}

	if len(seq.Tags) != len(seq.Data) {
		return errors.Wrapf(ErrMalformedSequence, "%d tags for %d blocks",
			len(seq.Tags), len(seq.Data))
	}

	for ix := range seq.Data {
		if len(seq.Tags[ix]) != image.TagLength ||
			len(seq.Data[ix]) != image.DataLength {
			return errors.Wrapf(ErrMalformedSequence,
				"block %d has %d tag and %d data bytes",
				ix, len(seq.Tags[ix]), len(seq.Data[ix]))
		}
	}

	return nil
}
