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

package device

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidDevice is returned when looking up an unknown device name
var ErrInvalidDevice = errors.New("invalid drive device type")

// Device is one of the Apple parallel hard drives an image can pretend to be
// imaged from.
type Device int

//
const (
	UNKNOWN Device = iota - 1
	ProFile
	ProFile10
	Widget
)

// Class groups devices whose images get laid out the same way by BLU
type Class int

//
const (
	ClassProFile Class = iota
	ClassWidget
)

//
type profile struct {
	name     string
	blocks   int
	class    Class
	idRecord []byte
}

// number of 532 byte blocks in complete drive images, and the BLU device
// identification record for each device
var profiles = [...]profile{
	ProFile: {
		name:   "profile",
		blocks: 0x2600,
		class:  ClassProFile,
		idRecord: idRecord(
			"PROFILE      ", // device name, 5MB ProFile
			"\x00\x00\x00",  // device number, also means 5MB ProFile
			"\x03\x98",      // firmware revision $0398
			"\x00\x26\x00",  // blocks available, 9728
			"\x02\x14",      // block size, 532 bytes
			"\x20",          // spare blocks on device, 32
			"\x00",          // spare blocks allocated
			"\x00",          // bad blocks allocated
			"\xff\xff\xff",  // end of (empty) spare block list
			"\xff\xff\xff",  // end of (empty) bad block list
		),
	},
	ProFile10: {
		name:   "profile-10",
		blocks: 0x4c00,
		class:  ClassProFile,
		idRecord: idRecord(
			"PROFILE 10M  ",
			"\x00\x00\x01",
			"\x04\x04",
			"\x00\x4c\x00", // 19456 blocks
			"\x02\x14",
			"\x20",
			"\x00",
			"\x00",
			"\xff\xff\xff",
			"\xff\xff\xff",
		),
	},
	Widget: {
		name:   "widget",
		blocks: 0x4c00,
		class:  ClassWidget,
		idRecord: idRecord(
			"Widget-10    ",
			"\x00\x01\x00",  // Device.Widget + Widget.Size + Widget.Type
			"\x1a\x45",      // firmware revision
			"\x00\x4c\x00",  // capacity, 19456 blocks
			"\x02\x14",      // bytes per block
			"\x02\x02",      // cylinders, 514
			"\x02",          // heads
			"\x13",          // sectors, 19
			"\x00\x00\x4c",  // possible spare locations, 76
			"\x00\x00\x00",  // spared blocks
			"\x00\x00\x00",  // bad blocks
		),
	},
}

// IDRecordLength is the size of a BLU device identification record
const IDRecordLength = 0x200

//
func idRecord(fields ...string) []byte {
	ret := make([]byte, IDRecordLength)
	ix := 0
	for _, f := range fields {
		ix += copy(ret[ix:], f)
	}
	return ret
}

// All returns all known devices in declaration order.
func All() []Device {
	return []Device{ProFile, ProFile10, Widget}
}

// Get returns the device for name, or ErrInvalidDevice.
func Get(name string) (Device, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, d := range All() {
		if d.String() == n {
			return d, nil
		}
	}
	return UNKNOWN, errors.Wrapf(ErrInvalidDevice, "'%s'; valid types are %s",
		name, strings.Join(Names(), ", "))
}

// Names returns the names of all known devices.
func Names() []string {
	var ret []string
	for _, d := range All() {
		ret = append(ret, d.String())
	}
	return ret
}

//
func (d Device) valid() bool {
	return ProFile <= d && int(d) < len(profiles)
}

//
func (d Device) String() string {
	if !d.valid() {
		return "<unknown>"
	}
	return profiles[d].name
}

// DefaultBlocks returns the number of blocks on a complete device, or 0 for
// an unknown device.
func (d Device) DefaultBlocks() int {
	if !d.valid() {
		return 0
	}
	return profiles[d].blocks
}

//
func (d Device) Class() Class {
	if !d.valid() {
		return ClassProFile
	}
	return profiles[d].class
}

// IDRecord returns a copy of the BLU identification record for this device,
// or nil if there is none.
func (d Device) IDRecord() []byte {
	if !d.valid() || profiles[d].idRecord == nil {
		return nil
	}
	ret := make([]byte, len(profiles[d].idRecord))
	copy(ret, profiles[d].idRecord)
	return ret
}

//
func (c Class) String() string {

	switch c {

	case ClassProFile:
		return "ProFile"

	case ClassWidget:
		return "Widget"

	default:
		return "<unknown>"
	}
}
