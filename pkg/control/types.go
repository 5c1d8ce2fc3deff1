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

package control

import (
	"fmt"
	"strings"

	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/format"
)

//
type Device struct {
	Name          string `json:"name"`
	Class         string `json:"class"`
	DefaultBlocks int    `json:"defaultBlocks"`
}

//
type DeviceList struct {
	Devices []*Device `json:"devices"`
}

// NewDeviceList lists all known devices.
func NewDeviceList() *DeviceList {
	ret := &DeviceList{}
	for _, d := range device.All() {
		ret.Devices = append(ret.Devices, &Device{
			Name:          d.String(),
			Class:         d.Class().String(),
			DefaultBlocks: d.DefaultBlocks(),
		})
	}
	return ret
}

//
func (l *DeviceList) String() string {
	var b strings.Builder
	b.WriteString("\nDEVICE       CLASS     DEFAULT BLOCKS\n")
	for _, d := range l.Devices {
		fmt.Fprintf(&b, "%-12s %-9s %d ($%x)\n",
			d.Name, d.Class, d.DefaultBlocks, d.DefaultBlocks)
	}
	return b.String()
}

//
type Format struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

//
type FormatList struct {
	Formats []*Format `json:"formats"`
}

// NewFormatList lists all image formats.
func NewFormatList() *FormatList {
	ret := &FormatList{}
	for _, f := range format.All() {
		ret.Formats = append(ret.Formats, &Format{
			Name:        f.String(),
			Description: f.Description(),
		})
	}
	return ret
}

//
func (l *FormatList) String() string {
	var b strings.Builder
	b.WriteString("\nFORMAT     DESCRIPTION\n")
	for _, f := range l.Formats {
		fmt.Fprintf(&b, "%-10s %s\n", f.Name, f.Description)
	}
	return b.String()
}
