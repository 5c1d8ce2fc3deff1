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

package run

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/xelalexv/lisahd/pkg/control"
)

//
func NewList() *List {

	l := &List{out: os.Stdout}
	l.Command = *NewCommand(
		"ls [-j|--json]",
		"list supported devices and image formats",
		"\nUse the ls command to list the drive devices and image formats LisaHD supports.",
		"", runnerHelpEpilogue, l.Run)

	l.AddSetting(&l.JSON, "json", "j", "", false, "list in JSON format", false)

	return l
}

//
type List struct {
	//
	Command
	//
	JSON bool
	//
	out io.Writer
}

//
func (l *List) Run() error {

	if err := l.ParseSettings(); err != nil {
		return err
	}

	devices := control.NewDeviceList()
	formats := control.NewFormatList()

	if l.JSON {
		return json.NewEncoder(l.out).Encode(struct {
			*control.DeviceList
			*control.FormatList
		}{devices, formats})
	}

	_, err := fmt.Fprintf(l.out, "%s%s\n", devices, formats)
	return err
}
