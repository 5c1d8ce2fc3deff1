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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/format"
)

//
func NewDump() *Dump {

	d := &Dump{out: os.Stdout}
	d.Runner = *NewRunner(
		`dump [-f|--format {format}] [-d|--device {device}] [-n|--blocks {count}]
      {image}`,
		"hex dump of a disk image",
		`
Use the dump command to output a hex dump of the blocks in a disk image, in the
order in which the Lisa reads them. The image's checksums are verified along
the way.`,
		"", `- When no format is given, it is derived from the image file's extension.

`+loggingHelp+runnerHelpEpilogue, d.Run)

	d.AddSetting(&d.Device, "device", "d", "LISAHD_DEVICE",
		device.ProFile.String(), "drive device type, one of "+
			listOf(device.Names()), false)
	d.AddSetting(&d.Format, "format", "f", "", nil,
		"image format, one of "+listOf(format.Names()), false)
	d.AddSetting(&d.Blocks, "blocks", "n", "", 0,
		"number of blocks to dump; 0 dumps all blocks", false)

	return d
}

//
type Dump struct {
	//
	Runner
	//
	Blocks int
	//
	out io.Writer
}

//
func (d *Dump) Run() error {

	if err := d.ParseSettings(); err != nil {
		return err
	}

	if len(d.Args) != 1 {
		return fmt.Errorf("you need to specify exactly one image file")
	}
	file := d.Args[0]

	if d.Format == "" {
		d.Format = strings.TrimPrefix(filepath.Ext(file), ".")
	}

	dev, fm, err := d.resolve()
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	seq, err := format.Decode(bufio.NewReader(f), dev, fm)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(d.out, "\n%s image for %s, %d blocks\n",
		fm, dev, seq.Len()); err != nil {
		return err
	}

	count := d.Blocks
	if count <= 0 {
		count = -1
	}
	if err := seq.Emit(d.out, count); err != nil {
		return err
	}

	_, err = fmt.Fprintln(d.out)
	return err
}
