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
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/lisahd/pkg/lisa/bootloader"
	"github.com/xelalexv/lisahd/pkg/lisa/format"
	"github.com/xelalexv/lisahd/pkg/lisa/image"
	"github.com/xelalexv/lisahd/pkg/lisa/tags"
	"github.com/xelalexv/lisahd/pkg/util"
)

//
func NewBuild() *Build {

	b := &Build{out: os.Stdout}
	b.Runner = *NewRunner(
		`build [-f|--format {format}] [-d|--device {device}] [-k|--blocks {blocks}]
      [-o|--output {file}] [--force] [-c|--clip] [-t|--tags {tags file}]
      [-b|--bootloader {bootloader}] {program}`,
		"build a bootable hard disk image",
		`
Use the build command to create a bootable Apple Lisa hard disk image from a file
containing raw 68000 machine code. The program gets loaded into memory starting at
location $800, and is then run from that address.`,
		"", `- The program is placed along with the bootloader at the beginning of a newly
  created, otherwise empty disk image. This cannot add a bootloader to an existing
  disk image.

- Lines in the tags file are displayed on the Lisa's screen as the corresponding
  blocks are loaded from the drive. No text is shown for the last block. Only the
  first 18 characters of each line are displayed, and each of these must be a
  numeral, an uppercase Latin letter, a space, or one of "./-?".

- Images with a non-standard number of blocks, and clipped images, may not work
  with most emulators or utility programs.

`+loggingHelp+runnerHelpEpilogue, b.Run)

	b.AddBaseSettings()
	b.AddSetting(&b.Blocks, "blocks", "k", "LISAHD_BLOCKS", 0,
		`number of blocks in the image; 0 means the device's
default, or the minimal length when clipping`, false)
	b.AddSetting(&b.Output, "output", "o", "", nil,
		"image output file; when omitted, the image is written to stdout", false)
	b.AddSetting(&b.Force, "force", "", "", false,
		"force overwriting output file", false)
	b.AddSetting(&b.Clip, "clip", "c", "", false,
		`clip image to only the blocks required to store
bootloader and program`, false)
	b.AddSetting(&b.TagsFile, "tags", "t", "", nil,
		"text file with per-block loading display tags, one per line", false)
	b.AddSetting(&b.Bootloader, "bootloader", "b", "LISAHD_BOOTLOADER", nil,
		"bootloader_hd binary; built-in copy is used when omitted", false)

	return b
}

//
type Build struct {
	//
	Runner
	//
	Blocks     int
	Output     string
	Force      bool
	Clip       bool
	TagsFile   string
	Bootloader string
	//
	out io.Writer
}

//
func (b *Build) Run() error {

	if err := b.ParseSettings(); err != nil {
		return err
	}

	if len(b.Args) != 1 {
		return fmt.Errorf("you need to specify exactly one program file")
	}

	dev, fm, err := b.resolve()
	if err != nil {
		return err
	}

	blocks := b.Blocks
	if blocks == 0 {
		blocks = dev.DefaultBlocks()
	}
	if blocks < image.MinBlocks {
		return errors.Wrapf(image.ErrTooFewBlocks,
			"a disk image of %d blocks", blocks)
	}

	program, err := util.ReadFile(
		b.Args[0], "program", image.DataLength*(blocks-2))
	if err != nil {
		return err
	}

	var boot []byte
	if b.Bootloader != "" {
		if boot, err = util.ReadFile(
			b.Bootloader, "bootloader", bootloader.MaxLength); err != nil {
			return err
		}
	}

	var src tags.Source
	if b.TagsFile != "" {
		f, err := os.Open(b.TagsFile)
		if err != nil {
			return err
		}
		defer f.Close()
		src = tags.NewLineSource(f)
	}

	seq, err := image.Assemble(&image.Options{
		Device:     dev,
		Program:    program,
		Bootloader: boot,
		Tags:       src,
		Blocks:     b.Blocks,
		Clip:       b.Clip,
	})
	if err != nil {
		return err
	}

	img, err := format.Encode(seq, dev, fm)
	if err != nil {
		return err
	}

	if b.Output == "" {
		_, err = b.out.Write(img)
		return err
	}

	if err := util.WriteFile(b.Output, img, b.Force); err != nil {
		return err
	}

	log.Infof("%s image for %s with %d blocks written to %s",
		fm, dev, seq.Len(), b.Output)
	return nil
}
