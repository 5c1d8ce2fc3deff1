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

// Package image assembles the tags and data of a bootable drive image from a
// bootloader, a program, and display labels.
package image

import (
	"os"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/lisahd/pkg/lisa/bootloader"
	"github.com/xelalexv/lisahd/pkg/lisa/checksum"
	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/tags"
)

// LastBlockTag makes up all but the checksum bytes of the tag of the last
// block that the bootloader should load. It is not shown to the user.
const LastBlockTag = " bit.ly/3arucNJ  \x00"

// below this many program blocks, checksums are not worth spreading out
const checksumChunkMin = 256

// MinBlocks is the smallest image that still has room for program data
const MinBlocks = 3

//
var (
	ErrEmptyProgram         = errors.New("no program data")
	ErrTooFewBlocks         = errors.New("no room for any program data")
	ErrBootloaderSize       = errors.New("bootloader too large")
	ErrInsufficientCapacity = errors.New("program too large")
)

// Options for assembling an image
type Options struct {
	Device  device.Device
	Program []byte
	// when empty, the built-in bootloader is used
	Bootloader []byte
	// when nil, default labels are used
	Tags tags.Source
	// number of blocks in the image; when 0, the device default is used, or
	// the smallest possible count if Clip is set
	Blocks int
	Clip   bool
	// receives warnings about clipped labels; logs them when nil
	Warn func(format string, args ...interface{})
}

// ProgramBlocks returns the number of blocks needed to store size bytes.
func ProgramBlocks(size int) int {
	return (size + DataLength - 1) / DataLength
}

// Assemble creates tags and data for all blocks of a bootable drive image.
func Assemble(opts *Options) (*Sequence, error) {

	dev := opts.Device
	if dev.DefaultBlocks() == 0 {
		return nil, errors.Wrapf(device.ErrInvalidDevice, "%d", int(dev))
	}

	size := len(opts.Program)
	if size == 0 {
		return nil, ErrEmptyProgram
	}
	programBlocks := ProgramBlocks(size)

	numBlocks := opts.Blocks
	if numBlocks == 0 {
		if opts.Clip {
			numBlocks = programBlocks + 2
		} else {
			numBlocks = dev.DefaultBlocks()
		}
	}
	if numBlocks < MinBlocks {
		return nil, errors.Wrapf(ErrTooFewBlocks,
			"a disk image of %d blocks", numBlocks)
	}

	boot := opts.Bootloader
	if len(boot) == 0 {
		boot = bootloader.BuiltIn()
	}
	if len(boot) > bootloader.MaxLength {
		return nil, errors.Wrapf(ErrBootloaderSize,
			"bootloader was %d bytes long, but can be no larger than %d bytes "+
				"(two %d byte blocks)", len(boot), bootloader.MaxLength, BlockLength)
	}
	boot = pad(boot, bootloader.MaxLength)

	dataSpace := DataLength * (numBlocks - 2)
	if size > dataSpace {
		return nil, errors.Wrapf(ErrInsufficientCapacity,
			"program data of length %d bytes exceeds the %d non-bootloader "+
				"bytes available in a %d block %s image",
			size, dataSpace, numBlocks, dev)
	}

	src := opts.Tags
	if src == nil {
		src = tags.NewDefaultSource()
	}
	warn := opts.Warn
	if warn == nil {
		warn = log.Warnf
	}

	seq := &Sequence{
		Tags: make([][]byte, 0, numBlocks),
		Data: make([][]byte, 0, numBlocks),
	}

	seq.Tags = append(seq.Tags,
		boot[:TagLength], boot[BlockLength:BlockLength+TagLength])
	seq.Data = append(seq.Data,
		boot[TagLength:BlockLength], boot[BlockLength+TagLength:])

	program := pad(opts.Program, dataSpace)
	for ix := 0; ix < numBlocks-2; ix++ {
		seq.Data = append(seq.Data, program[ix*DataLength:(ix+1)*DataLength])
	}

	sums := blockChecksums(seq.Data[2 : 2+programBlocks])

	for ix, sum := range sums {
		tag := make([]byte, 0, TagLength)
		tag = append(tag, sum...)

		if ix == len(sums)-1 {
			tag = append(tag, LastBlockTag...)
		} else {
			label, clipped, err := tags.Draw(src)
			if err != nil {
				return nil, errors.Wrapf(err, "tag for program block %d", ix)
			}
			if clipped {
				warn("tag for program block %d clipped to %d bytes: '%s'",
					ix, tags.LabelLength, label)
			}
			tag = append(tag, label...)
		}

		seq.Tags = append(seq.Tags, tag)
	}

	for ix := programBlocks + 2; ix < numBlocks; ix++ {
		seq.Tags = append(seq.Tags, make([]byte, TagLength))
	}

	log.WithFields(log.Fields{
		"device":        dev,
		"blocks":        numBlocks,
		"programBytes":  size,
		"programBlocks": programBlocks,
	}).Debug("image assembled")

	if log.IsLevelEnabled(log.TraceLevel) {
		if err := seq.Emit(os.Stderr, programBlocks+2); err != nil {
			log.Warnf("cannot dump blocks: %v", err)
		}
	}

	return seq, nil
}

// blockChecksums computes the checksums of all blocks, spreading the work
// over the available CPUs. Order of the result matches blocks.
func blockChecksums(blocks [][]byte) [][]byte {

	ret := make([][]byte, len(blocks))

	workers := runtime.NumCPU()
	chunk := (len(blocks) + workers - 1) / workers
	if chunk < checksumChunkMin {
		chunk = checksumChunkMin
	}

	wg := &sync.WaitGroup{}
	for start := 0; start < len(blocks); start += chunk {
		end := start + chunk
		if end > len(blocks) {
			end = len(blocks)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for ix := start; ix < end; ix++ {
				ret[ix] = checksum.Block(blocks[ix])
			}
		}(start, end)
	}
	wg.Wait()

	return ret
}

// pad returns a copy of b zero padded to length l
func pad(b []byte, l int) []byte {
	ret := make([]byte, l)
	copy(ret, b)
	return ret
}
