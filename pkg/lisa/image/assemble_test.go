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

package image

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"testing"

	"github.com/pkg/errors"

	"github.com/xelalexv/lisahd/pkg/lisa/checksum"
	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/tags"
)

var deadBeef = []byte{0xde, 0xad, 0xbe, 0xef}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	ret, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return ret
}

func sevens(n int) []byte {
	ret := make([]byte, n)
	for ix := range ret {
		ret[ix] = byte(ix * 7)
	}
	return ret
}

func TestAssembleShortProgram(t *testing.T) {
	seq, err := Assemble(&Options{
		Device:  device.ProFile,
		Program: deadBeef,
		Blocks:  4,
	})
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}

	want := []string{
		"596f2120aaaa2049276d20626f6f7461626c6521",
		"206269742e6c792f33617275634e4a2020000000",
		"c1db206269742e6c792f33617275634e4a202000",
		"0000000000000000000000000000000000000000",
	}

	if seq.Len() != 4 || len(seq.Tags) != 4 {
		t.Fatalf("got %d tags and %d data blocks, want 4", len(seq.Tags), len(seq.Data))
	}

	for ix, w := range want {
		if got := hex.EncodeToString(seq.Tags[ix]); got != w {
			t.Errorf("tag %d = %s, want %s", ix, got, w)
		}
	}

	// single program block is also the last one
	block := make([]byte, DataLength)
	copy(block, deadBeef)
	if !bytes.Equal(seq.Tags[2][:2], checksum.Block(block)) {
		t.Errorf("tag 2 does not start with block checksum")
	}
	if !bytes.HasSuffix(seq.Tags[2], []byte(LastBlockTag)) {
		t.Errorf("tag 2 does not end with last block tag")
	}
	if !bytes.Equal(seq.Data[2], block) {
		t.Errorf("data 2 = %x...", seq.Data[2][:8])
	}
	if !bytes.Equal(seq.Data[3], make([]byte, DataLength)) {
		t.Errorf("data 3 not zero")
	}
}

func TestAssembleWithLabels(t *testing.T) {
	src := tags.NewSliceSource("HELLO\r\n", "WORLD 2.0\n")
	seq, err := Assemble(&Options{
		Device:  device.ProFile,
		Program: sevens(1300),
		Tags:    src,
		Blocks:  6,
	})
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}

	want := []string{
		"596f2120aaaa2049276d20626f6f7461626c6521",
		"206269742e6c792f33617275634e4a2020000000",
		"e5a848454c4c4f20202020202020202020202020",
		"e5a8574f524c4420322e30202020202020202020",
		"5f71206269742e6c792f33617275634e4a202000",
		"0000000000000000000000000000000000000000",
	}
	for ix, w := range want {
		if !bytes.Equal(seq.Tags[ix], mustHex(t, w)) {
			t.Errorf("tag %d = %x, want %s", ix, seq.Tags[ix], w)
		}
	}
	if src.Consumed() != 2 {
		t.Errorf("consumed %d labels, want 2", src.Consumed())
	}
}

func TestAssembleLengths(t *testing.T) {
	tests := []struct {
		dev     device.Device
		program int
		blocks  int
		clip    bool
		want    int
	}{
		{dev: device.ProFile, program: 1, blocks: 3, want: 3},
		{dev: device.ProFile, program: 513, blocks: 40, want: 40},
		{dev: device.ProFile, program: 100, want: 0x2600},
		{dev: device.ProFile10, program: 100, want: 0x4c00},
		{dev: device.Widget, program: 5000, want: 0x4c00},
		{dev: device.Widget, program: 5000, clip: true, want: 12},
		{dev: device.ProFile, program: 512, clip: true, want: 3},
		{dev: device.ProFile, program: 512, blocks: 7, clip: true, want: 7},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s/%d/%d/%v", tt.dev, tt.program, tt.blocks, tt.clip)
		t.Run(name, func(t *testing.T) {
			seq, err := Assemble(&Options{
				Device:  tt.dev,
				Program: sevens(tt.program),
				Blocks:  tt.blocks,
				Clip:    tt.clip,
			})
			if err != nil {
				t.Fatalf("Assemble() unexpected error: %v", err)
			}
			if len(seq.Tags) != tt.want || len(seq.Data) != tt.want {
				t.Errorf("got %d tags, %d data, want %d",
					len(seq.Tags), len(seq.Data), tt.want)
			}
			for ix := 0; ix < seq.Len(); ix++ {
				if len(seq.Tags[ix]) != TagLength || len(seq.Data[ix]) != DataLength {
					t.Fatalf("block %d has wrong size", ix)
				}
			}
		})
	}
}

func TestAssembleCapacity(t *testing.T) {
	if _, err := Assemble(&Options{
		Device: device.ProFile, Program: sevens(1024), Blocks: 4,
		Tags: tags.NewSliceSource("FULL"),
	}); err != nil {
		t.Errorf("program filling all space: unexpected error %v", err)
	}

	_, err := Assemble(&Options{
		Device: device.ProFile, Program: sevens(1025), Blocks: 4,
	})
	if !errors.Is(err, ErrInsufficientCapacity) {
		t.Errorf("program one byte too long: error %v, want ErrInsufficientCapacity", err)
	}
}

func TestAssembleTagSource(t *testing.T) {
	// three program blocks need two labels
	src := tags.NewSliceSource("ONE", "TWO")
	if _, err := Assemble(&Options{
		Device: device.ProFile, Program: sevens(1025), Blocks: 10, Tags: src,
	}); err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}
	if src.Consumed() != 2 {
		t.Errorf("consumed %d labels, want 2", src.Consumed())
	}

	_, err := Assemble(&Options{
		Device: device.ProFile, Program: sevens(1025), Blocks: 10,
		Tags: tags.NewSliceSource("ONE"),
	})
	if !errors.Is(err, tags.ErrExhausted) {
		t.Errorf("one label short: error %v, want ErrExhausted", err)
	}

	_, err = Assemble(&Options{
		Device: device.ProFile, Program: sevens(1025), Blocks: 10,
		Tags: tags.NewSliceSource("ONE", "two"),
	})
	if !errors.Is(err, tags.ErrInvalidChar) {
		t.Errorf("lower case label: error %v, want ErrInvalidChar", err)
	}
}

func TestAssembleClippedLabelWarns(t *testing.T) {
	var warnings []string
	seq, err := Assemble(&Options{
		Device:  device.ProFile,
		Program: sevens(600),
		Blocks:  4,
		Tags:    tags.NewSliceSource("THIS LABEL IS WAY TOO LONG"),
		Warn: func(format string, args ...interface{}) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	})
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if string(seq.Tags[2][2:]) != "THIS LABEL IS WAY " {
		t.Errorf("label = %q", seq.Tags[2][2:])
	}
}

func TestAssembleBootloader(t *testing.T) {
	boot := bytes.Repeat([]byte{0x11}, 545)
	seq, err := Assemble(&Options{
		Device: device.ProFile, Program: deadBeef, Blocks: 3, Bootloader: boot,
	})
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}

	if !bytes.Equal(seq.Tags[0], boot[:20]) {
		t.Errorf("tag 0 = %x", seq.Tags[0])
	}
	if !bytes.Equal(seq.Data[0], boot[20:532]) {
		t.Errorf("data 0 not taken from bootloader")
	}
	wantTag1 := make([]byte, TagLength)
	copy(wantTag1, boot[532:])
	if !bytes.Equal(seq.Tags[1], wantTag1) {
		t.Errorf("tag 1 = %x, want %x", seq.Tags[1], wantTag1)
	}
	if !bytes.Equal(seq.Data[1], make([]byte, DataLength)) {
		t.Errorf("data 1 should be zero padding")
	}

	_, err = Assemble(&Options{
		Device: device.ProFile, Program: deadBeef, Blocks: 3,
		Bootloader: make([]byte, 1065),
	})
	if !errors.Is(err, ErrBootloaderSize) {
		t.Errorf("oversized bootloader: error %v, want ErrBootloaderSize", err)
	}

	if _, err = Assemble(&Options{
		Device: device.ProFile, Program: deadBeef, Blocks: 3,
		Bootloader: make([]byte, 1064),
	}); err != nil {
		t.Errorf("bootloader of maximum size: unexpected error %v", err)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
		err  error
	}{
		{
			name: "unknown device",
			opts: &Options{Device: device.Device(42), Program: deadBeef},
			err:  device.ErrInvalidDevice,
		},
		{
			name: "empty program",
			opts: &Options{Device: device.ProFile, Blocks: 4},
			err:  ErrEmptyProgram,
		},
		{
			name: "two blocks",
			opts: &Options{Device: device.ProFile, Program: deadBeef, Blocks: 2},
			err:  ErrTooFewBlocks,
		},
		{
			name: "negative blocks",
			opts: &Options{Device: device.ProFile, Program: deadBeef, Blocks: -1},
			err:  ErrTooFewBlocks,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Assemble(tt.opts); !errors.Is(err, tt.err) {
				t.Errorf("Assemble() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestBlockChecksumsKeepOrder(t *testing.T) {
	blocks := make([][]byte, 1000)
	for ix := range blocks {
		blocks[ix] = make([]byte, DataLength)
		blocks[ix][0] = byte(ix)
		blocks[ix][1] = byte(ix >> 8)
	}
	sums := blockChecksums(blocks)
	for ix := range blocks {
		if !bytes.Equal(sums[ix], checksum.Block(blocks[ix])) {
			t.Fatalf("checksum %d out of order", ix)
		}
	}
}

func TestSequenceEmit(t *testing.T) {
	seq, err := Assemble(&Options{Device: device.ProFile, Program: deadBeef, Blocks: 4})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := seq.Emit(&buf, 3); err != nil {
		t.Fatalf("Emit() unexpected error: %v", err)
	}
	if bytes.Count(buf.Bytes(), []byte("BLOCK ")) != 3 {
		t.Errorf("expected 3 blocks in dump:\n%s", buf.String())
	}
	if seq.Block(4) != nil || seq.Block(-1) != nil {
		t.Errorf("Block() out of range should be nil")
	}
	b := seq.Block(2)
	if !bytes.Equal(b.TagFirst()[:TagLength], seq.Tags[2]) ||
		!bytes.Equal(b.DataFirst()[:DataLength], seq.Data[2]) {
		t.Errorf("block byte order wrong")
	}
}

type failingWriter struct {
	budget int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if len(p) > w.budget {
		n := w.budget
		w.budget = 0
		return n, io.ErrShortWrite
	}
	w.budget -= len(p)
	return len(p), nil
}

func TestSequenceEmitWriteError(t *testing.T) {
	seq, err := Assemble(&Options{Device: device.ProFile, Program: deadBeef, Blocks: 4})
	if err != nil {
		t.Fatal(err)
	}
	for _, budget := range []int{0, 40, 200} {
		if err := seq.Emit(&failingWriter{budget: budget}, -1); err != io.ErrShortWrite {
			t.Errorf("Emit() with budget %d: error = %v, want io.ErrShortWrite",
				budget, err)
		}
	}
}
