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
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/xelalexv/lisahd/pkg/control"
	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/format"
	"github.com/xelalexv/lisahd/pkg/lisa/image"
	"github.com/xelalexv/lisahd/pkg/lisa/tags"
	"github.com/xelalexv/lisahd/pkg/util"
)

func init() {
	UnderTest = true
}

//
func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	file := filepath.Join(dir, name)
	if err := ioutil.WriteFile(file, data, 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

//
func runBuild(args ...string) ([]byte, error) {
	var out bytes.Buffer
	b := NewBuild()
	b.out = &out
	err := b.Execute(args)
	return out.Bytes(), err
}

func TestBuildToStdout(t *testing.T) {
	dir := t.TempDir()
	prog := writeTemp(t, dir, "prog.bin", []byte{0xde, 0xad, 0xbe, 0xef})

	img, err := runBuild("-f", "raw", "-d", "profile", "-k", "4", prog)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	sum := sha256.Sum256(img)
	want := "afa94db674e915e6ea75193078c5e0d2e0ee47f03bc64b2a5d7b86f996d8fd59"
	if got := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("image digest = %s, want %s", got, want)
	}
}

func TestBuildClip(t *testing.T) {
	dir := t.TempDir()
	prog := writeTemp(t, dir, "prog.bin", make([]byte, 1500))

	img, err := runBuild("--format", "usbwidex", "--device", "widget", "-c", prog)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(img) != 5*format.USBWidExBlockLength {
		t.Errorf("image length = %d, want %d", len(img), 5*format.USBWidExBlockLength)
	}
}

func TestBuildTagsAndBootloader(t *testing.T) {
	dir := t.TempDir()
	prog := writeTemp(t, dir, "prog.bin", bytes.Repeat([]byte{0x4e, 0x75}, 600))
	boot := writeTemp(t, dir, "boot.bin", bytes.Repeat([]byte{0x60, 0xfe}, 10))
	tagFile := writeTemp(t, dir, "tags.txt", []byte("FIRST\r\nSECOND\r\n"))

	img, err := runBuild("-f", "raw", "-k", "5", "-t", tagFile, "-b", boot, prog)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(img) != 5*image.BlockLength {
		t.Fatalf("image length = %d", len(img))
	}
	if !bytes.Equal(img[:20], bytes.Repeat([]byte{0x60, 0xfe}, 10)) {
		t.Errorf("bootloader tag = %x", img[:20])
	}
	for ix, label := range []string{"FIRST", "SECOND"} {
		off := (2+ix)*image.BlockLength + 2
		got := string(img[off : off+tags.LabelLength])
		if strings.TrimRight(got, " ") != label {
			t.Errorf("label %d = %q, want %q", ix, got, label)
		}
	}
}

func TestBuildOutputFile(t *testing.T) {
	dir := t.TempDir()
	prog := writeTemp(t, dir, "prog.bin", []byte{0xde, 0xad, 0xbe, 0xef})
	out := filepath.Join(dir, "boot.dc42")

	if _, err := runBuild("-k", "4", "-o", out, prog); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	img, err := ioutil.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(img) != format.DC42HeaderLength+32*image.BlockLength {
		t.Errorf("image length = %d", len(img))
	}

	if _, err := runBuild("-k", "4", "-o", out, prog); err == nil ||
		!strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected refusal to overwrite, got %v", err)
	}

	if _, err := runBuild("-k", "8", "-o", out, "--force", prog); err != nil {
		t.Fatalf("forced build failed: %v", err)
	}
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()
	prog := writeTemp(t, dir, "prog.bin", make([]byte, 1100))
	empty := writeTemp(t, dir, "empty.bin", nil)
	short := writeTemp(t, dir, "short.txt", []byte("ONLY\n"))

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "unknown device", args: []string{"-d", "twiggy", prog},
			want: device.ErrInvalidDevice},
		{name: "unknown format", args: []string{"-f", "img", prog},
			want: format.ErrUnknownFormat},
		{name: "too few blocks", args: []string{"-k", "2", prog},
			want: image.ErrTooFewBlocks},
		{name: "program too large", args: []string{"-k", "4", prog},
			want: util.ErrInvalidSize},
		{name: "empty program", args: []string{empty},
			want: util.ErrInvalidSize},
		{name: "tags exhausted", args: []string{"-t", short, prog},
			want: tags.ErrExhausted},
		{name: "no program", args: []string{}},
		{name: "two programs", args: []string{prog, prog}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := runBuild(tt.args...)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if len(img) != 0 {
				t.Errorf("no output expected on error")
			}
		})
	}
}

func TestList(t *testing.T) {
	var out bytes.Buffer
	l := NewList()
	l.out = &out
	if err := l.Execute(nil); err != nil {
		t.Fatal(err)
	}
	for _, n := range append(device.Names(), format.Names()...) {
		if !strings.Contains(out.String(), n) {
			t.Errorf("listing misses %s", n)
		}
	}

	out.Reset()
	l = NewList()
	l.out = &out
	if err := l.Execute([]string{"--json"}); err != nil {
		t.Fatal(err)
	}
	var reply struct {
		control.DeviceList
		control.FormatList
	}
	if err := json.Unmarshal(out.Bytes(), &reply); err != nil {
		t.Fatalf("cannot decode listing: %v", err)
	}
	if len(reply.Devices) != len(device.All()) ||
		len(reply.Formats) != len(format.All()) {
		t.Errorf("unexpected listing: %s", out.String())
	}
}

func TestRequiredSetting(t *testing.T) {
	var name string
	var c *Command
	c = NewCommand("test", "", "", "", "", func() error {
		return c.ParseSettings()
	})
	c.AddSetting(&name, "name", "n", "LISAHD_TEST_NAME", nil, "a name", true)

	err := c.Execute(nil)
	if err == nil {
		t.Fatal("expected error for missing setting")
	}
	for _, s := range []string{"--name", "LISAHD_TEST_NAME"} {
		if !strings.Contains(err.Error(), s) {
			t.Errorf("error %q does not mention %s", err, s)
		}
	}

	if err := c.Execute([]string{"-n", "lisa"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "lisa" {
		t.Errorf("name = %q", name)
	}
}

func TestListOf(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{names: nil, want: ""},
		{names: []string{"raw"}, want: "'raw'"},
		{names: []string{"raw", "blu"}, want: "'raw', or 'blu'"},
		{names: []string{"a", "b", "c"}, want: "'a', 'b', or 'c'"},
	}
	for _, tt := range tests {
		if got := listOf(tt.names); got != tt.want {
			t.Errorf("listOf(%v) = %q, want %q", tt.names, got, tt.want)
		}
	}
}

//
func runDump(args ...string) (string, error) {
	var out bytes.Buffer
	d := NewDump()
	d.out = &out
	err := d.Execute(args)
	return out.String(), err
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	prog := writeTemp(t, dir, "prog.bin", bytes.Repeat([]byte{0x4e, 0x71}, 400))

	tests := []struct {
		name   string
		build  []string
		dump   []string
		header string
		blocks int
	}{
		{
			name:   "dc42 by extension",
			build:  []string{"-k", "5", "-o", filepath.Join(dir, "boot.dc42")},
			dump:   []string{filepath.Join(dir, "boot.dc42")},
			header: "dc42 image for profile, 32 blocks",
			blocks: 32,
		},
		{
			name: "blu widget",
			build: []string{"-f", "blu", "-d", "widget", "-k", "5",
				"-o", filepath.Join(dir, "widget.blu")},
			dump:   []string{"-d", "widget", filepath.Join(dir, "widget.blu")},
			header: "blu image for widget, 5 blocks",
			blocks: 5,
		},
		{
			name: "usbwidex limited",
			build: []string{"-f", "usbwidex", "-k", "6",
				"-o", filepath.Join(dir, "boot.img")},
			dump:   []string{"-f", "usbwidex", "-n", "3", filepath.Join(dir, "boot.img")},
			header: "usbwidex image for profile, 6 blocks",
			blocks: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runBuild(append(tt.build, prog)...); err != nil {
				t.Fatalf("build failed: %v", err)
			}
			out, err := runDump(tt.dump...)
			if err != nil {
				t.Fatalf("dump failed: %v", err)
			}
			if !strings.Contains(out, tt.header) {
				t.Errorf("dump misses header %q:\n%s", tt.header, out)
			}
			if n := strings.Count(out, "\nBLOCK "); n != tt.blocks {
				t.Errorf("dumped %d blocks, want %d", n, tt.blocks)
			}
		})
	}
}

func TestDumpErrors(t *testing.T) {
	dir := t.TempDir()
	prog := writeTemp(t, dir, "prog.bin", []byte{0xde, 0xad, 0xbe, 0xef})
	img := filepath.Join(dir, "boot.dc42")
	if _, err := runBuild("-k", "4", "-o", img, prog); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	data, err := ioutil.ReadFile(img)
	if err != nil {
		t.Fatal(err)
	}
	data[format.DC42HeaderLength] ^= 0x01
	broken := writeTemp(t, dir, "broken.dc42", data)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "checksum", args: []string{broken}, want: format.ErrChecksumMismatch},
		{name: "unknown extension", args: []string{prog},
			want: format.ErrUnknownFormat},
		{name: "wrong format", args: []string{"-f", "blu", img},
			want: format.ErrMalformedImage},
		{name: "no image", args: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runDump(tt.args...)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
