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

// Package tags provides the display labels bootloader_hd shows on the Lisa's
// screen while it loads the blocks of a program.
package tags

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// LabelLength is the number of printable bytes in a block tag
const LabelLength = 18

// ErrExhausted is returned when a label is needed but the source has none left
var ErrExhausted = errors.New("ran out of display tags")

// ErrInvalidChar is returned for labels with characters not in the boot ROM
var ErrInvalidChar = errors.New("tag has characters not found in the ROM")

// Source yields display labels, one per call. Next returns io.EOF when there
// are no more labels.
type Source interface {
	Next() (string, error)
}

// NewDefaultSource returns a source of boring but endless progress labels:
// READ 0.5K..., READ 1.0K..., READ 1.5K..., and so on. Every build needs its
// own instance.
func NewDefaultSource() *DefaultSource {
	return &DefaultSource{}
}

//
type DefaultSource struct {
	blocksRead int
}

//
func (d *DefaultSource) Next() (string, error) {
	d.blocksRead++
	return fmt.Sprintf("READ %d.%dK...", d.blocksRead/2, d.blocksRead%2*5), nil
}

// NewLineSource returns a source reading one label per line from in, e.g. a
// tags file. Lines may end with CR, LF, or CRLF, and line ends are not part
// of the labels.
func NewLineSource(in io.Reader) *LineSource {
	s := bufio.NewScanner(in)
	s.Split(scanLines)
	return &LineSource{scanner: s}
}

//
type LineSource struct {
	scanner *bufio.Scanner
}

//
func (l *LineSource) Next() (string, error) {
	if l.scanner.Scan() {
		return l.scanner.Text(), nil
	}
	if err := l.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// scanLines is bufio.ScanLines, except that a lone CR also ends a line
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {

	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if ix := bytes.IndexAny(data, "\r\n"); ix > -1 {
		if data[ix] == '\n' {
			return ix + 1, data[:ix], nil
		}
		if ix+1 < len(data) {
			if data[ix+1] == '\n' {
				return ix + 2, data[:ix], nil
			}
			return ix + 1, data[:ix], nil
		}
		if atEOF {
			return ix + 1, data[:ix], nil
		}
		// CR at end of buffer, could be start of CRLF
		return 0, nil, nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

// NewSliceSource returns a source yielding the given labels in order.
func NewSliceSource(labels ...string) *SliceSource {
	return &SliceSource{labels: labels}
}

//
type SliceSource struct {
	labels []string
	next   int
}

//
func (s *SliceSource) Next() (string, error) {
	if s.next >= len(s.labels) {
		return "", io.EOF
	}
	s.next++
	return s.labels[s.next-1], nil
}

// Consumed returns how many labels have been drawn from this source.
func (s *SliceSource) Consumed() int {
	return s.next
}

// Draw reads the next label from src and turns it into the LabelLength bytes
// that go into a block tag. Trailing line terminators are removed, and the
// label is padded with spaces. Labels longer than LabelLength get truncated,
// which is signalled by clipped. Labels with characters the ROM can't display
// are rejected.
func Draw(src Source) (label []byte, clipped bool, err error) {

	tag, err := src.Next()
	if err == io.EOF {
		return nil, false, ErrExhausted
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "error reading display tag")
	}

	return Label(tag)
}

// Label converts a single raw label as described for Draw.
func Label(tag string) (label []byte, clipped bool, err error) {

	tag = strings.TrimRight(tag, "\r\n")

	if ix := firstInvalid(tag); ix > -1 {
		return nil, false, errors.Wrapf(ErrInvalidChar,
			"%q, position %d", tag, ix)
	}

	if len(tag) > LabelLength {
		tag = tag[:LabelLength]
		clipped = true
	}

	return []byte(tag + strings.Repeat(" ", LabelLength-len(tag))), clipped, nil
}
