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

package util

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
)

// ErrInvalidSize is returned when input data is empty or too long
var ErrInvalidSize = errors.New("invalid data size")

// ReadLimited reads at most max bytes from in. It fails if in has no data,
// or more than max bytes. what names the data in error messages.
func ReadLimited(in io.Reader, what string, max int) ([]byte, error) {

	data, err := ioutil.ReadAll(io.LimitReader(in, int64(max)+1))
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s data", what)
	}

	if len(data) == 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "failed to read any %s data", what)
	}

	if len(data) > max {
		return nil, errors.Wrapf(ErrInvalidSize,
			"%s data was larger than %d bytes", what, max)
	}

	return data, nil
}
