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
	"bufio"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// WriteFile writes data to file via a temporary file in the same folder, and
// then renames it, so file either gets the complete data or stays untouched.
// An existing file is only replaced when force is set.
func WriteFile(file string, data []byte, force bool) error {

	if !force {
		if _, err := os.Stat(file); err == nil {
			return fmt.Errorf("file %s already exists", file)
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	fd, err := ioutil.TempFile(filepath.Dir(file), filepath.Base(file)+"_")
	if err != nil {
		return err
	}
	tmp := fd.Name()

	fail := func(e error) error {
		fd.Close()
		if err := os.Remove(tmp); err != nil {
			log.Warnf("cannot remove temporary file %s: %v", tmp, err)
		}
		return e
	}

	out := bufio.NewWriter(fd)

	if _, err := out.Write(data); err != nil {
		return fail(err)
	}

	if err := out.Flush(); err != nil {
		return fail(err)
	}

	if err := fd.Sync(); err != nil {
		return fail(err)
	}

	if err := fd.Chmod(0644); err != nil {
		return fail(err)
	}

	if err := fd.Close(); err != nil {
		return fail(err)
	}

	if err := os.Rename(tmp, file); err != nil {
		os.Remove(tmp)
		return err
	}

	log.Debugf("wrote %d bytes to %s", len(data), file)
	return nil
}

// ReadFile reads at most max bytes from file. Files that are empty or longer
// than max are rejected.
func ReadFile(file, what string, max int) ([]byte, error) {

	fd, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	return ReadLimited(bufio.NewReader(fd), what, max)
}
