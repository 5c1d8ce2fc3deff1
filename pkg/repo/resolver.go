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

package repo

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidReference is returned for references that can't be resolved
// against the repository
var ErrInvalidReference = errors.New("invalid repository reference")

//
const PrefixRepoRef = "repo://"

//
func newFileSource(file string) (*fileSource, error) {
	if f, err := os.Open(file); err != nil {
		return nil, err
	} else {
		return &fileSource{file: f, reader: bufio.NewReader(f)}, nil
	}
}

//
type fileSource struct {
	file   *os.File
	reader io.Reader
}

//
func (fs *fileSource) Read(p []byte) (n int, err error) {
	return fs.reader.Read(p)
}

//
func (fs *fileSource) Close() error {
	return fs.file.Close()
}

// Resolve opens the file a repo reference points to. Programs, bootloaders,
// and tags files can be referenced this way when building images via the API.
// References must stay within the repository.
func Resolve(ref, repo string) (io.ReadCloser, error) {

	log.WithFields(log.Fields{
		"reference":  ref,
		"repository": repo,
	}).Debug("resolving ref")

	if !IsReference(ref) {
		return nil, errors.Wrapf(ErrInvalidReference, "'%s'", ref)
	}

	if repo == "" {
		return nil, errors.Wrap(ErrInvalidReference,
			"image repository is not enabled")
	}

	rel := filepath.Clean("/" + ref[len(PrefixRepoRef):])
	if rel == "/" {
		return nil, errors.Wrap(ErrInvalidReference, "empty reference")
	}

	return newFileSource(filepath.Join(repo, rel))
}

//
func IsReference(r string) bool {
	return strings.HasPrefix(r, PrefixRepoRef)
}
