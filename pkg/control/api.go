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

package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/lisahd/pkg/lisa/bootloader"
	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/format"
	"github.com/xelalexv/lisahd/pkg/lisa/image"
	"github.com/xelalexv/lisahd/pkg/lisa/tags"
	"github.com/xelalexv/lisahd/pkg/repo"
	"github.com/xelalexv/lisahd/pkg/util"
)

// HeaderWarning carries warnings raised while building an image
const HeaderWarning = "X-LisaHD-Warning"

//
type APIServer interface {
	Serve() error
	Stop() error
}

// NewAPIServer creates an API server for building images. dev and fm are
// used for requests that don't specify device or format. When repository is
// not empty, files in it can be referenced in requests.
func NewAPIServer(addr, repository string, dev device.Device,
	fm format.Format) APIServer {
	return &api{address: addr, repository: repository, device: dev, format: fm}
}

//
type api struct {
	address    string
	repository string
	device     device.Device
	format     format.Format
	server     *http.Server
}

//
func (a *api) Serve() error {

	addr := a.address
	if len(strings.Split(addr, ":")) < 2 {
		addr = fmt.Sprintf("%s:8888", a.address)
	}

	log.Infof("LisaHD API starts listening on %s", addr)
	a.server = &http.Server{Addr: addr, Handler: a.router()}

	err := a.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

//
func (a *api) Stop() error {
	if a.server != nil {
		log.Info("API server stopping...")
		err := a.server.Shutdown(context.Background())
		a.server = nil
		return err
	}
	return nil
}

//
func (a *api) router() *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "devices", "GET", "/devices", a.devices)
	addRoute(router, "formats", "GET", "/formats", a.formats)
	addRoute(router, "build", "PUT", "/image", a.build)
	addRoute(router, "buildref", "GET", "/image", a.buildFromRepo)

	return router
}

//
func addRoute(r *mux.Router, name, method, pattern string,
	handler http.HandlerFunc) {
	r.Methods(method).
		Path(pattern).
		Name(name).
		Handler(requestLogger(handler, name))
}

//
func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		}).Debugf("API BEGIN | %s", name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Debugf("API END   | %s", name)
	})
}

//
func (a *api) devices(w http.ResponseWriter, req *http.Request) {
	l := NewDeviceList()
	if wantsJSON(req) {
		sendJSONReply(l, http.StatusOK, w)
	} else {
		sendReply([]byte(l.String()), http.StatusOK, w)
	}
}

//
func (a *api) formats(w http.ResponseWriter, req *http.Request) {
	l := NewFormatList()
	if wantsJSON(req) {
		sendJSONReply(l, http.StatusOK, w)
	} else {
		sendReply([]byte(l.String()), http.StatusOK, w)
	}
}

// build creates an image for the program sent in the request body
func (a *api) build(w http.ResponseWriter, req *http.Request) {

	defer req.Body.Close()

	b, err := a.newBuildRequest(req)
	if handleError(err, statusFor(err), w) {
		return
	}
	defer b.close()

	b.program, err = util.ReadLimited(req.Body, "program", b.maxProgram())
	if handleError(err, statusFor(err), w) {
		return
	}

	a.render(b, w)
}

// buildFromRepo creates an image for a program in the repository
func (a *api) buildFromRepo(w http.ResponseWriter, req *http.Request) {

	b, err := a.newBuildRequest(req)
	if handleError(err, statusFor(err), w) {
		return
	}
	defer b.close()

	ref, err := getArg(req, "program")
	if err == nil {
		b.program, err = a.readRef(ref, "program", b.maxProgram())
	}
	if handleError(err, statusFor(err), w) {
		return
	}

	a.render(b, w)
}

//
func (a *api) render(b *buildRequest, w http.ResponseWriter) {

	var warnings []string
	warn := func(tmpl string, args ...interface{}) {
		msg := fmt.Sprintf(tmpl, args...)
		log.Warn(msg)
		warnings = append(warnings, msg)
	}

	seq, err := image.Assemble(&image.Options{
		Device:     b.device,
		Program:    b.program,
		Bootloader: b.bootloader,
		Tags:       b.tags,
		Blocks:     b.blocks,
		Clip:       b.clip,
		Warn:       warn,
	})
	if handleError(err, statusFor(err), w) {
		return
	}

	if s, ok := b.tags.(*tags.SliceSource); ok && s.Consumed() < b.labels {
		warn("%d of %d tags not used", b.labels-s.Consumed(), b.labels)
	}

	img, err := format.Encode(seq, b.device, b.format)
	if handleError(err, statusFor(err), w) {
		return
	}

	for _, warn := range warnings {
		w.Header().Add(HeaderWarning, warn)
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"boot.%s\"", b.format))
	sendStreamReply(img, http.StatusOK, w)
}

//
type buildRequest struct {
	device     device.Device
	format     format.Format
	blocks     int
	clip       bool
	program    []byte
	bootloader []byte
	tags       tags.Source
	labels     int
	closers    []io.Closer
}

//
func (b *buildRequest) maxProgram() int {
	blocks := b.blocks
	if blocks < image.MinBlocks {
		blocks = b.device.DefaultBlocks()
	}
	return image.DataLength * (blocks - 2)
}

//
func (b *buildRequest) close() {
	for _, c := range b.closers {
		c.Close()
	}
}

//
func (a *api) newBuildRequest(req *http.Request) (*buildRequest, error) {

	ret := &buildRequest{device: a.device, format: a.format}

	if d, err := getArg(req, "device"); err != nil {
		return nil, err
	} else if d != "" {
		if ret.device, err = device.Get(d); err != nil {
			return nil, err
		}
	}

	if f, err := getArg(req, "format"); err != nil {
		return nil, err
	} else if f != "" {
		if ret.format, err = format.Get(f); err != nil {
			return nil, err
		}
	}

	var err error
	if ret.blocks, err = getIntArg(req, "blocks"); err != nil {
		return nil, err
	}
	if ret.blocks != 0 && ret.blocks < image.MinBlocks {
		return nil, errors.Wrapf(image.ErrTooFewBlocks,
			"a disk image of %d blocks", ret.blocks)
	}

	ret.clip = isFlagSet(req, "clip")

	if boot, err := getArg(req, "bootloader"); err != nil {
		return nil, err
	} else if boot != "" {
		if ret.bootloader, err = a.readRef(
			boot, "bootloader", bootloader.MaxLength); err != nil {
			return nil, err
		}
	}

	t, err := getArg(req, "tags")
	if err != nil {
		return nil, err
	}

	if repo.IsReference(t) {
		rc, err := repo.Resolve(t, a.repository)
		if err != nil {
			return nil, err
		}
		ret.closers = append(ret.closers, rc)
		ret.tags = tags.NewLineSource(rc)
	} else if t != "" {
		labels := strings.Split(t, ",")
		ret.tags = tags.NewSliceSource(labels...)
		ret.labels = len(labels)
	}

	return ret, nil
}

//
func (a *api) readRef(ref, what string, max int) ([]byte, error) {
	rc, err := repo.Resolve(ref, a.repository)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return util.ReadLimited(rc, what, max)
}

// statusFor maps build errors to HTTP status codes
func statusFor(e error) int {
	switch {
	case e == nil:
		return http.StatusOK

	case errors.Is(e, device.ErrInvalidDevice),
		errors.Is(e, format.ErrUnknownFormat),
		errors.Is(e, format.ErrUnsupportedDevice),
		errors.Is(e, image.ErrTooFewBlocks),
		errors.Is(e, repo.ErrInvalidReference),
		errors.Is(e, strconv.ErrSyntax),
		errors.Is(e, strconv.ErrRange):
		return http.StatusBadRequest

	case errors.Is(e, os.ErrNotExist):
		return http.StatusNotFound

	case errors.Is(e, util.ErrInvalidSize),
		errors.Is(e, image.ErrEmptyProgram),
		errors.Is(e, image.ErrInsufficientCapacity),
		errors.Is(e, image.ErrBootloaderSize),
		errors.Is(e, tags.ErrExhausted),
		errors.Is(e, tags.ErrInvalidChar):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

//
func isFlagSet(req *http.Request, flag string) bool {
	_, ok := req.URL.Query()[flag]
	return ok
}

//
func getArg(req *http.Request, arg string) (string, error) {
	ret := req.URL.Query().Get(arg)
	if ret != "" {
		return url.QueryUnescape(ret)
	}
	return ret, nil
}

//
func getIntArg(req *http.Request, arg string) (int, error) {
	a, err := getArg(req, arg)
	if err != nil || a == "" {
		return 0, err
	}
	return strconv.Atoi(a)
}

//
func setHeaders(h http.Header, json bool) {
	if json {
		h.Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		h.Set("Content-Type", "text/plain; charset=UTF-8")
	}
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	log.Errorf("%v", e)

	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(fmt.Sprintf("%v\n", e))); err != nil {
		log.Errorf("problem writing error: %v", err)
	}

	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := fmt.Fprintf(w, "%s\n", body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendStreamReply(body []byte, statusCode int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending image: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), true)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Errorf("problem writing reply: %v", err)
	}
}

//
func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json") ||
		req.Header.Get("Content-Type") == "application/json"
}
