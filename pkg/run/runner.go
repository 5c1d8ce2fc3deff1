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
	"github.com/xelalexv/lisahd/pkg/lisa/device"
	"github.com/xelalexv/lisahd/pkg/lisa/format"
)

//
const runnerHelpPrologue = ""
const runnerHelpEpilogue = `- When a flag can be set via environment variable, the variable name is given
  in parenthesis at the end of the flag explanation. Note however that a flag,
  when specified overrides an environment variable.
`

const loggingHelp = `- Logging can be configured with these environment variables:

  LOG_FORMAT		set to 'json' for JSON logging
  LOG_FORCE_COLORS	set to non-empty for forcing colorized log entries
  LOG_METHODS		set to non-empty for including methods in log
  LOG_LEVEL		panic, fatal, error, warn, info, debug, trace

`

/*
	NewRunner creates a base runner for commands to use. The parameters are
	passed to the base command wrapped by this runner.
*/
func NewRunner(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Runner {
	return &Runner{
		Command: *NewCommand(
			use, short, long, helpPrologue, helpEpilogue, exec),
	}
}

// Runner is a command that deals with images for a particular device and
// format.
type Runner struct {
	//
	Command
	//
	Device string
	Format string
}

//
func (r *Runner) AddBaseSettings() {
	// Implementation Note: This cannot be included in NewRunner, but rather has
	// to be called from the top level command type, after that has been
	// placed. Otherwise, flags get bound to a copy of the runner.
	r.AddSetting(&r.Device, "device", "d", "LISAHD_DEVICE",
		device.ProFile.String(), "drive device type, one of "+
			listOf(device.Names()), false)
	r.AddSetting(&r.Format, "format", "f", "LISAHD_FORMAT",
		format.DC42.String(), "image format, one of "+
			listOf(format.Names()), false)
}

// resolve looks up the device and format given in the base settings.
func (r *Runner) resolve() (device.Device, format.Format, error) {
	dev, err := device.Get(r.Device)
	if err != nil {
		return device.UNKNOWN, format.UNKNOWN, err
	}
	fm, err := format.Get(r.Format)
	if err != nil {
		return device.UNKNOWN, format.UNKNOWN, err
	}
	return dev, fm, nil
}

//
func listOf(names []string) string {
	ret := ""
	for ix, n := range names {
		switch {
		case ix == 0:
		case ix == len(names)-1:
			ret += ", or "
		default:
			ret += ", "
		}
		ret += "'" + n + "'"
	}
	return ret
}
