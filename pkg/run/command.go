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
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

//
const (
	prologueHeader = ""
	epilogueHeader = `
Notes:

`
)

/*
	The package initializer sets up logging based on logrus. Log output goes to
	stderr, since images may get written to stdout. The following environment
	variables can be used to configure logging:

		LOG_FORMAT		set to `json` for JSON logging
		LOG_FORCE_COLORS	set to non-empty for forcing colorized log entries
		LOG_METHODS		set to non-empty for including methods in log
		LOG_LEVEL		`panic`, `fatal`, `error`, `warn`, `info`, `debug`, `trace`
*/
func init() {

	log.SetOutput(os.Stderr)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else if os.Getenv("LOG_FORCE_COLORS") != "" {
		log.SetFormatter(&log.TextFormatter{
			ForceColors: true,
		})
	}

	if os.Getenv("LOG_METHODS") != "" {
		log.SetReportCaller(true)
	}

	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		l, err := log.ParseLevel(level)
		if err != nil {
			log.Errorf("invalid log level: '%s'; valid levels are: panic, "+
				"fatal, error, warn, info, debug, trace", level)
		} else {
			log.SetLevel(l)
		}
	}
}

//
var (
	UnderTest bool
)

// DieOnError exits the running process if e is not nil. The error gets logged.
func DieOnError(e error) {
	if e != nil {
		fmt.Fprintf(os.Stderr, "%v\n", e)
		if UnderTest {
			panic(e.Error())
		}
		os.Exit(1)
	}
}

// Die exits the running process, while logging the given message.
func Die(msg string, params ...interface{}) {
	err := fmt.Sprintf(msg, params...)
	fmt.Fprintln(os.Stderr, strings.TrimSuffix(err, "\n"))
	if UnderTest {
		panic(err)
	}
	os.Exit(1)
}

/*
	NewCommand creates a base command instance, wrapping a new Cobra command.
	The	exec function is invoked when the command's Execute method is called.
*/
func NewCommand(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Command {

	ret := Command{
		cmd: &cobra.Command{
			Use:   use,
			Short: short,
			Long:  long,
			RunE: func(*cobra.Command, []string) error {
				return exec()
			},
			SilenceErrors:         true,
			SilenceUsage:          true,
			DisableFlagsInUseLine: true,
		},
		viper:        viper.New(),
		settings:     map[string]*setting{},
		helpPrologue: helpPrologue,
		helpEpilogue: helpEpilogue,
	}
	ret.helpFunc = ret.cmd.HelpFunc()
	ret.cmd.SetHelpFunc(ret.help)
	return &ret
}

/*
	Command is a wrapper around Cobra & Viper. Each setting can come from a
	command line flag, or from an environment variable, with the flag taking
	precedence. For required settings, the error message mentions both ways of
	providing it. Positional arguments are available in Args after calling
	ParseSettings.
*/
type Command struct {
	//
	cmd   *cobra.Command
	viper *viper.Viper
	//
	settings map[string]*setting
	//
	Args []string
	//
	helpPrologue string
	helpEpilogue string
	helpFunc     func(*cobra.Command, []string)
}

//
func (c *Command) help(cmd *cobra.Command, args []string) {
	if c.helpPrologue != "" {
		fmt.Fprintln(cmd.OutOrStdout(), prologueHeader+c.helpPrologue)
	}
	if c.helpFunc != nil {
		c.helpFunc(cmd, args)
	}
	if c.helpEpilogue != "" {
		fmt.Fprintln(cmd.OutOrStdout(), epilogueHeader+c.helpEpilogue)
	} else {
		fmt.Fprintln(cmd.OutOrStdout())
	}
}

/*
	Execute invokes the exec function that was set on this command when it was
	created, with args as the command line arguments following the action.
*/
func (c *Command) Execute(args []string) error {
	if args == nil {
		args = []string{}
	}
	c.cmd.SetArgs(args)
	return c.cmd.Execute()
}

/*
	AddSetting adds a setting to this command. Target is a pointer to the
	receiver to which the setting should be bound, and has to be a *string,
	*int, or *bool. Flag specifies the long (double-dash) command line flag for
	the setting, short its short (single-dash) version, and env the name of the
	environment variable that may carry this setting. def is a default value for
	the setting. When set to nil, the default value will be the zero value of
	the setting's type. help carries online help info about this setting, and
	required specifies whether this is a mandatory setting.
*/
func (c *Command) AddSetting(target interface{}, flag, short, env string,
	def interface{}, help string, required bool) {

	if required && def != nil {
		Die("required setting '%s' does not take a default value", flag)
	}

	helpMsg := help
	if env != "" {
		helpMsg = fmt.Sprintf("%s (%s)", help, env)
	}

	flags := c.cmd.Flags()
	var ok = true

	switch t := target.(type) {

	case *string:
		var d string
		if def != nil {
			d, ok = def.(string)
		}
		flags.StringVarP(t, flag, short, d, helpMsg)

	case *int:
		var d int
		if def != nil {
			d, ok = def.(int)
		}
		flags.IntVarP(t, flag, short, d, helpMsg)

	case *bool:
		var d bool
		if def != nil {
			d, ok = def.(bool)
		}
		flags.BoolVarP(t, flag, short, d, helpMsg)

	default:
		Die("setting '%s' is of unsupported type %T", flag, target)
	}

	if !ok {
		Die("default value for setting '%s' has incorrect type", flag)
	}

	log.Tracef("add setting: flag=%s, env=%s, type=%T", flag, env, target)

	c.bind(flags.Lookup(flag), env)
	c.settings[flag] = &setting{
		flag: flag, env: env, required: required, target: target}
}

//
func (c *Command) bind(f *pflag.Flag, env string) {
	if err := c.viper.BindPFlag(f.Name, f); err != nil {
		Die("cannot bind flag '%s': %v", f.Name, err)
	}
	if env != "" {
		if err := c.viper.BindEnv(f.Name, env); err != nil {
			Die("cannot bind env variable '%s': %v", env, err)
		}
	}
}

/*
	ParseSettings handles all settings that have been added thus far via the
	AddSetting method. Afterwards, setting values are available in the variables
	to which they were bound. This should be called in the exec function that
	was	set on this command when it was created, before any references to
	variables that are bound to settings.
*/
func (c *Command) ParseSettings() error {
	for _, s := range c.settings {
		if err := s.get(c.viper); err != nil {
			return err
		}
	}
	c.Args = c.cmd.Flags().Args()
	return nil
}

//
type setting struct {
	flag     string
	env      string
	required bool
	target   interface{}
}

// get places the value from flag, env, or default in the target variable.
func (s *setting) get(v *viper.Viper) error {

	missing := false

	switch t := s.target.(type) {
	case *string:
		*t = v.GetString(s.flag)
		missing = *t == ""
	case *int:
		*t = v.GetInt(s.flag)
		missing = *t == 0
	case *bool:
		*t = v.GetBool(s.flag)
		missing = !*t
	}

	log.WithFields(log.Fields{
		"flag":  s.flag,
		"value": fmt.Sprintf("%v", deref(s.target)),
		"isSet": v.IsSet(s.flag),
	}).Trace("get setting")

	if s.required && missing {
		msg := fmt.Sprintf(
			"you need to specify the --%s command line flag", s.flag)
		if s.env != "" {
			msg = fmt.Sprintf("%s or the %s environment variable", msg, s.env)
		}
		return fmt.Errorf("%s", msg)
	}

	return nil
}

//
func deref(target interface{}) interface{} {
	switch t := target.(type) {
	case *string:
		return *t
	case *int:
		return *t
	case *bool:
		return *t
	}
	return nil
}
