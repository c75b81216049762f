/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/nabbar/yogi/failure"
)

// Loader populates a Boundary from file and environment sources using
// viper, mirroring the layered config/env precedence nabbar-golib's own
// config package applies.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader with the given config file path (any format
// viper supports: yaml, json, toml) and an env prefix for overrides.
func NewLoader(configFile, envPrefix string) *Loader {
	v := viper.New()

	v.SetDefault("location", "/")
	v.SetDefault("connection.timeout", 0)

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}

	v.AutomaticEnv()

	return &Loader{v: v}
}

// Load reads the configured file (if any) and returns the resulting
// Boundary. A missing config file is not an error: defaults and
// environment variables still apply.
func (l *Loader) Load() (Boundary, failure.Error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, isParseErr := err.(viper.ConfigParseError); isParseErr {
			return Boundary{}, failure.Wrap(failure.InvalidParam, err, "parsing configuration file")
		}
		// A missing config file (explicit path or search-path lookup) is not
		// fatal: defaults and environment variables still apply.
	}

	b := Boundary{
		Location:          l.v.GetString("location"),
		ConnectionTarget:  l.v.GetString("connection.target"),
		ConnectionTimeout: time.Duration(l.v.GetFloat64("connection.timeout") * float64(time.Second)),
		Identification:    l.v.GetString("connection.identification"),
	}

	if b.Location == "" {
		b.Location = "/"
	}

	if e := b.Validate(); e != nil {
		return Boundary{}, e
	}

	return b, nil
}
