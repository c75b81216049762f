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

package signature

import (
	"path"
	"strings"

	"github.com/nabbar/yogi/failure"
)

// Path is a POSIX-like hierarchical string. It may start with "/"; "//" is
// never valid; "/" alone is the root.
type Path string

// NewPath validates and returns a Path, or an InvalidParam failure if raw
// contains "//".
func NewPath(raw string) (Path, failure.Error) {
	if strings.Contains(raw, "//") {
		return "", failure.Newf(failure.InvalidParam, "invalid path: %q", raw)
	}

	return Path(raw), nil
}

// String implements fmt.Stringer.
func (p Path) String() string {
	return string(p)
}

// IsAbsolute reports whether p begins with "/".
func (p Path) IsAbsolute() bool {
	return len(p) > 0 && p[0] == '/'
}

// IsRoot reports whether p is exactly "/".
func (p Path) IsRoot() bool {
	return p == "/"
}

// Join composes p with other using POSIX join rules. other must not be
// absolute: joining onto an absolute path is a programmer error.
func (p Path) Join(other Path) (Path, failure.Error) {
	if other.IsAbsolute() {
		return "", failure.Newf(failure.InvalidParam, "invalid path: %q", string(other))
	}

	return Path(path.Join(string(p), string(other))), nil
}
