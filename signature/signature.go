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

// Package signature defines the two value types terminal matching is built
// on: the 32-bit payload-schema Signature and the POSIX-like hierarchical
// Path.
package signature

import "fmt"

// Signature is an immutable 32-bit tag identifying a payload schema family.
// Two terminals match only if their names are equal and their signatures
// are equal.
type Signature uint32

// String renders the signature as 8 lowercase hex digits.
func (s Signature) String() string {
	return fmt.Sprintf("%08x", uint32(s))
}

// Raw returns the underlying numeric value.
func (s Signature) Raw() uint32 {
	return uint32(s)
}
