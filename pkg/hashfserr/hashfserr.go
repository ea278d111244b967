/*
Copyright 2013 The Camlistore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package hashfserr defines the error taxonomy the vault engine surfaces
// across its request boundary: a Kind plus optional filename/version
// context. Not every path wraps its failures: some store, JSON and
// configuration errors from lower layers reach the caller unwrapped.
package hashfserr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of failure. Hosts should branch on Kind, not
// on error message text.
type Kind int

const (
	_ Kind = iota
	Unauthenticated
	PassphraseTooShort
	NotFound
	VersionNotFound
	FileCorrupt
	VersionCorrupt
	ChainCorrupt
	HashMismatch
	SignatureInvalid
	DecryptFailure
	KdfFailure
	RenameConflict
	RenameInvalid
	StoreUnavailable
	IntegrityIssue
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "Unauthenticated"
	case PassphraseTooShort:
		return "PassphraseTooShort"
	case NotFound:
		return "NotFound"
	case VersionNotFound:
		return "VersionNotFound"
	case FileCorrupt:
		return "FileCorrupt"
	case VersionCorrupt:
		return "VersionCorrupt"
	case ChainCorrupt:
		return "ChainCorrupt"
	case HashMismatch:
		return "HashMismatch"
	case SignatureInvalid:
		return "SignatureInvalid"
	case DecryptFailure:
		return "DecryptFailure"
	case KdfFailure:
		return "KdfFailure"
	case RenameConflict:
		return "RenameConflict"
	case RenameInvalid:
		return "RenameInvalid"
	case StoreUnavailable:
		return "StoreUnavailable"
	case IntegrityIssue:
		return "IntegrityIssue"
	default:
		return "Unknown"
	}
}

// Error is the error type the engine returns across its request boundary.
type Error struct {
	Kind    Kind
	File    string // optional filename context
	Version int    // optional version context; 0 if not applicable
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	switch {
	case e.File != "" && e.Version != 0:
		return fmt.Sprintf("%s: %s (file=%q version=%d)", e.Kind, msg, e.File, e.Version)
	case e.File != "":
		return fmt.Sprintf("%s: %s (file=%q)", e.Kind, msg, e.File)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no file/version context.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap builds an *Error around cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// WithFile returns a copy of e with File set.
func (e *Error) WithFile(name string) *Error {
	c := *e
	c.File = name
	return &c
}

// WithVersion returns a copy of e with Version set.
func (e *Error) WithVersion(v int) *Error {
	c := *e
	c.Version = v
	return &c
}

// Is reports whether err is a *Error of the given kind, walking the
// error chain with errors.As.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
