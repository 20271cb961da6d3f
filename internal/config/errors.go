// SPDX-License-Identifier: MIT

package config

import "errors"

var (
	// ErrRead marks a backing file that could not be read.
	ErrRead = errors.New("config: read file")
	// ErrParse marks malformed structured text in a backing file.
	ErrParse = errors.New("config: parse file")
	// ErrBootstrap marks a template file that could not be written. This is
	// the only error that aborts startup for a domain.
	ErrBootstrap = errors.New("config: bootstrap template")
	// ErrUnknownDomain marks an operation against an unregistered domain.
	ErrUnknownDomain = errors.New("config: unknown domain")
)
