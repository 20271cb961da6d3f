// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"

	"github.com/google/renameio/v2"

	"github.com/groveworks/siteconf/internal/tree"
)

// Bootstrap writes the domain's compiled-in default to path when no file
// exists there, giving operators a durable record of the expected shape.
// The write is atomic and durable (temp file, fsync, rename). A write
// failure — or something other than a regular file squatting on the path —
// is the one condition that aborts startup for a domain; the in-memory
// default still answers reads regardless.
func Bootstrap(dom Domain, path string) (created bool, err error) {
	if fi, err := os.Stat(path); err == nil {
		if !fi.Mode().IsRegular() {
			return false, fmt.Errorf("%w: %s is not a regular file", ErrBootstrap, path)
		}
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("%w: stat %s: %v", ErrBootstrap, path, err)
	}

	data, err := tree.Encode(dom.Defaults)
	if err != nil {
		return false, fmt.Errorf("%w: encode %s: %v", ErrBootstrap, dom.Name, err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("%w: write %s: %v", ErrBootstrap, path, err)
	}

	templateWrites.Inc()
	return true, nil
}
