// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// categorized is implemented by errors that carry a machine-readable
// category, such as the CLI's ToolError.
type categorized interface {
	error
	CategoryName() string
}

// Fatal writes the error to stderr and exits with code 1.
func Fatal(err error) {
	Report(os.Stderr, err)
	os.Exit(1)
}

// Report writes "error: err" to w, prefixed with the error's category
// when it has one, so that wrapper scripts can grep for it.
func Report(w io.Writer, err error) {
	var withCategory categorized
	if errors.As(err, &withCategory) {
		fmt.Fprintf(w, "error [%s]: %v\n", withCategory.CategoryName(), err)
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
