// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diff renders differences between two texts for test
// failure messages.
package diff

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Diff returns a unified diff from want to got, or the empty string
// if the texts are equal. It shells out to the system diff command;
// if that is unavailable, it falls back to quoting both texts.
func Diff(got, want string) string {
	if got == want {
		return ""
	}
	if _, err := exec.LookPath("diff"); err != nil {
		return fmt.Sprintf("diff unavailable\ngot:  %q\nwant: %q", got, want)
	}

	dir, err := os.MkdirTemp("", "sweepdiff")
	if err != nil {
		return err.Error()
	}
	defer os.RemoveAll(dir)
	wantFile := filepath.Join(dir, "want")
	gotFile := filepath.Join(dir, "got")
	if err := os.WriteFile(wantFile, []byte(want), 0600); err != nil {
		return err.Error()
	}
	if err := os.WriteFile(gotFile, []byte(got), 0600); err != nil {
		return err.Error()
	}

	// diff exits non-zero when the inputs differ; that is the
	// expected case, so ignore the error if there is output.
	out, err := exec.Command("diff", "-u", wantFile, gotFile).CombinedOutput()
	if len(out) == 0 && err != nil {
		return err.Error()
	}
	return string(out)
}
