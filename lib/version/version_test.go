// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrint(t *testing.T) {
	var buffer bytes.Buffer
	Print(&buffer, "bureau-qrlogin")
	line := buffer.String()
	if !strings.HasPrefix(line, "bureau-qrlogin "+Version+" (") {
		t.Errorf("Print = %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("Print should end with a newline")
	}
}
