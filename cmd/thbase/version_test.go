package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vango-dev/thbase/internal/config"
)

func TestWriteVersion(t *testing.T) {
	var buf bytes.Buffer
	writeVersion(&buf, config.New())

	out := buf.String()
	for _, want := range []string{
		"Version:    " + version,
		"Records:    file (available: file, badger, memory)",
		"Images:     disk (available: disk, s3)",
		"Max upload: 5.0 MiB",
		"Port:       3000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
