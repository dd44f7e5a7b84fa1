package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestVerbosity(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "uci", 1)
	log.Info("started", "threads", 4)
	log.V(1).Info("iteration", "depth", 3)
	log.V(2).Info("hidden")

	out := buf.String()
	t.Log(out)
	if !strings.Contains(out, "uci") || !strings.Contains(out, `"msg"="started"`) || !strings.Contains(out, `"threads"=4`) {
		t.Errorf("missing lifecycle line in %q", out)
	}
	if !strings.Contains(out, `"depth"=3`) {
		t.Error("V(1) line missing")
	}
	if strings.Contains(out, "hidden") {
		t.Error("V(2) line printed at verbosity 1")
	}
}
