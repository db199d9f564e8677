package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestFmtInt(t *testing.T) {
	if got := fmtInt(42); got != "42" {
		t.Errorf("fmtInt(42) = %q, want %q", got, "42")
	}
	if got := fmtInt(-1); got != "-1" {
		t.Errorf("fmtInt(-1) = %q, want %q", got, "-1")
	}
}

func TestFmtBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0B"},
		{1024, "1.00KiB"},
		{1024 * 1024, "1.00MiB"},
	}
	for _, c := range cases {
		if got := fmtBytes(c.in); got != c.want {
			t.Errorf("fmtBytes(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRenderPairsYAML(t *testing.T) {
	orig := Flags.Output
	Flags.Output = "yaml"
	defer func() { Flags.Output = orig }()

	var buf bytes.Buffer
	if err := renderPairs(&buf, [][2]string{{"name", "vm0"}, {"state", "running"}}); err != nil {
		t.Fatalf("renderPairs: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "name: vm0") || !strings.Contains(out, "state: running") {
		t.Errorf("renderPairs yaml output = %q, want it to contain both fields", out)
	}
}

func TestRenderPairsTableDefault(t *testing.T) {
	orig := Flags.Output
	Flags.Output = "table"
	defer func() { Flags.Output = orig }()

	var buf bytes.Buffer
	if err := renderPairs(&buf, [][2]string{{"name", "vm0"}}); err != nil {
		t.Fatalf("renderPairs: %v", err)
	}
	if !strings.Contains(buf.String(), "vm0") {
		t.Errorf("renderPairs table output = %q, want it to contain the value", buf.String())
	}
}
