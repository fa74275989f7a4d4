package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	if cmd.Use != "deletia" {
		t.Errorf("Use = %q, want %q", cmd.Use, "deletia")
	}

	want := map[string]bool{
		"audit":      false,
		"screenshot": false,
		"init":       false,
		"version":    false,
	}
	for _, sub := range cmd.Commands() {
		name := strings.Fields(sub.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)

	if !strings.Contains(buf.String(), "deletia version") {
		t.Errorf("version output = %q", buf.String())
	}
}
