package main

import "testing"

func TestNewServeCmdRegistersConfigFlag(t *testing.T) {
	cmd := newServeCmd()
	if cmd.Use != "serve" {
		t.Errorf("Use = %q, want serve", cmd.Use)
	}
	if cmd.Flags().Lookup("config") == nil {
		t.Error("serve command missing --config flag")
	}
}

func TestNewProbeCmdRegistersConfigFlag(t *testing.T) {
	cmd := newProbeCmd()
	if cmd.Use != "probe" {
		t.Errorf("Use = %q, want probe", cmd.Use)
	}
	if cmd.Flags().Lookup("config") == nil {
		t.Error("probe command missing --config flag")
	}
}
