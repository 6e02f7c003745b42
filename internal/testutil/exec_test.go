package testutil

import (
	"context"
	"fmt"
	"testing"
)

func TestFakeCommander_ExactMatch(t *testing.T) {
	t.Parallel()

	fc := NewFakeCommander()
	fc.Register("node --version", "v20.10.0\n", nil)

	out, err := fc.Run(context.Background(), "node", "--version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "v20.10.0\n" {
		t.Errorf("got %q, want %q", string(out), "v20.10.0\n")
	}
}

func TestFakeCommander_PrefixMatch(t *testing.T) {
	t.Parallel()

	fc := NewFakeCommander()
	fc.Register("corepack prepare", "", nil)

	_, err := fc.Run(context.Background(), "corepack", "prepare", "pnpm@8.15.4", "--activate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFakeCommander_ContainsMatch(t *testing.T) {
	t.Parallel()

	fc := NewFakeCommander()
	fc.RegisterContains("nodeswitch ls", "v18.20.0\n", nil)
	fc.RegisterContains("nodeswitch version lts/*", "v20.10.0\n", nil)

	out, err := fc.Run(context.Background(), "bash", "-c", ". nvm.sh\nnvm \"$@\"", "nodeswitch", "version", "lts/*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "v20.10.0\n" {
		t.Errorf("got %q, want %q", string(out), "v20.10.0\n")
	}
	if fc.CallCountContaining("nodeswitch version") != 1 {
		t.Errorf("expected 1 version call, got %d", fc.CallCountContaining("nodeswitch version"))
	}
}

func TestFakeCommander_ContainsLaterWins(t *testing.T) {
	t.Parallel()

	fc := NewFakeCommander()
	fc.RegisterContains("nodeswitch use", "first", nil)
	fc.RegisterContains("nodeswitch use 20", "second", nil)

	out, _ := fc.Run(context.Background(), "bash", "-c", "x", "nodeswitch", "use", "20.10.0")
	if string(out) != "second" {
		t.Errorf("got %q, want %q", string(out), "second")
	}
}

func TestFakeCommander_NoMatch(t *testing.T) {
	t.Parallel()

	fc := NewFakeCommander()

	_, err := fc.Run(context.Background(), "unknown", "command")
	if err == nil {
		t.Fatal("expected error for unregistered command")
	}
}

func TestFakeCommander_DefaultResponse(t *testing.T) {
	t.Parallel()

	fc := NewFakeCommander()
	fc.DefaultResponse = &Response{Output: []byte("default"), Err: nil}

	out, err := fc.Run(context.Background(), "any", "command")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "default" {
		t.Errorf("got %q, want %q", string(out), "default")
	}
}

func TestFakeCommander_RecordsCalls(t *testing.T) {
	t.Parallel()

	fc := NewFakeCommander()
	fc.DefaultResponse = &Response{Output: nil, Err: nil}

	fc.Run(context.Background(), "node", "--version")
	fc.Run(context.Background(), "pnpm", "--version")

	if len(fc.Calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(fc.Calls))
	}
	if !fc.Called("node") {
		t.Error("expected node to be called")
	}
	if fc.CallCount("pnpm") != 1 {
		t.Errorf("expected 1 pnpm call, got %d", fc.CallCount("pnpm"))
	}
}

func TestFakeCommander_ErrorResponse(t *testing.T) {
	t.Parallel()

	fc := NewFakeCommander()
	fc.Register("corepack prepare", "Usage Error\n", fmt.Errorf("exit status 1"))

	out, err := fc.Run(context.Background(), "corepack", "prepare", "pnpm@9.0.0")
	if err == nil {
		t.Fatal("expected error")
	}
	if string(out) != "Usage Error\n" {
		t.Errorf("got %q, want %q", string(out), "Usage Error\n")
	}
}

func TestFakeCommander_RunWithEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		env        map[string]string
		cmd        string
		args       []string
		register   string
		output     string
		wantOutput string
		wantErr    bool
	}{
		{
			name:       "delegates to Run logic with env recorded",
			env:        map[string]string{"COREPACK_ENABLE_NETWORK": "0"},
			cmd:        "pnpm",
			args:       []string{"--version"},
			register:   "pnpm --version",
			output:     "8.15.4\n",
			wantOutput: "8.15.4\n",
		},
		{
			name:       "records env with nil map",
			env:        nil,
			cmd:        "node",
			args:       []string{"--version"},
			register:   "node --version",
			output:     "v18.0.0\n",
			wantOutput: "v18.0.0\n",
		},
		{
			name:       "records multiple env vars",
			env:        map[string]string{"PATH": "/nvm/v20/bin", "COREPACK_ENABLE_STRICT": "0"},
			cmd:        "pnpm",
			args:       []string{"--version"},
			register:   "pnpm",
			output:     "9.1.0",
			wantOutput: "9.1.0",
		},
		{
			name:    "returns error for unregistered command",
			env:     map[string]string{"FOO": "bar"},
			cmd:     "unknown",
			args:    []string{"cmd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fc := NewFakeCommander()
			if tt.register != "" {
				fc.Register(tt.register, tt.output, nil)
			}

			out, err := fc.RunWithEnv(context.Background(), tt.env, tt.cmd, tt.args...)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(out) != tt.wantOutput {
				t.Errorf("output: got %q, want %q", string(out), tt.wantOutput)
			}
		})
	}
}

func TestFakeCommander_RunWithEnv_RecordsEnvCalls(t *testing.T) {
	t.Parallel()

	fc := NewFakeCommander()
	fc.DefaultResponse = &Response{Output: nil, Err: nil}

	env1 := map[string]string{"PATH": "/path/one"}
	env2 := map[string]string{"PATH": "/path/two", "EXTRA": "val"}

	fc.RunWithEnv(context.Background(), env1, "node", "--version")
	fc.RunWithEnv(context.Background(), env2, "pnpm", "--version")

	if len(fc.EnvCalls) != 2 {
		t.Fatalf("expected 2 EnvCalls, got %d", len(fc.EnvCalls))
	}
	if fc.EnvCalls[0]["PATH"] != "/path/one" {
		t.Errorf("EnvCalls[0] PATH: got %q, want %q", fc.EnvCalls[0]["PATH"], "/path/one")
	}
	if fc.EnvCalls[1]["EXTRA"] != "val" {
		t.Errorf("EnvCalls[1] EXTRA: got %q, want %q", fc.EnvCalls[1]["EXTRA"], "val")
	}
	if len(fc.Calls) != 2 {
		t.Fatalf("expected 2 Calls, got %d", len(fc.Calls))
	}
}
