package cmd

import (
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/rnwolfe/vmdeck/internal/config"
	"github.com/rnwolfe/vmdeck/internal/console"
	"github.com/rnwolfe/vmdeck/internal/vm"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newConsoleSetCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	reset := func() { consoleSetProtocol, consoleSetHost, consoleSetPort = "", "", 0 }
	reset()
	t.Cleanup(reset)

	c := &cobra.Command{}
	c.Flags().StringVar(&consoleSetProtocol, "protocol", "", "")
	c.Flags().StringVar(&consoleSetHost, "host", "", "")
	c.Flags().IntVar(&consoleSetPort, "port", 0, "")
	if err := c.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	return c
}

func TestRunConsoleURI(t *testing.T) {
	configTestEnv(t)
	resetVMFlags(t)

	vmAddProtocol, vmAddPort = "vnc", 5901
	addVM(t, "web-1")

	out := captureStdout(t, func() {
		if err := runConsoleURI(nil, []string{"web-1"}); err != nil {
			t.Errorf("runConsoleURI: %v", err)
		}
	})
	if strings.TrimSpace(out) != "vnc://127.0.0.1:5901" {
		t.Fatalf("got %q", out)
	}
}

func TestRunConsoleSet_KeepsUnchangedFields(t *testing.T) {
	configTestEnv(t)
	resetVMFlags(t)

	vmAddHost = "10.1.1.1"
	addVM(t, "web-1")

	captureStdout(t, func() {
		if err := runConsoleSet(newConsoleSetCmd(t, "--protocol", "vnc", "--port", "5905"), []string{"web-1"}); err != nil {
			t.Fatalf("runConsoleSet: %v", err)
		}
	})

	v, err := fetchVM(t, "web-1")
	if err != nil {
		t.Fatal(err)
	}
	want := vm.Console{Protocol: "vnc", Host: "10.1.1.1", Port: 5905}
	if v.Console != want {
		t.Fatalf("console = %+v, want %+v", v.Console, want)
	}

	if err := runConsoleSet(newConsoleSetCmd(t, "--port", "70000"), []string{"web-1"}); err == nil {
		t.Error("expected error for out-of-range port")
	}
	if err := runConsoleSet(newConsoleSetCmd(t, "--protocol", "rdp"), []string{"web-1"}); err == nil {
		t.Error("expected error for unknown protocol")
	}
}

func TestRunConsoleOpen_MissingViewer(t *testing.T) {
	configTestEnv(t)
	resetVMFlags(t)

	cfg, _ := config.Load()
	cfg.Console.Viewer = "vmdeck-test-no-such-viewer"
	if err := config.Save(cfg); err != nil {
		t.Fatal(err)
	}
	addVM(t, "web-1")

	err := runConsoleOpen(nil, []string{"web-1"})
	if !errors.Is(err, console.ErrNoViewer) {
		t.Fatalf("expected ErrNoViewer, got %v", err)
	}
}

// withStdin replaces os.Stdin with a pipe holding input.
func withStdin(t *testing.T, input string) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteString(input); err != nil {
		t.Fatal(err)
	}
	w.Close()
	old := os.Stdin
	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = old
		r.Close()
	})
}

func TestRunConsolePasswd_SetShowClear(t *testing.T) {
	if term.IsTerminal(int(syscall.Stdin)) {
		t.Skip("stdin is a terminal")
	}
	configTestEnv(t)
	resetVMFlags(t)
	t.Setenv(passphraseEnv, "correct horse")
	reset := func() { consolePasswdShow, consolePasswdClear = false, false }
	reset()
	t.Cleanup(reset)

	addVM(t, "web-1")

	withStdin(t, "s3cret\n")
	captureStdout(t, func() {
		if err := runConsolePasswd(nil, []string{"web-1"}); err != nil {
			t.Fatalf("runConsolePasswd: %v", err)
		}
	})

	consolePasswdShow = true
	out := captureStdout(t, func() {
		if err := runConsolePasswd(nil, []string{"web-1"}); err != nil {
			t.Fatalf("runConsolePasswd --show: %v", err)
		}
	})
	if strings.TrimSpace(out) != "s3cret" {
		t.Fatalf("show = %q, want s3cret", out)
	}

	t.Setenv(passphraseEnv, "wrong")
	err := runConsolePasswd(nil, []string{"web-1"})
	if !errors.Is(err, console.ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}

	t.Setenv(passphraseEnv, "correct horse")
	consolePasswdShow, consolePasswdClear = false, true
	captureStdout(t, func() {
		if err := runConsolePasswd(nil, []string{"web-1"}); err != nil {
			t.Fatalf("runConsolePasswd --clear: %v", err)
		}
	})

	consolePasswdShow, consolePasswdClear = true, false
	if err := runConsolePasswd(nil, []string{"web-1"}); !errors.Is(err, console.ErrNoPassword) {
		t.Fatalf("expected ErrNoPassword after clear, got %v", err)
	}
}

func TestRunConsolePasswd_NoPassphrase(t *testing.T) {
	if term.IsTerminal(int(syscall.Stdin)) {
		t.Skip("stdin is a terminal")
	}
	configTestEnv(t)
	resetVMFlags(t)
	t.Setenv(passphraseEnv, "")
	consolePasswdShow = true
	t.Cleanup(func() { consolePasswdShow = false })

	addVM(t, "web-1")

	err := runConsolePasswd(nil, []string{"web-1"})
	if err == nil || !strings.Contains(err.Error(), passphraseEnv) {
		t.Fatalf("expected passphrase error, got %v", err)
	}
}

func TestRunConsolePasswd_ExclusiveFlags(t *testing.T) {
	consolePasswdShow, consolePasswdClear = true, true
	t.Cleanup(func() { consolePasswdShow, consolePasswdClear = false, false })

	if err := runConsolePasswd(nil, []string{"web-1"}); err == nil {
		t.Fatal("expected error for --show with --clear")
	}
}
