package console

import (
	"errors"
	"os/exec"
	"reflect"
	"testing"

	"github.com/rnwolfe/vmdeck/internal/vm"
)

func TestURI(t *testing.T) {
	cases := []struct {
		in   vm.Console
		want string
	}{
		{vm.Console{Protocol: "spice", Host: "127.0.0.1"}, "spice://127.0.0.1:5930"},
		{vm.Console{Protocol: "vnc", Host: "10.0.0.5"}, "vnc://10.0.0.5:5900"},
		{vm.Console{Protocol: "VNC", Host: "lab.local", Port: 5901}, "vnc://lab.local:5901"},
		{vm.Console{Protocol: "spice", Host: "::1", Port: 5931}, "spice://[::1]:5931"},
	}
	for _, tc := range cases {
		got, err := URI(tc.in)
		if err != nil {
			t.Errorf("URI(%+v): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("URI(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestURI_Errors(t *testing.T) {
	bad := []vm.Console{
		{Protocol: "rdp", Host: "x"},
		{Protocol: "vnc", Host: ""},
		{Protocol: "vnc", Host: "x", Port: 70000},
	}
	for _, c := range bad {
		if _, err := URI(c); err == nil {
			t.Errorf("URI(%+v) should fail", c)
		}
	}
}

func TestLauncher_Open(t *testing.T) {
	origLook, origExec := lookPath, execCommand
	defer func() { lookPath, execCommand = origLook, origExec }()

	lookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	var gotName string
	var gotArgs []string
	execCommand = func(name string, args ...string) *exec.Cmd {
		gotName, gotArgs = name, args
		return exec.Command("true")
	}

	v := vm.VM{Name: "web-1", Console: vm.Console{Protocol: "vnc", Host: "10.0.0.2", Port: 5901}}
	uri, err := Launcher{Viewer: "remote-viewer"}.Open(v)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if uri != "vnc://10.0.0.2:5901" {
		t.Fatalf("uri = %q", uri)
	}
	if gotName != "/usr/bin/remote-viewer" {
		t.Fatalf("viewer = %q", gotName)
	}
	if !reflect.DeepEqual(gotArgs, []string{"--title", "web-1", "vnc://10.0.0.2:5901"}) {
		t.Fatalf("args = %v", gotArgs)
	}
}

func TestLauncher_MissingViewer(t *testing.T) {
	origLook := lookPath
	defer func() { lookPath = origLook }()
	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	v := vm.VM{Name: "web-1", Console: vm.Console{Protocol: "spice", Host: "127.0.0.1"}}
	_, err := Launcher{Viewer: "nope"}.Open(v)
	if !errors.Is(err, ErrNoViewer) {
		t.Fatalf("expected ErrNoViewer, got %v", err)
	}
}

func TestLauncher_BadConsole(t *testing.T) {
	v := vm.VM{Name: "web-1", Console: vm.Console{Protocol: "spice"}}
	if _, err := (Launcher{Viewer: "remote-viewer"}).Open(v); err == nil {
		t.Fatal("missing host should fail before looking up the viewer")
	}
}
