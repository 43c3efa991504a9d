// Package console opens a VM's remote display (VNC or SPICE) in an external
// viewer and keeps console passwords encrypted at rest.
package console

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rnwolfe/vmdeck/internal/vm"
)

var ErrNoViewer = errors.New("console viewer not found")

// Protocol is a remote display protocol.
type Protocol string

const (
	VNC   Protocol = "vnc"
	SPICE Protocol = "spice"
)

// DefaultPort returns the first display port of p.
func (p Protocol) DefaultPort() int {
	if p == VNC {
		return 5900
	}
	return 5930
}

// ParseProtocol parses a protocol name.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(strings.ToLower(strings.TrimSpace(s))) {
	case VNC:
		return VNC, nil
	case SPICE:
		return SPICE, nil
	}
	return "", fmt.Errorf("unknown console protocol %q (use vnc or spice)", s)
}

// URI builds the viewer URI for c, e.g. "spice://127.0.0.1:5930".
// A zero port means the protocol's default port.
func URI(c vm.Console) (string, error) {
	proto, err := ParseProtocol(c.Protocol)
	if err != nil {
		return "", err
	}
	host := strings.TrimSpace(c.Host)
	if host == "" {
		return "", fmt.Errorf("console host is not set")
	}
	port := c.Port
	if port == 0 {
		port = proto.DefaultPort()
	}
	if port < 0 || port > 65535 {
		return "", fmt.Errorf("console port %d out of range", port)
	}

	u := url.URL{
		Scheme: string(proto),
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
	return u.String(), nil
}

// execCommand and lookPath are injectable for tests.
var (
	execCommand = exec.Command
	lookPath    = exec.LookPath
)

// Launcher starts an external viewer for a console URI.
type Launcher struct {
	Viewer string
}

// Open starts the viewer for v without waiting for it to exit.
func (l Launcher) Open(v vm.VM) (string, error) {
	uri, err := URI(v.Console)
	if err != nil {
		return "", fmt.Errorf("%s: %w", v.Name, err)
	}

	bin, err := lookPath(l.Viewer)
	if err != nil {
		return "", fmt.Errorf("%w: %q (set console.viewer)", ErrNoViewer, l.Viewer)
	}

	cmd := execCommand(bin, "--title", v.Name, uri)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting %s: %w", l.Viewer, err)
	}
	// The viewer outlives vmdeck; release it so it is not left a zombie.
	if cmd.Process != nil {
		_ = cmd.Process.Release()
	}
	return uri, nil
}
