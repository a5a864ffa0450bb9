package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

const (
	// DefaultWPACtrlDir is where wpa_supplicant creates its control sockets
	DefaultWPACtrlDir = "/var/run/wpa_supplicant"
	// DefaultHostapdCtrlDir is where hostapd creates its control sockets
	DefaultHostapdCtrlDir = "/var/run/hostapd"

	ctrlTimeout = 5 * time.Second
	ctrlBufSize = 16 * 1024
)

// ErrCtrlFailed is returned when the daemon answers a command with FAIL
var ErrCtrlFailed = errors.New("control command failed")

var ctrlSeq atomic.Uint64

// CtrlClient talks to a wpa_supplicant or hostapd control socket.
// Both daemons share the datagram protocol: one command per datagram,
// one reply per command, unsolicited events prefixed with "<level>".
type CtrlClient struct {
	dir     string
	iface   string
	timeout time.Duration
}

// NewCtrlClient creates a client for the socket of iface under dir.
// An empty iface selects the first socket found in dir.
func NewCtrlClient(dir, iface string) *CtrlClient {
	return &CtrlClient{dir: dir, iface: iface, timeout: ctrlTimeout}
}

// Interface returns the interface the client talks to, resolving it if needed
func (c *CtrlClient) Interface() string {
	if c.iface != "" {
		return c.iface
	}
	names, err := os.ReadDir(c.dir)
	if err != nil {
		return ""
	}
	for _, n := range names {
		// p2p-dev-* sockets belong to the P2P device, not the station
		if strings.HasPrefix(n.Name(), "p2p-") {
			continue
		}
		if n.Type()&os.ModeSocket != 0 {
			return n.Name()
		}
	}
	return ""
}

// SocketPath returns the daemon socket path, empty when none exists
func (c *CtrlClient) SocketPath() string {
	iface := c.Interface()
	if iface == "" {
		return ""
	}
	return filepath.Join(c.dir, iface)
}

// Available reports whether the daemon socket exists
func (c *CtrlClient) Available() bool {
	path := c.SocketPath()
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// ctrlConn is a connected control socket bound to a private local address
type ctrlConn struct {
	*net.UnixConn
	local string
}

func (c *ctrlConn) Close() error {
	err := c.UnixConn.Close()
	os.Remove(c.local)
	return err
}

func (c *CtrlClient) dial() (*ctrlConn, error) {
	path := c.SocketPath()
	if path == "" {
		return nil, fmt.Errorf("no control socket in %s", c.dir)
	}

	// The daemon replies to the sender's address, so the client must bind one
	local := filepath.Join(os.TempDir(), fmt.Sprintf("wifiutils_%d_%d", os.Getpid(), ctrlSeq.Add(1)))
	conn, err := net.DialUnix("unixgram",
		&net.UnixAddr{Name: local, Net: "unixgram"},
		&net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return &ctrlConn{UnixConn: conn, local: local}, nil
}

// Request sends one command and returns the daemon's reply
func (c *CtrlClient) Request(ctx context.Context, cmd string) (string, error) {
	conn, err := c.dial()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", err
	}

	return roundTrip(conn, cmd)
}

func roundTrip(conn *ctrlConn, cmd string) (string, error) {
	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", fmt.Errorf("send %s: %w", cmd, err)
	}

	buf := make([]byte, ctrlBufSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return "", fmt.Errorf("read %s reply: %w", cmd, err)
		}
		reply := string(buf[:n])
		if strings.HasPrefix(reply, "<") {
			// unsolicited event on an attached socket
			continue
		}
		if reply == "FAIL\n" {
			return "", fmt.Errorf("%s: %w", cmd, ErrCtrlFailed)
		}
		return reply, nil
	}
}

// parseKeyValues parses "key=value" reply lines
func parseKeyValues(reply string) map[string]string {
	res := make(map[string]string)
	for _, line := range strings.Split(reply, "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok || k == "" {
			continue
		}
		res[k] = v
	}
	return res
}

// stripEventLevel removes the "<N>" priority prefix of an event
func stripEventLevel(msg string) string {
	msg = strings.TrimRight(msg, "\n")
	if strings.HasPrefix(msg, "<") {
		if i := strings.IndexByte(msg, '>'); i > 0 {
			return msg[i+1:]
		}
	}
	return msg
}
