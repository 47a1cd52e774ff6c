// Package lock speaks the proof-of-work lock device protocol: a line-based
// text exchange over TCP. Each request is one command byte plus optional
// payload and a trailing newline; each response is a newline-terminated
// ASCII line starting with "1" (success/true), "0" (false/failure) or the
// literal prefix "ERROR" (precondition violation).
package lock

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/powkey/powkey/internal/digest"
)

// Error taxonomy of the device exchange. Classified once here; callers use
// errors.Is. No operation is ever retried automatically.
var (
	// ErrConnection: the transport failed before a response was read.
	ErrConnection = errors.New("lock device connection failed")
	// ErrUnsuccessful: the device rejected the presented nonce.
	ErrUnsuccessful = errors.New("lock device rejected the nonce")
	// ErrLockedPrecondition: the operation requires an unlocked device.
	ErrLockedPrecondition = errors.New("operation invalid while the device is locked")
	// ErrUnlockedPrecondition: the operation requires a locked device.
	ErrUnlockedPrecondition = errors.New("operation invalid while the device is unlocked")
	// ErrUnknownResponse: the device answered outside its protocol.
	ErrUnknownResponse = errors.New("unrecognized lock device response")
)

// Config carries client connection settings.
type Config struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
}

// Client is a connection to one lock device.
type Client struct {
	logger *zap.Logger
	cfg    Config
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the device at addr (host:port).
func Dial(logger *zap.Logger, addr string, cfg Config) (*Client, error) {
	cfg.applyDefaults()
	conn, err := net.DialTimeout("tcp", addr, cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, addr, err)
	}
	logger.Debug("connected to lock device", zap.String("addr", addr))
	return &Client{
		logger: logger,
		cfg:    cfg,
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Open asks an unlocked device to physically open.
func (c *Client) Open() error {
	resp, err := c.roundTrip([]byte("O\n"))
	if err != nil {
		return err
	}
	switch {
	case strings.HasPrefix(resp, "ERROR"):
		return ErrLockedPrecondition
	case strings.HasPrefix(resp, "1"):
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResponse, resp)
	}
}

// Status reports whether the device is locked.
func (c *Client) Status() (locked bool, err error) {
	resp, err := c.roundTrip([]byte("s\n"))
	if err != nil {
		return false, err
	}
	switch {
	case strings.HasPrefix(resp, "1"):
		return true, nil
	case strings.HasPrefix(resp, "0"):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownResponse, resp)
	}
}

// Base fetches the base string the device generated when it was locked.
// Only a locked device has a base.
func (c *Client) Base() (string, error) {
	resp, err := c.roundTrip([]byte("b\n"))
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(resp, "ERROR") {
		return "", ErrUnlockedPrecondition
	}
	return strings.TrimSuffix(resp, "\n"), nil
}

// Target fetches the device's current target. Only a locked device has one.
func (c *Client) Target() (string, error) {
	resp, err := c.roundTrip([]byte("t\n"))
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(resp, "ERROR") {
		return "", ErrUnlockedPrecondition
	}
	return strings.TrimSuffix(resp, "\n"), nil
}

// Lock locks the device under the given target and returns the base string
// the device generated.
func (c *Client) Lock(target digest.Digest) (string, error) {
	msg := make([]byte, 0, len(target)+2)
	msg = append(msg, 'l')
	msg = append(msg, target[:]...)
	msg = append(msg, '\n')

	resp, err := c.roundTrip(msg)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(resp, "ERROR") {
		return "", ErrLockedPrecondition
	}
	return strings.TrimSuffix(resp, "\n"), nil
}

// Unlock presents a candidate nonce, hex-encoded in its 8-byte little-endian
// wire form.
func (c *Client) Unlock(n digest.Nonce) error {
	msg := make([]byte, 0, 18)
	msg = append(msg, 'u')
	msg = append(msg, n.HexBytes()...)
	msg = append(msg, '\n')

	resp, err := c.roundTrip(msg)
	if err != nil {
		return err
	}
	switch {
	case strings.HasPrefix(resp, "1"):
		c.logger.Info("device unlocked", zap.Uint64("nonce", uint64(n)))
		return nil
	case strings.HasPrefix(resp, "0"):
		return ErrUnsuccessful
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResponse, resp)
	}
}

// roundTrip writes one request line and reads one response line, applying
// the configured deadlines to each leg.
func (c *Client) roundTrip(request []byte) (string, error) {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if _, err := c.conn.Write(request); err != nil {
		return "", fmt.Errorf("%w: write: %v", ErrConnection, err)
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	resp, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", ErrConnection, err)
	}
	return resp, nil
}
