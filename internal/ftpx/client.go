// Package ftpx is the transfer-session collaborator: it dials one FTP
// control connection per request, performs exactly one operation, and
// is closed by the caller. It deliberately returns directory listings
// as raw text; parsing them is the listing package's job.
package ftpx

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ftpgate/internal/session"
)

// ErrTooLarge is returned by Retrieve when the remote file exceeds the
// caller's byte limit. The download is aborted, not buffered.
var ErrTooLarge = errors.New("ftp: transfer exceeds size limit")

// Client is one live FTP session. It is not safe for concurrent use;
// every request opens its own.
type Client struct {
	conn    net.Conn
	text    *textproto.Conn
	host    string
	timeout time.Duration
	tlsCfg  *tls.Config
}

// Dial opens a control connection, negotiates explicit TLS when the
// credentials ask for it, logs in and switches to binary mode.
func Dial(ctx context.Context, creds session.Credentials) (*Client, error) {
	timeout := creds.Timeout()

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", creds.Addr())
	if err != nil {
		return nil, fmt.Errorf("ftp dial %s: %w", creds.Addr(), err)
	}

	c := &Client{
		conn:    conn,
		text:    textproto.NewConn(conn),
		host:    creds.Host,
		timeout: timeout,
	}

	if _, _, err := c.readResponse(220); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ftp greeting: %w", err)
	}

	if creds.SSL {
		if err := c.upgradeTLS(creds); err != nil {
			conn.Close()
			return nil, err
		}
	}

	if err := c.login(creds.Username, creds.Password); err != nil {
		c.Quit()
		return nil, err
	}

	if creds.SSL {
		if _, _, err := c.cmd(200, "PBSZ 0"); err != nil {
			c.Quit()
			return nil, fmt.Errorf("ftp PBSZ: %w", err)
		}
		if _, _, err := c.cmd(200, "PROT P"); err != nil {
			c.Quit()
			return nil, fmt.Errorf("ftp PROT: %w", err)
		}
	}

	if _, _, err := c.cmd(200, "TYPE I"); err != nil {
		c.Quit()
		return nil, fmt.Errorf("ftp TYPE I: %w", err)
	}

	return c, nil
}

func (c *Client) upgradeTLS(creds session.Credentials) error {
	if _, _, err := c.cmd(234, "AUTH TLS"); err != nil {
		return fmt.Errorf("ftp AUTH TLS: %w", err)
	}
	c.tlsCfg = &tls.Config{
		ServerName:         creds.Host,
		InsecureSkipVerify: creds.IgnoreCertErrors,
	}
	tlsConn := tls.Client(c.conn, c.tlsCfg)
	tlsConn.SetDeadline(time.Now().Add(c.timeout))
	if err := tlsConn.Handshake(); err != nil {
		return fmt.Errorf("ftp TLS handshake: %w", err)
	}
	tlsConn.SetDeadline(time.Time{})
	c.conn = tlsConn
	c.text = textproto.NewConn(tlsConn)
	return nil
}

func (c *Client) login(user, pass string) error {
	code, _, err := c.cmd(0, "USER %s", user)
	if err != nil {
		return fmt.Errorf("ftp USER: %w", err)
	}
	switch code {
	case 230:
		return nil
	case 331:
		if _, _, err := c.cmd(230, "PASS %s", pass); err != nil {
			return fmt.Errorf("ftp login failed: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("ftp login rejected with code %d", code)
	}
}

// RawList runs LIST and returns the listing exactly as the server sent
// it, line terminators included.
func (c *Client) RawList(path string) (string, error) {
	data, err := c.transferIn(0, "LIST %s", path)
	if err != nil {
		return "", fmt.Errorf("ftp LIST %s: %w", path, err)
	}
	return string(data), nil
}

// Retrieve downloads a file. A positive limit caps the download at that
// many bytes; crossing it aborts the transfer with ErrTooLarge instead
// of buffering the rest.
func (c *Client) Retrieve(path string, limit int64) ([]byte, error) {
	data, err := c.transferIn(limit, "RETR %s", path)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("ftp RETR %s: %w", path, err)
	}
	return data, nil
}

// Store uploads data, replacing any existing file.
func (c *Client) Store(path string, data []byte) error {
	if err := c.transferOut("STOR %s", path, data); err != nil {
		return fmt.Errorf("ftp STOR %s: %w", path, err)
	}
	return nil
}

// Delete removes a file.
func (c *Client) Delete(path string) error {
	if _, _, err := c.cmd(250, "DELE %s", path); err != nil {
		return fmt.Errorf("ftp DELE %s: %w", path, err)
	}
	return nil
}

// Rename moves a file or directory.
func (c *Client) Rename(from, to string) error {
	if _, _, err := c.cmd(350, "RNFR %s", from); err != nil {
		return fmt.Errorf("ftp RNFR %s: %w", from, err)
	}
	if _, _, err := c.cmd(250, "RNTO %s", to); err != nil {
		return fmt.Errorf("ftp RNTO %s: %w", to, err)
	}
	return nil
}

// MakeDir creates a directory.
func (c *Client) MakeDir(path string) error {
	if _, _, err := c.cmd(257, "MKD %s", path); err != nil {
		return fmt.Errorf("ftp MKD %s: %w", path, err)
	}
	return nil
}

// RemoveDir removes a directory.
func (c *Client) RemoveDir(path string) error {
	if _, _, err := c.cmd(250, "RMD %s", path); err != nil {
		return fmt.Errorf("ftp RMD %s: %w", path, err)
	}
	return nil
}

// Size returns a file's size in bytes via SIZE.
func (c *Client) Size(path string) (int64, error) {
	_, msg, err := c.cmd(213, "SIZE %s", path)
	if err != nil {
		return 0, fmt.Errorf("ftp SIZE %s: %w", path, err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(msg), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ftp SIZE %s: bad reply %q", path, msg)
	}
	return n, nil
}

// ModTime returns a file's modification time via MDTM.
func (c *Client) ModTime(path string) (time.Time, error) {
	_, msg, err := c.cmd(213, "MDTM %s", path)
	if err != nil {
		return time.Time{}, fmt.Errorf("ftp MDTM %s: %w", path, err)
	}
	t, err := parseMdtm(msg)
	if err != nil {
		return time.Time{}, fmt.Errorf("ftp MDTM %s: %w", path, err)
	}
	return t, nil
}

// Quit ends the session. Errors are ignored; the connection is closed
// regardless.
func (c *Client) Quit() {
	c.cmd(0, "QUIT")
	c.conn.Close()
}

func (c *Client) cmd(expect int, format string, args ...any) (int, string, error) {
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if _, err := c.text.Cmd(format, args...); err != nil {
		return 0, "", err
	}
	return c.text.ReadResponse(expect)
}

func (c *Client) readResponse(expect int) (int, string, error) {
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	return c.text.ReadResponse(expect)
}

// transferIn runs a download-direction command over a fresh passive
// data connection and drains it. A positive limit aborts the transfer
// with ErrTooLarge once more than limit bytes arrive.
func (c *Client) transferIn(limit int64, format string, args ...any) ([]byte, error) {
	dconn, err := c.openDataConn()
	if err != nil {
		return nil, err
	}
	defer dconn.Close()

	if _, _, err := c.cmd(1, format, args...); err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		dconn.SetDeadline(time.Now().Add(c.timeout))
	}
	src := io.Reader(dconn)
	if limit > 0 {
		src = io.LimitReader(dconn, limit+1)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, src); err != nil {
		return nil, err
	}
	if limit > 0 && int64(buf.Len()) > limit {
		return nil, ErrTooLarge
	}
	dconn.Close()

	if _, _, err := c.readResponse(2); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// transferOut runs an upload-direction command over a fresh passive
// data connection.
func (c *Client) transferOut(format string, path string, data []byte) error {
	dconn, err := c.openDataConn()
	if err != nil {
		return err
	}
	defer dconn.Close()

	if _, _, err := c.cmd(1, format, path); err != nil {
		return err
	}

	if c.timeout > 0 {
		dconn.SetDeadline(time.Now().Add(c.timeout))
	}
	if _, err := dconn.Write(data); err != nil {
		return err
	}
	// The server only finalizes the transfer once the data connection
	// closes.
	if err := dconn.Close(); err != nil {
		return err
	}

	_, _, err = c.readResponse(2)
	return err
}

// openDataConn negotiates a passive data connection, preferring EPSV
// and falling back to PASV. The advertised PASV host is ignored in
// favor of the control-connection host; NAT setups routinely advertise
// unroutable addresses.
func (c *Client) openDataConn() (net.Conn, error) {
	port, err := c.passivePort()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(c.host, strconv.Itoa(port))
	dconn, err := net.DialTimeout("tcp", addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("ftp data dial %s: %w", addr, err)
	}

	if c.tlsCfg != nil {
		tlsConn := tls.Client(dconn, c.tlsCfg)
		tlsConn.SetDeadline(time.Now().Add(c.timeout))
		if err := tlsConn.Handshake(); err != nil {
			dconn.Close()
			return nil, fmt.Errorf("ftp data TLS handshake: %w", err)
		}
		tlsConn.SetDeadline(time.Time{})
		return tlsConn, nil
	}
	return dconn, nil
}

func (c *Client) passivePort() (int, error) {
	if _, msg, err := c.cmd(229, "EPSV"); err == nil {
		if port, ok := parseEpsvPort(msg); ok {
			return port, nil
		}
	}
	_, msg, err := c.cmd(227, "PASV")
	if err != nil {
		return 0, fmt.Errorf("ftp passive mode: %w", err)
	}
	port, ok := parsePasvPort(msg)
	if !ok {
		return 0, fmt.Errorf("ftp PASV: bad reply %q", msg)
	}
	return port, nil
}

var (
	epsvRe = regexp.MustCompile(`\|\|\|(\d+)\|`)
	pasvRe = regexp.MustCompile(`(\d+),(\d+),(\d+),(\d+),(\d+),(\d+)`)
)

func parseEpsvPort(msg string) (int, bool) {
	m := epsvRe.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	port, err := strconv.Atoi(m[1])
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}

func parsePasvPort(msg string) (int, bool) {
	m := pasvRe.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	hi, err1 := strconv.Atoi(m[5])
	lo, err2 := strconv.Atoi(m[6])
	if err1 != nil || err2 != nil || hi > 255 || lo > 255 {
		return 0, false
	}
	port := hi*256 + lo
	if port < 1 {
		return 0, false
	}
	return port, true
}

func parseMdtm(msg string) (time.Time, error) {
	s := strings.TrimSpace(msg)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return time.Parse("20060102150405", s)
}
