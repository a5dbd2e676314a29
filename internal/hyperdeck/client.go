// Package hyperdeck speaks the HyperDeck text control protocol over TCP,
// just enough of it to read the deck's display timecode while recording.
package hyperdeck

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/TelioTortay/ATEMLogger/internal/timecode"
)

// DefaultPort is the deck's control port, appended when the configured
// address has none.
const DefaultPort = "9993"

// ErrUnreachable is returned by Connect when the deck cannot be reached.
// It is the only deck error that aborts a session.
var ErrUnreachable = errors.New("hyperdeck unreachable")

const (
	dialTimeout  = 5 * time.Second
	queryTimeout = 2 * time.Second
)

// Client holds one persistent control connection. Methods are not safe for
// concurrent use; the monitoring session is the only caller.
type Client struct {
	conn    net.Conn
	timeout time.Duration
}

// Connect dials the deck and drains its unsolicited connection banner before
// returning, so the first query reads a clean stream.
func Connect(address string) (*Client, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, DefaultPort)
	}

	conn, err := net.DialTimeout("tcp", address, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, address, err)
	}

	c := &Client{conn: conn, timeout: queryTimeout}
	// The banner is a "500 connection info:" block; its content is irrelevant.
	c.readResponse()
	return c, nil
}

// QueryTimecode sends one "transport info" command and extracts the display
// timecode from the reply. A deck that reports a transport status but no
// timecode (stopped, ejected) yields ok=false. I/O and parse failures are
// logged and also yield ok=false so the poll loop survives a bad sample.
func (c *Client) QueryTimecode() (timecode.Timecode, bool) {
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write([]byte("transport info\n")); err != nil {
		slog.Warn("hyperdeck write failed", "err", err)
		return timecode.Timecode{}, false
	}

	response := c.readResponse()
	if response == "" {
		slog.Warn("hyperdeck returned no transport info before the read deadline")
		return timecode.Timecode{}, false
	}

	info := parseTransport(response)
	if !info.HasTimecode {
		if info.Status != "" {
			slog.Debug("hyperdeck has no display timecode", "status", info.Status)
		} else {
			slog.Warn("hyperdeck reply had neither timecode nor status", "reply", response)
		}
		return timecode.Timecode{}, false
	}
	return info.Timecode, true
}

// readResponse accumulates the current response block. The protocol is
// line-oriented but a reply is not guaranteed to arrive in one read, so it
// keeps reading until the blank line that ends a block, the peer closes the
// stream, or the deadline expires. Whatever accumulated by then is returned;
// a stalled or chatty device can delay a sample but never hang the session.
func (c *Client) readResponse() string {
	c.conn.SetReadDeadline(time.Now().Add(c.timeout))

	var buf strings.Builder
	chunk := make([]byte, 1024)
	for {
		n, err := c.conn.Read(chunk)
		buf.Write(chunk[:n])
		if strings.Contains(buf.String(), "\n\n") || strings.Contains(buf.String(), "\r\n\r\n") {
			break
		}
		if err != nil {
			break
		}
	}
	return buf.String()
}

// Close terminates the control connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// TransportInfo is the parsed subset of a "transport info" reply. All other
// fields the deck reports are ignored.
type TransportInfo struct {
	Status      string
	Timecode    timecode.Timecode
	HasTimecode bool
}

func parseTransport(response string) TransportInfo {
	var info TransportInfo
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if value, ok := strings.CutPrefix(line, "display timecode:"); ok {
			tc, err := timecode.Parse(value)
			if err != nil {
				slog.Warn("hyperdeck sent an unparsable display timecode", "value", strings.TrimSpace(value))
				continue
			}
			info.Timecode = tc
			info.HasTimecode = true
		} else if value, ok := strings.CutPrefix(line, "status:"); ok {
			info.Status = strings.TrimSpace(value)
		}
	}
	return info
}
