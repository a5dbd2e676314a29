package hyperdeck

import (
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

const banner = "500 connection info:\r\nprotocol version: 1.11\r\nmodel: HyperDeck Studio Mini\r\n\r\n"

// fakeDeck serves one connection, answering every "transport info" command
// with the given reply.
func fakeDeck(t *testing.T, reply string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte(banner))

		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			if strings.Contains(string(buf[:n]), "transport info") {
				conn.Write([]byte(reply))
			}
		}
	}()

	return ln.Addr().String()
}

func TestQueryTimecode_Recording(t *testing.T) {
	reply := "208 transport info:\r\nstatus: record\r\nspeed: 100\r\ndisplay timecode: 00:01:12:05\r\ntimecode: 00:01:12:05\r\n\r\n"
	addr := fakeDeck(t, reply)

	c, err := Connect(addr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	tc, ok := c.QueryTimecode()
	if !ok {
		t.Fatal("expected a timecode")
	}
	if got := tc.String(); got != "00:01:12:05" {
		t.Errorf("timecode = %q, want %q", got, "00:01:12:05")
	}
}

func TestQueryTimecode_StoppedDeckYieldsNoTimecode(t *testing.T) {
	reply := "208 transport info:\r\nstatus: stopped\r\nspeed: 0\r\n\r\n"
	addr := fakeDeck(t, reply)

	c, err := Connect(addr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if _, ok := c.QueryTimecode(); ok {
		t.Error("stopped deck should not yield a timecode")
	}
}

func TestQueryTimecode_ClosedConnectionYieldsNoTimecode(t *testing.T) {
	addr := fakeDeck(t, "")
	c, err := Connect(addr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.Close()

	if _, ok := c.QueryTimecode(); ok {
		t.Error("query on a closed connection should not yield a timecode")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	// A listener closed before Connect guarantees a refused connection.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Connect(addr); !errors.Is(err, ErrUnreachable) {
		t.Errorf("got %v, want ErrUnreachable", err)
	}
}

func TestConnect_DefaultPortAppended(t *testing.T) {
	// Bare-host addresses get the control port; the dial then fails fast
	// against an unroutable loopback port rather than a DNS error.
	_, err := Connect("127.0.0.1")
	if err == nil {
		t.Skip("something is listening on the default port")
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("got %v, want ErrUnreachable", err)
	}
	if !strings.Contains(err.Error(), ":"+DefaultPort) {
		t.Errorf("default port missing from error: %v", err)
	}
}

func TestParseTransport_IgnoresUnknownFields(t *testing.T) {
	info := parseTransport("208 transport info:\nstatus: record\nslot id: 1\nclip id: 3\ndisplay timecode: 10:20:30:12\n\n")
	if !info.HasTimecode {
		t.Fatal("expected a timecode")
	}
	if info.Timecode.String() != "10:20:30:12" {
		t.Errorf("timecode = %s", info.Timecode)
	}
	if info.Status != "record" {
		t.Errorf("status = %q, want %q", info.Status, "record")
	}
}

func TestParseTransport_BadTimecodeIsAbsorbed(t *testing.T) {
	info := parseTransport("status: record\ndisplay timecode: garbage\n\n")
	if info.HasTimecode {
		t.Error("unparsable timecode should be treated as absent")
	}
	if info.Status != "record" {
		t.Errorf("status = %q, want %q", info.Status, "record")
	}
}

func TestQueryTimecode_PartialReplyBoundedByDeadline(t *testing.T) {
	// Deck sends a fragment with no terminator and goes silent: the query
	// must return within the deadline with no timecode.
	addr := fakeDeck(t, "208 transport info:\r\nstatus: rec")

	c, err := Connect(addr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	start := time.Now()
	_, ok := c.QueryTimecode()
	if ok {
		t.Error("partial reply without timecode should yield none")
	}
	if elapsed := time.Since(start); elapsed > 2*queryTimeout {
		t.Errorf("query blocked for %v, deadline is %v", elapsed, queryTimeout)
	}
}
