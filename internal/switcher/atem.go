package switcher

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"
)

// DefaultATEMPort is the switcher's UDP control port.
const DefaultATEMPort = "9910"

// ErrUnreachable is returned by Dial when the handshake with the switcher
// does not complete.
var ErrUnreachable = errors.New("atem unreachable")

// errNoProgram is returned before the switcher has reported a program input.
var errNoProgram = errors.New("program input not yet reported")

const (
	handshakeTimeout = 5 * time.Second
	headerLen        = 12

	// Packet flags, carried in the top five bits of the first header byte.
	flagAckRequest = 0x01
	flagHello      = 0x02
	flagAckReply   = 0x10
)

// helloPacket opens a session. The switcher answers with a hello of its own
// carrying the session id all later packets must echo.
var helloPacket = []byte{
	0x10, 0x14, 0x53, 0xab, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x3a, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// ATEMClient reads switcher state over the ATEM UDP control protocol. Only
// the slice of the protocol this tool needs is implemented: the handshake,
// the ack keepalive, and the PrgI (program bus) and InPr (input properties)
// state commands. Everything else in the state dump is ignored.
type ATEMClient struct {
	conn      *net.UDPConn
	sessionID uint16

	mu      sync.RWMutex
	program uint16
	hasProg bool
	names   map[uint16]string

	ready chan struct{} // closed when the initial state dump completes
	done  chan struct{} // closed when the receive loop exits
}

var _ Feed = (*ATEMClient)(nil)

// Dial connects to the switcher and blocks until the initial state dump
// finishes (the InCm command), so ProgramInput is answerable immediately
// after a successful return.
func Dial(address string) (*ATEMClient, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, DefaultATEMPort)
	}
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, address, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, address, err)
	}

	c := &ATEMClient{
		conn:  conn,
		names: make(map[uint16]string),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}

	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	go c.receiveLoop()

	select {
	case <-c.ready:
	case <-time.After(handshakeTimeout):
		c.Close()
		return nil, fmt.Errorf("%w: %s: no state dump received", ErrUnreachable, address)
	}
	return c, nil
}

// handshake sends the hello packet and waits for the switcher's hello reply,
// which carries the session id. The reply is acked like any other packet.
func (c *ATEMClient) handshake() error {
	deadline := time.Now().Add(handshakeTimeout)
	c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	if _, err := c.conn.Write(helloPacket); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	buf := make([]byte, 2048)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		if n < headerLen {
			continue
		}
		if buf[0]>>3&flagHello != 0 {
			c.sessionID = binary.BigEndian.Uint16(buf[2:4])
			c.sendAck(binary.BigEndian.Uint16(buf[10:12]))
			return nil
		}
	}
}

// receiveLoop acks every reliable packet (the switcher drops the session
// without the keepalive) and folds state commands into the cache. It exits
// when the socket is closed.
func (c *ATEMClient) receiveLoop() {
	defer close(c.done)

	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			return
		}
		if n < headerLen {
			continue
		}

		flags := buf[0] >> 3
		if flags&flagAckRequest != 0 {
			c.sessionID = binary.BigEndian.Uint16(buf[2:4])
			c.sendAck(binary.BigEndian.Uint16(buf[10:12]))
		}
		if n > headerLen {
			c.handlePayload(buf[headerLen:n])
		}
	}
}

// sendAck replies to a reliable packet. Send errors are left to the next
// read to surface; a dropped ack only costs a retransmit.
func (c *ATEMClient) sendAck(packetID uint16) {
	ack := make([]byte, headerLen)
	binary.BigEndian.PutUint16(ack[0:2], uint16(flagAckReply)<<11|headerLen)
	binary.BigEndian.PutUint16(ack[2:4], c.sessionID)
	binary.BigEndian.PutUint16(ack[4:6], packetID)
	if _, err := c.conn.Write(ack); err != nil {
		slog.Debug("atem ack send failed", "err", err)
	}
}

// handlePayload walks the command blocks in a packet body. Each block is a
// u16 length, two reserved bytes, a four-character name and the command data.
func (c *ATEMClient) handlePayload(payload []byte) {
	for len(payload) >= 8 {
		length := int(binary.BigEndian.Uint16(payload[0:2]))
		if length < 8 || length > len(payload) {
			slog.Debug("atem command block with bad length", "length", length)
			return
		}
		name := string(payload[4:8])
		c.handleCommand(name, payload[8:length])
		payload = payload[length:]
	}
}

func (c *ATEMClient) handleCommand(name string, data []byte) {
	switch name {
	case "PrgI":
		// M/E index, padding, video source. Only M/E 1 is tracked.
		if len(data) < 4 || data[0] != 0 {
			return
		}
		c.mu.Lock()
		c.program = binary.BigEndian.Uint16(data[2:4])
		c.hasProg = true
		c.mu.Unlock()

	case "InPr":
		// Source id, 20-byte long name, 4-byte short name, trailing flags.
		if len(data) < 22 {
			return
		}
		id := binary.BigEndian.Uint16(data[0:2])
		longName := cString(data[2:22])
		c.mu.Lock()
		c.names[id] = longName
		c.mu.Unlock()

	case "InCm":
		// Initialization complete: the state dump has been fully sent.
		select {
		case <-c.ready:
		default:
			close(c.ready)
		}
	}
}

// ProgramInput returns the source live on program, with the long name the
// switcher reported for it.
func (c *ATEMClient) ProgramInput() (Input, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasProg {
		return Input{}, errNoProgram
	}
	return Input{ID: c.program, Name: c.names[c.program]}, nil
}

// Inputs lists the external inputs (source ids 1-40 on every ATEM model),
// ordered by id.
func (c *ATEMClient) Inputs() []Input {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var inputs []Input
	for id, name := range c.names {
		if id >= 1 && id <= 40 {
			inputs = append(inputs, Input{ID: id, Name: name})
		}
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].ID < inputs[j].ID })
	return inputs
}

// Close shuts the socket down and waits for the receive loop to exit.
func (c *ATEMClient) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

// cString trims a fixed-width NUL-padded protocol string.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
