package switcher

import (
	"encoding/binary"
	"net"
	"testing"
	"time"
)

// fakeATEM is a minimal scripted switcher: it answers the hello handshake
// and then sends whatever state packets the test queues up.
type fakeATEM struct {
	t        *testing.T
	conn     *net.UDPConn
	peer     *net.UDPAddr
	session  uint16
	packetID uint16
}

func newFakeATEM(t *testing.T) *fakeATEM {
	t.Helper()
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &fakeATEM{t: t, conn: conn, session: 0x1234}
}

func (f *fakeATEM) addr() string { return f.conn.LocalAddr().String() }

func header(flags byte, length int, session, packetID uint16) []byte {
	h := make([]byte, 12)
	binary.BigEndian.PutUint16(h[0:2], uint16(flags)<<11|uint16(length))
	binary.BigEndian.PutUint16(h[2:4], session)
	binary.BigEndian.PutUint16(h[10:12], packetID)
	return h
}

func command(name string, data []byte) []byte {
	block := make([]byte, 8+len(data))
	binary.BigEndian.PutUint16(block[0:2], uint16(len(block)))
	copy(block[4:8], name)
	copy(block[8:], data)
	return block
}

func prgI(source uint16) []byte {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[2:4], source)
	return command("PrgI", data)
}

func inPr(id uint16, longName string) []byte {
	data := make([]byte, 36)
	binary.BigEndian.PutUint16(data[0:2], id)
	copy(data[2:22], longName)
	return command("InPr", data)
}

// serveHandshake consumes the client hello, replies, and eats the ack.
func (f *fakeATEM) serveHandshake() {
	f.t.Helper()
	buf := make([]byte, 2048)
	f.conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	n, peer, err := f.conn.ReadFromUDP(buf)
	if err != nil {
		f.t.Errorf("fake atem: reading hello: %v", err)
		return
	}
	if n < 12 || buf[0]>>3&flagHello == 0 {
		f.t.Errorf("fake atem: first packet is not a hello (% x)", buf[:n])
		return
	}
	f.peer = peer

	reply := append(header(flagHello, 20, f.session, 0), make([]byte, 8)...)
	f.conn.WriteToUDP(reply, peer)

	// Client ack for the hello.
	f.conn.ReadFromUDP(buf)
}

// sendState pushes one reliable packet with the given command blocks and
// waits for the client's ack.
func (f *fakeATEM) sendState(blocks ...[]byte) {
	f.t.Helper()
	f.packetID++
	var body []byte
	for _, b := range blocks {
		body = append(body, b...)
	}
	pkt := append(header(flagAckRequest, 12+len(body), f.session, f.packetID), body...)
	f.conn.WriteToUDP(pkt, f.peer)

	buf := make([]byte, 256)
	f.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := f.conn.ReadFromUDP(buf)
	if err != nil {
		f.t.Errorf("fake atem: no ack for packet %d: %v", f.packetID, err)
		return
	}
	if n < 12 || buf[0]>>3&flagAckReply == 0 {
		f.t.Errorf("fake atem: expected ack, got % x", buf[:n])
		return
	}
	if got := binary.BigEndian.Uint16(buf[4:6]); got != f.packetID {
		f.t.Errorf("fake atem: ack id = %d, want %d", got, f.packetID)
	}
}

func TestDial_HandshakeAndStateDump(t *testing.T) {
	f := newFakeATEM(t)
	handshakeDone := make(chan struct{})
	go func() {
		f.serveHandshake()
		f.sendState(
			inPr(1, "Camera 1"),
			inPr(2, "Camera 2"),
			inPr(1000, "Color Bars"),
			prgI(2),
			command("InCm", []byte{1, 0, 0, 0}),
		)
		close(handshakeDone)
	}()

	c, err := Dial(f.addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	<-handshakeDone

	in, err := c.ProgramInput()
	if err != nil {
		t.Fatalf("ProgramInput: %v", err)
	}
	if in.ID != 2 || in.String() != "Camera 2" {
		t.Errorf("program input = %+v", in)
	}

	inputs := c.Inputs()
	if len(inputs) != 2 {
		t.Fatalf("Inputs() = %+v, want the two external inputs", inputs)
	}
	if inputs[0].ID != 1 || inputs[1].ID != 2 {
		t.Errorf("inputs out of order: %+v", inputs)
	}
}

func TestDial_ProgramChangeUpdatesState(t *testing.T) {
	f := newFakeATEM(t)
	handshakeDone := make(chan struct{})
	go func() {
		f.serveHandshake()
		f.sendState(prgI(1), command("InCm", []byte{1, 0, 0, 0}))
		close(handshakeDone)
	}()

	c, err := Dial(f.addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	<-handshakeDone

	f.sendState(prgI(3))

	deadline := time.Now().Add(2 * time.Second)
	for {
		in, err := c.ProgramInput()
		if err == nil && in.ID == 3 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("program input never became 3: %+v (err %v)", in, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDial_Unreachable(t *testing.T) {
	// No server behind this port: the handshake read deadline fires.
	if _, err := Dial("127.0.0.1:1"); err == nil {
		t.Fatal("expected an error dialing a dead port")
	}
}

func TestScript_AdvanceWalksInputs(t *testing.T) {
	s := NewScript(DemoInputs(), 0)
	first, _ := s.ProgramInput()
	if first.Name != "Camera 1" {
		t.Errorf("first input = %v", first)
	}
	s.Advance()
	second, _ := s.ProgramInput()
	if second.Name != "Camera 2" {
		t.Errorf("second input = %v", second)
	}
	for i := 0; i < 3; i++ {
		s.Advance()
	}
	wrapped, _ := s.ProgramInput()
	if wrapped.Name != "Camera 1" {
		t.Errorf("wrapped input = %v", wrapped)
	}
}
