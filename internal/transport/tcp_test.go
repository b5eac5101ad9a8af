package transport

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestDialTCPReadWriteRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	tr, err := DialTCP(context.Background(), ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	defer tr.Close()

	server := <-accepted
	defer server.Close()

	if _, err := server.Write([]byte("PWR0\r\n")); err != nil {
		t.Fatalf("server write: %v", err)
	}
	buf := make([]byte, 64)
	n, err := tr.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "PWR0\r\n" {
		t.Errorf("Read() = %q, want PWR0\\r\\n", buf[:n])
	}

	if _, err := tr.Write([]byte("?PWR\r\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	n, err = server.Read(buf)
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	if string(buf[:n]) != "?PWR\r\n" {
		t.Errorf("server read = %q, want ?PWR\\r\\n", buf[:n])
	}
}

func TestDialTCPSetKeepAliveDoesNotError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	tr, err := DialTCP(context.Background(), ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	defer tr.Close()

	if err := tr.SetKeepAlive(30*time.Second, 5*time.Second, 3); err != nil {
		t.Errorf("SetKeepAlive: %v", err)
	}
}

func TestDialTCPConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := DialTCP(context.Background(), addr, 500*time.Millisecond); err == nil {
		t.Fatal("expected an error dialing a closed port")
	}
}
