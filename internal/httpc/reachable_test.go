package httpc

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	ctx := context.Background()

	t.Run("listening host", func(t *testing.T) {
		if err := Reachable(ctx, "http://"+ln.Addr().String(), time.Second); err != nil {
			t.Errorf("Reachable() error = %v", err)
		}
	})

	t.Run("closed port", func(t *testing.T) {
		closed, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		addr := closed.Addr().String()
		closed.Close()

		if err := Reachable(ctx, "http://"+addr, 200*time.Millisecond); err == nil {
			t.Error("Reachable() expected error for closed port")
		}
	})

	t.Run("bad url", func(t *testing.T) {
		if err := Reachable(ctx, "://nope", time.Second); err == nil {
			t.Error("Reachable() expected error for bad url")
		}
	})
}
