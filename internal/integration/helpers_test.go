package integration

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/swupdate-httpd/internal/config"
	"github.com/oshokin/swupdate-httpd/internal/service/server"
)

// reservePort returns a free loopback address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// startServer runs the update server over imagesDir on an ephemeral port.
// It returns the base URL; the server stops when the test ends.
func startServer(t *testing.T, imagesDir string, grpcHealthAddress string) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	var (
		ip     = "127.0.0.1"
		port   = 0
		addrCh = make(chan net.Addr, 1)
		errCh  = make(chan error, 1)
	)

	overrides := &config.Overrides{
		ImagesDirectory: &imagesDir,
		ListenIP:        &ip,
		ListenPort:      &port,
	}

	if grpcHealthAddress != "" {
		overrides.GRPCHealthAddress = &grpcHealthAddress
	}

	go func() {
		errCh <- server.Run(ctx, &server.Options{
			Overrides: overrides,
			Listening: func(addr net.Addr) { addrCh <- addr },
		})
	}()

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	select {
	case addr := <-addrCh:
		return "http://" + addr.String()
	case err := <-errCh:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	return ""
}
