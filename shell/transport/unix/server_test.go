package unix

import (
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/fKV/lib/appstate"
	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/flash/memflash"
	"github.com/ValentinKolb/fKV/lib/flash/region"
	"github.com/ValentinKolb/fKV/lib/storage"
	"github.com/ValentinKolb/fKV/shell"
	"github.com/ValentinKolb/fKV/shell/common"
)

// TestUnixShellServer runs the full stack over a Unix socket: listener,
// session handler, storage and mirror.
func TestUnixShellServer(t *testing.T) {
	dev := memflash.New(flash.Geometry{PageSize: 512, WriteAlign: 4, Size: 4096})
	store, err := storage.NewEngine(dev, region.Placement{Start: 0, End: 4096, BaseOffset: 0, PageCount: 8})
	if err != nil {
		t.Fatalf("engine init failed: %v", err)
	}
	mirror := appstate.NewMirror(appstate.State{Counter: 5, Mode: 1})

	socketPath := filepath.Join(t.TempDir(), "fkv.sock")
	srv := NewUnixServerTransport()
	srv.RegisterHandler(func(conn net.Conn) {
		_ = shell.NewSession(conn, store, mirror).Run()
	})

	go func() {
		_ = srv.Listen(common.Config{Transport: "unix", Endpoint: socketPath, LogLevel: "info"})
	}()

	// the listener comes up asynchronously
	var conn net.Conn
	for i := 0; i < 100; i++ {
		conn, err = net.Dial("unix", socketPath)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to dial shell server: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := conn.Write([]byte("get\rset 42\r")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// read until both responses arrived
	var sb strings.Builder
	buf := make([]byte, 256)
	for !strings.Contains(sb.String(), "Counter set to 42\r\n> ") {
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("read failed after %q: %v", sb.String(), err)
		}
		sb.Write(buf[:n])
	}

	out := sb.String()
	if !strings.Contains(out, "===== fKV device console =====") {
		t.Error("expected welcome banner")
	}
	if !strings.Contains(out, "Counter: 5, Mode: 1\r\n> ") {
		t.Errorf("expected state report, got %q", out)
	}

	if got, loaded, err := store.GetCounter(); err != nil || !loaded || got != 42 {
		t.Errorf("expected counter 42 in flash, got %d (loaded=%t err=%v)", got, loaded, err)
	}
}
