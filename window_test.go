package jsonp

import (
	"errors"
	"testing"

	"github.com/dop251/goja"
	"github.com/google/go-cmp/cmp"
)

func TestWindow_RegisterAndExec(t *testing.T) {
	w := NewWindow(nil)

	var got any
	w.mu.Lock()
	err := w.register("handle", "req-1", func(payload goja.Value) { got = payload.Export() })
	w.mu.Unlock()
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := w.Exec("remote.js", `self.handle({a: [1, 2]})`); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": []any{int64(1), int64(2)}}, got); diff != "" {
		t.Errorf("Payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"handle"}, w.Callbacks()); diff != "" {
		t.Errorf("Callbacks mismatch (-want +got):\n%s", diff)
	}

	w.mu.Lock()
	w.unregister("handle", "req-1")
	w.mu.Unlock()

	if err := w.Exec("remote.js", `handle(1)`); err == nil {
		t.Error("Expected calling a removed callback to fail")
	}
	if len(w.Callbacks()) != 0 {
		t.Errorf("Expected no callbacks, got %v", w.Callbacks())
	}
}

func TestWindow_UnregisterChecksOwner(t *testing.T) {
	w := NewWindow(nil)
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.register("handle", "req-1", func(goja.Value) {}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	w.unregister("handle", "req-2")
	if !w.inUse("handle") {
		t.Error("Expected callback of another request to survive")
	}
}

func TestWindow_InUse(t *testing.T) {
	w := NewWindow(nil)
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, name := range []string{"window", "self", "JSON"} {
		if !w.inUse(name) {
			t.Errorf("Expected global %q to count as in use", name)
		}
	}
	if w.inUse("jsonp_abc") {
		t.Error("Expected unknown name to be free")
	}
}

func TestWindow_Scripts(t *testing.T) {
	w := NewWindow(nil)

	w.mu.Lock()
	first := w.appendScript("id-1", "http://a/x?callback=one")
	w.appendScript("id-2", "http://a/x?callback=two")
	w.mu.Unlock()

	if diff := cmp.Diff([]string{"http://a/x?callback=one", "http://a/x?callback=two"}, w.Scripts()); diff != "" {
		t.Errorf("Scripts mismatch (-want +got):\n%s", diff)
	}

	w.mu.Lock()
	w.removeScript(first)
	w.removeScript(first)
	w.mu.Unlock()

	if diff := cmp.Diff([]string{"http://a/x?callback=two"}, w.Scripts()); diff != "" {
		t.Errorf("Scripts mismatch (-want +got):\n%s", diff)
	}
}

func TestWindow_ExecStopsAlreadyAbortedScript(t *testing.T) {
	w := NewWindow(nil)
	stop := errors.New("stopped")

	w.mu.Lock()
	err := w.exec("req-1", "loop.js", "for (;;) {}", func() error { return stop })
	w.mu.Unlock()

	var interrupted *goja.InterruptedError
	if !errors.As(err, &interrupted) {
		t.Fatalf("Expected interrupted error, got %v", err)
	}
	if interrupted.Value() != stop {
		t.Errorf("Expected interrupt reason %v, got %v", stop, interrupted.Value())
	}

	// A later script is not affected by the earlier interrupt
	if err := w.Exec("check.js", "1 + 1"); err != nil {
		t.Errorf("Expected next script to run, got %v", err)
	}
}

func TestWindow_InterruptOnlyHitsOwner(t *testing.T) {
	w := NewWindow(nil)

	w.interrupt("req-2", errors.New("not mine"))
	w.mu.Lock()
	err := w.exec("req-1", "ok.js", "var done = true;", nil)
	w.mu.Unlock()
	if err != nil {
		t.Errorf("Expected script of another request to run, got %v", err)
	}
}
