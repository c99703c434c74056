package jsonp

import (
	"sort"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	blankDocument = "<!DOCTYPE html><html><head></head><body></body></html>"
	scriptIDAttr  = "data-jsonp-id"
)

// Window is the page a JSONP script runs in: a JavaScript runtime whose
// global object holds the callback registry, and a document whose head
// carries one script element per in-flight request.
//
// All access to the runtime and the document goes through mu, which
// plays the part of the browser's single event loop.
type Window struct {
	mu     sync.Mutex
	vm     *goja.Runtime
	doc    *html.Node
	head   *html.Node
	logger *zap.Logger

	// callbacks maps registered callback names to the owning request ID.
	callbacks map[string]string
	// runMu guards running, the request ID whose script is executing.
	runMu   sync.Mutex
	running string
}

// NewWindow creates an empty page with a fresh runtime.
func NewWindow(logger *zap.Logger) *Window {
	if logger == nil {
		logger = zap.NewNop()
	}

	doc, err := html.Parse(strings.NewReader(blankDocument))
	if err != nil {
		// blankDocument is constant; the parser accepts any input.
		panic(err)
	}

	w := &Window{
		vm:        goja.New(),
		doc:       doc,
		head:      htmlquery.FindOne(doc, "//head"),
		logger:    logger.Named("window"),
		callbacks: make(map[string]string),
	}

	// Scripts address callbacks as bare names, window.name or self.name.
	global := w.vm.GlobalObject()
	if err := global.Set("window", global); err != nil {
		w.logger.Error("Failed to set 'window' global", zap.Error(err))
	}
	if err := global.Set("self", global); err != nil {
		w.logger.Error("Failed to set 'self' global", zap.Error(err))
	}

	return w
}

// Callbacks returns the names currently registered, sorted.
func (w *Window) Callbacks() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.callbacks))
	for name := range w.callbacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scripts returns the src of every script element in the head, in
// document order.
func (w *Window) Scripts() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var srcs []string
	for _, n := range htmlquery.Find(w.head, "./script") {
		srcs = append(srcs, htmlquery.SelectAttr(n, "src"))
	}
	return srcs
}

// Exec runs body in the page as if it had been loaded from src.
func (w *Window) Exec(src, body string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exec("", src, body, nil)
}

// The methods below expect mu to be held.

func (w *Window) exec(id, src, body string, aborted func() error) error {
	w.setRunning(id, aborted)
	defer w.setRunning("", nil)

	_, err := w.vm.RunScript(src, body)
	return err
}

// setRunning marks id as the executing request. If aborted already
// reports a reason, the runtime is interrupted before the script starts:
// an interrupt that raced ahead of setRunning would otherwise be lost.
func (w *Window) setRunning(id string, aborted func() error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	w.running = id
	w.vm.ClearInterrupt()
	if aborted != nil {
		if reason := aborted(); reason != nil {
			w.vm.Interrupt(reason)
		}
	}
}

// interrupt stops the running script if it belongs to id. It is safe to
// call without holding mu.
func (w *Window) interrupt(id string, reason error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if id != "" && w.running == id {
		w.vm.Interrupt(reason)
	}
}

func (w *Window) inUse(name string) bool {
	if _, ok := w.callbacks[name]; ok {
		return true
	}
	v := w.vm.GlobalObject().Get(name)
	return v != nil && !goja.IsUndefined(v)
}

func (w *Window) register(name, id string, fn func(payload goja.Value)) error {
	handler := func(call goja.FunctionCall) goja.Value {
		fn(call.Argument(0))
		return goja.Undefined()
	}
	if err := w.vm.Set(name, handler); err != nil {
		return err
	}
	w.callbacks[name] = id
	return nil
}

func (w *Window) unregister(name, id string) {
	if owner, ok := w.callbacks[name]; !ok || owner != id {
		return
	}
	delete(w.callbacks, name)
	if err := w.vm.GlobalObject().Delete(name); err != nil {
		w.logger.Warn("Failed to delete callback", zap.String("callback", name), zap.Error(err))
	}
}

func (w *Window) appendScript(id, src string) *html.Node {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr: []html.Attribute{
			{Key: "src", Val: src},
			{Key: scriptIDAttr, Val: id},
		},
	}
	w.head.AppendChild(node)
	return node
}

func (w *Window) removeScript(node *html.Node) {
	if node != nil && node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
}
