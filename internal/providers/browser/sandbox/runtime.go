package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ReaderBridge/internal/domain/command"
)

// Runtime hosts one bootstrap document in a goja VM. It implements the
// command channel a reading session attaches to.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex
	bridge Bridge
	logger *zap.Logger
	dom    *DOM
	loaded bool
	closed bool

	console   []LogEntry
	consoleMu sync.Mutex

	outMu      sync.Mutex
	outbox     [][]byte
	delivering bool
}

// Option customizes a Runtime
type Option func(*Runtime)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// New creates a sandboxed runtime posting page messages to bridge
func New(config Config, bridge Bridge, options ...Option) (*Runtime, error) {
	r := &Runtime{
		vm:      goja.New(),
		config:  config,
		bridge:  bridge,
		logger:  zap.NewNop(),
		console: []LogEntry{},
	}
	for _, o := range options {
		o(r)
	}

	if config.MaxCallStackSize > 0 {
		r.vm.SetMaxCallStackSize(config.MaxCallStackSize)
	}
	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load parses a bootstrap document and runs its scripts in document order.
// External scripts are fetched through resolver. An uncaught exception in
// one script is reported to window.onerror and loading continues.
func (r *Runtime) Load(ctx context.Context, document []byte, resolver ScriptResolver) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}

	node, label, err := parseDocument(document)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.dom = NewDOM(goquery.NewDocumentFromNode(node))
	r.injectDOM()
	r.logger.Debug("Loading document", zap.String("charset", label))

	for _, script := range pageScripts(node) {
		source := script.Text
		if script.Src != "" {
			if resolver == nil {
				r.mu.Unlock()
				return fmt.Errorf("load %s: no script resolver", script.Src)
			}
			if source, err = resolver.Resolve(ctx, script.Src); err != nil {
				r.mu.Unlock()
				return fmt.Errorf("load %s: %w", script.Src, err)
			}
		}

		if _, err := r.run(ctx, script.Name, source); err != nil && isFatal(err) {
			r.mu.Unlock()
			return err
		}
	}
	r.loaded = true
	r.mu.Unlock()

	r.flush(ctx)
	return nil
}

// Inject runs a host command in the loaded document. Exceptions the command
// does not catch reach window.onerror; only timeouts and cancellation are
// returned as errors.
func (r *Runtime) Inject(ctx context.Context, script command.Script) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if !r.loaded {
		r.mu.Unlock()
		return ErrNotLoaded
	}

	_, err := r.run(ctx, "inject:"+string(script.Intent), script.Source)
	r.mu.Unlock()

	r.flush(ctx)
	if err != nil && isFatal(err) {
		return err
	}
	return nil
}

// Execute evaluates a script and returns its value. Tests use it to inspect
// page state.
func (r *Runtime) Execute(ctx context.Context, script string) (*Result, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}

	start := time.Now()
	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()

	val, err := r.run(ctx, "execute", script)
	result := &Result{Duration: time.Since(start), Error: err}
	if err == nil {
		result.Value = exportValue(val)
	}
	result.Console = r.Console()
	r.mu.Unlock()

	r.flush(ctx)
	return result, err
}

// DOM returns the proxy of the loaded document
func (r *Runtime) DOM() *DOM {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dom
}

// Console returns captured console output
func (r *Runtime) Console() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	return append([]LogEntry{}, r.console...)
}

// Close releases the VM. Pending messages are discarded.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.vm = nil
	r.dom = nil

	r.outMu.Lock()
	r.outbox = nil
	r.outMu.Unlock()
	return nil
}

// run compiles and executes one script. Callers hold r.mu.
func (r *Runtime) run(ctx context.Context, name, source string) (goja.Value, error) {
	prg, err := goja.Compile(name, source, false)
	if err != nil {
		r.reportUncaught(name, err)
		return nil, err
	}

	stop := r.watch(ctx)
	val, err := r.vm.RunProgram(prg)
	stop()

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause, ok := interrupted.Value().(error); ok {
				return nil, cause
			}
			return nil, ErrTimeout
		}
		r.reportUncaught(name, err)
		return nil, err
	}
	return val, nil
}

// watch interrupts the VM on timeout or cancellation until the returned
// function is called
func (r *Runtime) watch(ctx context.Context) func() {
	var timeout <-chan time.Time
	var timer *time.Timer
	if r.config.Timeout > 0 {
		timer = time.NewTimer(r.config.Timeout)
		timeout = timer.C
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	vm := r.vm
	go func() {
		defer close(exited)
		select {
		case <-timeout:
			vm.Interrupt(ErrTimeout)
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	return func() {
		close(done)
		<-exited
		if timer != nil {
			timer.Stop()
		}
		vm.ClearInterrupt()
	}
}

var positionPattern = regexp.MustCompile(`(\d+):(\d+)`)

// reportUncaught hands an uncaught exception to window.onerror the way a
// browser does: message, source, line, column
func (r *Runtime) reportUncaught(name string, err error) {
	message, line, col := describeException(err)

	handler, ok := goja.AssertFunction(r.vm.Get("onerror"))
	if !ok {
		r.logger.Warn("Uncaught page error",
			zap.String("script", name),
			zap.String("message", message))
		return
	}

	args := []goja.Value{
		r.vm.ToValue(message),
		r.vm.ToValue(name),
		r.vm.ToValue(line),
		r.vm.ToValue(col),
	}
	if _, cbErr := handler(goja.Undefined(), args...); cbErr != nil {
		r.logger.Warn("window.onerror failed", zap.String("script", name), zap.Error(cbErr))
	}
}

func describeException(err error) (message string, line, col int) {
	message = err.Error()
	var ex *goja.Exception
	if errors.As(err, &ex) {
		message = ex.Value().String()
		if obj, ok := ex.Value().(*goja.Object); ok {
			if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
				message = m.String()
			}
		}
	}

	text := err.Error()
	if i := strings.LastIndex(text, " at "); i >= 0 {
		text = text[i:]
	}
	if m := positionPattern.FindStringSubmatch(text); m != nil {
		line, _ = strconv.Atoi(m[1])
		col, _ = strconv.Atoi(m[2])
	}
	return message, line, col
}

// isFatal reports errors that stop the runtime rather than the page
func isFatal(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// flush delivers queued page messages in posting order. Deliveries may
// inject scripts that queue more messages; the outermost flush drains them.
func (r *Runtime) flush(ctx context.Context) {
	r.outMu.Lock()
	if r.delivering {
		r.outMu.Unlock()
		return
	}
	r.delivering = true
	for len(r.outbox) > 0 {
		msg := r.outbox[0]
		r.outbox = r.outbox[1:]
		r.outMu.Unlock()

		if r.bridge != nil {
			if err := r.bridge.Deliver(ctx, msg); err != nil {
				r.logger.Warn("Bridge delivery failed", zap.Error(err))
			}
		}

		r.outMu.Lock()
	}
	r.delivering = false
	r.outMu.Unlock()
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	vm := r.vm

	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	window := vm.GlobalObject()
	if err := vm.Set("window", window); err != nil {
		return err
	}
	if err := vm.Set("self", window); err != nil {
		return err
	}

	host := vm.NewObject()
	if err := host.Set("postMessage", r.postMessage); err != nil {
		return err
	}
	if err := vm.Set("ReaderHost", host); err != nil {
		return err
	}

	if r.config.EnableConsole {
		console := vm.NewObject()
		for _, level := range []string{"log", "warn", "error", "info", "debug"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := vm.Set("console", console); err != nil {
			return err
		}
	}

	// Timers never fire; page scripts are promise driven
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		if err := vm.Set(name, noop); err != nil {
			return err
		}
	}

	vm.SetPromiseRejectionTracker(func(p *goja.Promise, op goja.PromiseRejectionOperation) {
		if op != goja.PromiseRejectionReject {
			return
		}
		reason := "undefined"
		if res := p.Result(); res != nil {
			reason = res.String()
		}
		r.logger.Debug("Unhandled promise rejection", zap.String("reason", reason))
	})
	return nil
}

// postMessage queues a page message for the bridge
func (r *Runtime) postMessage(call goja.FunctionCall) goja.Value {
	arg := call.Argument(0)

	var data []byte
	if s, ok := arg.Export().(string); ok {
		data = []byte(s)
	} else {
		encoded, err := sonic.Marshal(arg.Export())
		if err != nil {
			panic(r.vm.NewTypeError("postMessage: %v", err))
		}
		data = encoded
	}

	r.outMu.Lock()
	r.outbox = append(r.outbox, data)
	r.outMu.Unlock()
	return goja.Undefined()
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		if max := r.config.MaxConsole; max > 0 && len(r.console) > max {
			r.console = r.console[len(r.console)-max:]
		}
		r.consoleMu.Unlock()

		return goja.Undefined()
	}
}

// injectDOM installs the document proxy
func (r *Runtime) injectDOM() {
	document := r.vm.NewObject()
	_ = document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if el := r.dom.ByID(call.Argument(0).String()); el != nil {
			return r.vm.ToValue(r.createElementProxy(el))
		}
		return goja.Null()
	})
	_ = document.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		if found := r.dom.Query(call.Argument(0).String()); len(found) > 0 {
			return r.vm.ToValue(r.createElementProxy(found[0]))
		}
		return goja.Null()
	})
	_ = document.Set("querySelectorAll", r.queryAll(func(arg string) string { return arg }))
	_ = document.Set("getElementsByTagName", r.queryAll(func(arg string) string { return arg }))
	_ = document.Set("getElementsByClassName", r.queryAll(func(arg string) string {
		return "." + strings.Join(strings.Fields(arg), ".")
	}))
	_ = r.vm.Set("document", document)
}

func (r *Runtime) queryAll(selector func(string) string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		found := r.dom.Query(selector(call.Argument(0).String()))
		proxies := make([]interface{}, len(found))
		for i, el := range found {
			proxies[i] = r.createElementProxy(el)
		}
		return r.vm.ToValue(proxies)
	}
}

// createElementProxy creates a proxy for a DOM element
func (r *Runtime) createElementProxy(elem *Element) map[string]interface{} {
	return map[string]interface{}{
		"tagName":     elem.TagName,
		"id":          elem.ID,
		"className":   elem.ClassName,
		"textContent": elem.TextContent,
		"getAttribute": func(name string) string {
			return elem.GetAttribute(name)
		},
		"setAttribute": func(name, value string) {
			elem.SetAttribute(name, value)
		},
	}
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}
