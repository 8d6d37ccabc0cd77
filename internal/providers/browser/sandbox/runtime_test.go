package sandbox

import (
	"context"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ReaderBridge/internal/domain/command"
)

// recordingBridge collects delivered messages
type recordingBridge struct {
	mu        sync.Mutex
	messages  []string
	onDeliver func(msg string)
}

func (b *recordingBridge) Deliver(_ context.Context, message []byte) error {
	b.mu.Lock()
	b.messages = append(b.messages, string(message))
	hook := b.onDeliver
	b.mu.Unlock()
	if hook != nil {
		hook(string(message))
	}
	return nil
}

func (b *recordingBridge) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.messages...)
}

func newRuntime(t *testing.T, config Config, bridge Bridge) *Runtime {
	t.Helper()
	rt, err := New(config, bridge)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestRuntimeExecution(t *testing.T) {
	rt := newRuntime(t, DefaultConfig(), nil)

	tests := []struct {
		name   string
		script string
		want   interface{}
	}{
		{"simple return", "42", 42},
		{"math operations", "Math.sqrt(16)", 4},
		{"string operations", "'hello'.toUpperCase()", "HELLO"},
		{"undefined is nil", "undefined", nil},
		{"promise jobs drain", "var out = 0; Promise.resolve(5).then(function (v) { out = v; }); 1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := rt.Execute(context.Background(), tt.script)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, result.Value)
				return
			}
			assert.EqualValues(t, tt.want, result.Value)
		})
	}

	result, err := rt.Execute(context.Background(), "out")
	require.NoError(t, err)
	assert.EqualValues(t, 5, result.Value)
}

func TestRuntimeSecurity(t *testing.T) {
	rt := newRuntime(t, DefaultConfig(), nil)

	for _, name := range []string{"require", "process", "module", "exports"} {
		t.Run(name, func(t *testing.T) {
			result, err := rt.Execute(context.Background(), "typeof "+name)
			require.NoError(t, err)
			assert.Equal(t, "undefined", result.Value)
		})
	}

	result, err := rt.Execute(context.Background(), "window === self && window.ReaderHost !== undefined")
	require.NoError(t, err)
	assert.Equal(t, true, result.Value)
}

func TestRuntimeTimeout(t *testing.T) {
	config := DefaultConfig()
	config.Timeout = 100 * time.Millisecond
	rt := newRuntime(t, config, nil)

	start := time.Now()
	_, err := rt.Execute(context.Background(), "while(true) {}")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	// the runtime stays usable after an interrupt
	result, err := rt.Execute(context.Background(), "1 + 1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Value)
}

func TestRuntimeCancellation(t *testing.T) {
	config := DefaultConfig()
	config.Timeout = 0
	rt := newRuntime(t, config, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rt.Execute(ctx, "while(true) {}")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRuntimeConsole(t *testing.T) {
	config := DefaultConfig()
	config.MaxConsole = 2
	rt := newRuntime(t, config, nil)

	result, err := rt.Execute(context.Background(), "console.log('hello', 'world'); console.warn('careful'); 'test'")
	require.NoError(t, err)
	require.Len(t, result.Console, 2)
	assert.Equal(t, "log", result.Console[0].Level)
	assert.Equal(t, "hello world", result.Console[0].Message)
	assert.Equal(t, "warn", result.Console[1].Level)

	result, err = rt.Execute(context.Background(), "console.log('a'); console.log('b'); console.error('c')")
	require.NoError(t, err)
	require.Len(t, result.Console, 2)
	assert.Equal(t, "b", result.Console[0].Message)
	assert.Equal(t, "c", result.Console[1].Message)
}

func TestRuntimeLoadRunsScriptsInOrder(t *testing.T) {
	bridge := &recordingBridge{}
	rt := newRuntime(t, DefaultConfig(), bridge)

	assets := fstest.MapFS{
		"lib.js": &fstest.MapFile{Data: []byte("ReaderHost.postMessage('external'); window.lib = 7;")},
	}
	doc := `<!DOCTYPE html>
<html>
<head>
  <script src="/assets/lib.js?v=1"></script>
  <script type="application/json">{"ignored": true}</script>
</head>
<body>
  <div id="viewer" class="pane wide">Hi</div>
  <div class="pane">There</div>
  <script id="first">ReaderHost.postMessage('inline ' + window.lib);</script>
  <script>ReaderHost.postMessage({n: 2});</script>
</body>
</html>`

	require.NoError(t, rt.Load(context.Background(), []byte(doc), FSResolver{FS: assets}))
	assert.Equal(t, []string{"external", "inline 7", `{"n":2}`}, bridge.all())
}

func TestRuntimeLoadMissingScript(t *testing.T) {
	rt := newRuntime(t, DefaultConfig(), nil)

	doc := `<html><head><script src="missing.js"></script></head><body></body></html>`
	err := rt.Load(context.Background(), []byte(doc), FSResolver{FS: fstest.MapFS{}})
	assert.ErrorContains(t, err, "missing.js")

	err = rt.Load(context.Background(), []byte(doc), nil)
	assert.ErrorContains(t, err, "no script resolver")
}

func TestRuntimeDOM(t *testing.T) {
	rt := newRuntime(t, DefaultConfig(), nil)

	doc := `<html><body>
  <div id="viewer" class="pane wide" data-role="main">Hi</div>
  <div class="pane">There</div>
  <p>Text</p>
</body></html>`
	require.NoError(t, rt.Load(context.Background(), []byte(doc), nil))

	tests := []struct {
		script string
		want   interface{}
	}{
		{"document.getElementById('viewer').className", "pane wide"},
		{"document.getElementById('viewer').tagName", "DIV"},
		{"document.getElementById('viewer').textContent", "Hi"},
		{"document.getElementById('missing') === null", true},
		{"document.querySelector('p').textContent", "Text"},
		{"document.querySelectorAll('div').length", 2},
		{"document.getElementsByTagName('p').length", 1},
		{"document.getElementsByClassName('pane').length", 2},
		{"document.getElementsByClassName('pane wide').length", 1},
		{"document.getElementById('viewer').getAttribute('data-role')", "main"},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			result, err := rt.Execute(context.Background(), tt.script)
			require.NoError(t, err)
			assert.EqualValues(t, tt.want, result.Value)
		})
	}

	_, err := rt.Execute(context.Background(), "document.getElementById('viewer').setAttribute('data-role', 'aside')")
	require.NoError(t, err)

	el := rt.DOM().ByID("viewer")
	require.NotNil(t, el)
	assert.Equal(t, "aside", el.GetAttribute("data-role"))
	changes := rt.DOM().GetChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, "set_attribute", changes[0].Type)
}

func TestRuntimeUncaughtErrorsReachOnError(t *testing.T) {
	bridge := &recordingBridge{}
	rt := newRuntime(t, DefaultConfig(), bridge)

	doc := `<html><body>
<script id="handler">
window.onerror = function (message, source, line, col) {
  ReaderHost.postMessage(message + '|' + source + '|' + line + ':' + col);
};
</script>
<script id="broken">throw new Error('boom');</script>
<script id="after">ReaderHost.postMessage('after');</script>
</body></html>`

	require.NoError(t, rt.Load(context.Background(), []byte(doc), nil))

	got := bridge.all()
	require.Len(t, got, 2)
	assert.Regexp(t, `^boom\|inline:broken\|\d+:\d+$`, got[0])
	assert.Equal(t, "after", got[1])

	require.NoError(t, rt.Inject(context.Background(), command.Raw("null.x")))
	got = bridge.all()
	require.Len(t, got, 3)
	assert.Contains(t, got[2], "|inject:raw|")
}

func TestRuntimeInject(t *testing.T) {
	bridge := &recordingBridge{}
	rt := newRuntime(t, DefaultConfig(), bridge)

	err := rt.Inject(context.Background(), command.Raw("1"))
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, rt.Load(context.Background(), []byte(`<html><body></body></html>`), nil))

	injected := false
	bridge.onDeliver = func(msg string) {
		if msg == "ping" && !injected {
			injected = true
			require.NoError(t, rt.Inject(context.Background(), command.Raw("ReaderHost.postMessage('pong');")))
		}
	}

	require.NoError(t, rt.Inject(context.Background(), command.Raw("ReaderHost.postMessage('ping'); ReaderHost.postMessage('tail');")))
	assert.Equal(t, []string{"ping", "tail", "pong"}, bridge.all())
}

func TestRuntimeInjectTimeout(t *testing.T) {
	config := DefaultConfig()
	config.Timeout = 50 * time.Millisecond
	rt := newRuntime(t, config, nil)
	require.NoError(t, rt.Load(context.Background(), []byte(`<html><body></body></html>`), nil))

	err := rt.Inject(context.Background(), command.Raw("for (;;) {}"))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRuntimeClose(t *testing.T) {
	rt, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	_, err = rt.Execute(context.Background(), "1")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, rt.Inject(context.Background(), command.Raw("1")), ErrClosed)
	assert.ErrorIs(t, rt.Load(context.Background(), []byte("<html></html>"), nil), ErrClosed)
}
