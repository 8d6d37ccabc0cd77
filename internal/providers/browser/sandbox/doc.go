/*
Package sandbox runs bootstrap documents headlessly in a goja VM.

A Runtime parses the document, runs its scripts in order and exposes
window.ReaderHost.postMessage to a Go Bridge. Host commands are injected one
at a time with a timeout. Uncaught exceptions reach window.onerror the way a
browser reports them, so the page's own error handling runs.

Page messages are queued while a script runs and delivered after it returns,
in posting order. A bridge may therefore inject follow-up commands from its
delivery callback without deadlocking the runtime.

Sandboxed code has no require, process, module, network or timers; the
document object is a read-mostly proxy over the parsed page.

	rt, err := sandbox.New(sandbox.DefaultConfig(), bridge)
	if err != nil {
		return err
	}
	if err := rt.Load(ctx, doc.HTML, sandbox.FSResolver{FS: assets}); err != nil {
		return err
	}
	session.Attach(rt)
*/
package sandbox
