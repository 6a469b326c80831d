package pusher

import "sync/atomic"

// Executor is the host-supplied sink that runs submitted work items
// serially, on a thread of the host's choosing. Every listener callback and
// every state-machine transition in this package is dispatched through one.
type Executor interface {
	// Submit enqueues fn to run after every work item submitted before it.
	// Whether Submit returns before fn has run is up to the implementation:
	// the goroutine-backed executor returns without waiting for fn (it waits
	// only while its queue is full), the inline executor runs fn before
	// returning.
	Submit(fn func())

	// SubmitAndWait enqueues fn and blocks the caller until it has run,
	// returning its error. Implementations own the policy for a fn that
	// itself calls SubmitAndWait again while already running (e.g. a
	// listener callback calling back into a blocking Client method): an
	// implementation backed by a single dedicated goroutine cannot let
	// that block, since nothing would ever be left to drain the new
	// submission.
	SubmitAndWait(fn func() error) error
}

// ExecutorFactory produces a new Executor for a facade instance.
type ExecutorFactory func() Executor

// goroutineExecutor is the production Executor: a single worker goroutine
// draining a buffered queue, so everything submitted to it runs serially and
// in submission order.
type goroutineExecutor struct {
	work chan func()
	done chan struct{}
	// busy is set for the duration of the worker goroutine running a
	// submitted fn. SubmitAndWait consults it to avoid blocking the
	// worker on itself; see SubmitAndWait's doc comment.
	busy atomic.Bool
}

// NewGoroutineExecutor starts a single worker goroutine and returns an
// Executor backed by it. Callers that want the executor to stop with the
// facade should not reuse it across facade instances.
func NewGoroutineExecutor() Executor {
	e := &goroutineExecutor{
		work: make(chan func(), 256),
		done: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *goroutineExecutor) run() {
	for {
		select {
		case fn := <-e.work:
			e.busy.Store(true)
			fn()
			e.busy.Store(false)
		case <-e.done:
			return
		}
	}
}

func (e *goroutineExecutor) Submit(fn func()) {
	select {
	case e.work <- fn:
	case <-e.done:
	}
}

// SubmitAndWait blocks the caller until fn has run on the worker goroutine.
// If fn (or anything it calls synchronously, such as a listener callback)
// calls back into SubmitAndWait while the worker is already running a
// submission, blocking again would deadlock permanently: the worker
// goroutine can't return to drain the new item while it is itself waiting
// on that item to complete. busy catches that case and returns a StateError
// instead of blocking. A concurrent, unrelated caller can in rare cases
// observe busy while the worker is mid-submission for unrelated reasons and
// get the same error; that is a deliberate trade-off against ever hanging
// forever or running fn unsynchronized on two goroutines at once.
func (e *goroutineExecutor) SubmitAndWait(fn func() error) error {
	if e.busy.Load() {
		return stateErr("cannot call a blocking Client method synchronously from within a listener callback")
	}
	done := make(chan error, 1)
	e.Submit(func() { done <- fn() })
	return <-done
}

func (e *goroutineExecutor) stop() {
	close(e.done)
}

// inlineExecutor runs submitted work synchronously on the calling
// goroutine. It exists as a test seam: with no dedicated worker goroutine
// to block, reentrant calls just recurse normally and nothing can deadlock.
type inlineExecutor struct{}

// NewInlineExecutor returns an Executor that runs every submission
// immediately and synchronously.
func NewInlineExecutor() Executor {
	return inlineExecutor{}
}

func (inlineExecutor) Submit(fn func()) { fn() }

func (inlineExecutor) SubmitAndWait(fn func() error) error { return fn() }
