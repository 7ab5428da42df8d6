package messaging

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Dispatcher constants.
const (
	// defaultWorkers is the worker count when the config leaves it unset.
	defaultWorkers = 5

	// handlerTimeout bounds a single handler invocation.
	handlerTimeout = 30 * time.Second
)

// message is one queued frame awaiting processing.
type message struct {
	deviceID    string
	messageType string
	payload     []byte
}

// worker holds one shard's FIFO backlog. The queue is unbounded so
// Submit never blocks the MQTT receive path; wake has capacity 1 and
// coalesces notifications.
type worker struct {
	mu    sync.Mutex
	queue []message
	wake  chan struct{}
}

// Dispatcher fans inbound frames out to a fixed pool of workers.
//
// Frames are routed to workers by hashing the device ID, so all frames
// from one device are processed by the same worker in arrival order.
// Frames from different devices may be processed concurrently and in
// any relative order.
//
// Thread Safety: Submit and Close are safe for concurrent use.
type Dispatcher struct {
	workers   []*worker
	registry  *Registry
	warnDepth int

	ctx       context.Context
	ctxCancel context.CancelFunc
	wg        sync.WaitGroup

	closeMu   sync.Mutex
	closed    bool
	closeOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger is the optional structured logger used by the dispatcher and
// bridge. Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DispatcherOptions holds configuration for creating a dispatcher.
type DispatcherOptions struct {
	// Workers is the number of worker goroutines. Values below 1 use
	// the default.
	Workers int

	// WarnDepth logs a warning when a worker backlog exceeds this many
	// frames. 0 disables the warning.
	WarnDepth int

	// Registry resolves message types to handlers. Required.
	Registry *Registry

	// Logger is optional.
	Logger Logger
}

// NewDispatcher creates a dispatcher and starts its workers.
// Call Close to stop them.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	n := opts.Workers
	if n < 1 {
		n = defaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		workers:   make([]*worker, n),
		registry:  opts.Registry,
		warnDepth: opts.WarnDepth,
		ctx:       ctx,
		ctxCancel: cancel,
		logger:    opts.Logger,
	}

	for i := range d.workers {
		d.workers[i] = &worker{wake: make(chan struct{}, 1)}
		d.wg.Add(1)
		go d.run(d.workers[i])
	}

	return d
}

// Submit queues a frame for processing. It never blocks: the frame is
// appended to its device's shard and a worker picks it up.
//
// Frames submitted after Close are dropped.
func (d *Dispatcher) Submit(deviceID, messageType string, payload []byte) {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return
	}
	d.closeMu.Unlock()

	// The MQTT client may reuse the payload buffer after the callback
	// returns, so keep our own copy.
	body := make([]byte, len(payload))
	copy(body, payload)

	w := d.workers[d.shard(deviceID)]

	w.mu.Lock()
	w.queue = append(w.queue, message{deviceID: deviceID, messageType: messageType, payload: body})
	depth := len(w.queue)
	w.mu.Unlock()

	if d.warnDepth > 0 && depth > d.warnDepth {
		d.logWarn("worker backlog growing", "device_id", deviceID, "depth", depth)
	}

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting frames, processes everything already queued,
// and waits for the workers to exit.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.closeMu.Lock()
		d.closed = true
		d.closeMu.Unlock()

		d.ctxCancel()
		d.wg.Wait()
	})
}

// shard maps a device ID to a worker index. FNV-1a keeps the mapping
// stable across restarts without any coordination.
func (d *Dispatcher) shard(deviceID string) int {
	h := fnv.New32a()
	h.Write([]byte(deviceID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

// run is a worker's main loop.
func (d *Dispatcher) run(w *worker) {
	defer d.wg.Done()

	for {
		msg, ok := d.pop(w)
		if ok {
			d.process(msg)
			continue
		}

		select {
		case <-w.wake:
		case <-d.ctx.Done():
			// Drain anything that raced in before Close flipped closed.
			for {
				msg, ok := d.pop(w)
				if !ok {
					return
				}
				d.process(msg)
			}
		}
	}
}

// pop removes the oldest queued frame, if any.
func (d *Dispatcher) pop(w *worker) (message, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return message{}, false
	}

	msg := w.queue[0]
	w.queue = w.queue[1:]
	return msg, true
}

// process runs one frame through its handler with panic containment.
// A handler failure affects only its own frame.
func (d *Dispatcher) process(msg message) {
	defer func() {
		if r := recover(); r != nil {
			d.logError("handler panic recovered",
				"device_id", msg.deviceID,
				"message_type", msg.messageType,
				"panic", r)
		}
	}()

	handler := d.registry.Get(msg.messageType)
	if handler == nil {
		d.logDebug("no handler for message type",
			"device_id", msg.deviceID,
			"message_type", msg.messageType)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := handler.Handle(ctx, msg.deviceID, msg.payload); err != nil {
		d.logWarn("handler rejected frame",
			"device_id", msg.deviceID,
			"message_type", msg.messageType,
			"error", err.Error())
	}
}

// SetLogger sets the dispatcher's logger.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.loggerMu.Lock()
	d.logger = logger
	d.loggerMu.Unlock()
}

func (d *Dispatcher) getLogger() Logger {
	d.loggerMu.RLock()
	defer d.loggerMu.RUnlock()
	return d.logger
}

func (d *Dispatcher) logDebug(msg string, args ...any) {
	if l := d.getLogger(); l != nil {
		l.Debug(msg, args...)
	}
}

func (d *Dispatcher) logWarn(msg string, args ...any) {
	if l := d.getLogger(); l != nil {
		l.Warn(msg, args...)
	}
}

func (d *Dispatcher) logError(msg string, args ...any) {
	if l := d.getLogger(); l != nil {
		l.Error(msg, args...)
	}
}
