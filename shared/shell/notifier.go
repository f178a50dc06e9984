package shell

import (
	"sync"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	defaultNotifierWorkers   = 4
	defaultNotifierQueueSize = 100

	// LogMsgNotificationDispatched is logged when a notification reaches the gateway.
	LogMsgNotificationDispatched = "notification dispatched"

	// LogMsgNotificationDropped is logged when the queue is full and a notification is discarded.
	LogMsgNotificationDropped = "notification queue full, dropping notification"

	// LogMsgNotificationDeliveryFailed is logged when the gateway reports a delivery error.
	LogMsgNotificationDeliveryFailed = "notification delivery failed"
)

// Notifier dispatches notification requests after a command has committed.
// Dispatch must never block and must never influence the command outcome.
type Notifier interface {
	Dispatch(requests ...circulation.NotificationRequest)
}

// NotificationGateway delivers a single notification to the outside world,
// for example an e-mail or SMS provider.
type NotificationGateway interface {
	Deliver(request circulation.NotificationRequest) error
}

// AsyncNotifier fans notification requests out to a worker pool over a bounded
// queue. Enqueueing is non-blocking: when the queue is full the request is
// dropped and counted, never stalling the circulation desk.
type AsyncNotifier struct {
	gateway NotificationGateway
	queue   chan circulation.NotificationRequest
	wg      sync.WaitGroup
	logger  Logger
	metrics MetricsCollector

	closeOnce sync.Once
}

// NotifierOption configures an AsyncNotifier.
type NotifierOption func(*notifierConfig)

type notifierConfig struct {
	workers   int
	queueSize int
	logger    Logger
	metrics   MetricsCollector
}

// WithNotifierWorkers sets the number of delivery workers.
func WithNotifierWorkers(workers int) NotifierOption {
	return func(c *notifierConfig) {
		if workers > 0 {
			c.workers = workers
		}
	}
}

// WithNotifierQueueSize sets the capacity of the dispatch queue.
func WithNotifierQueueSize(size int) NotifierOption {
	return func(c *notifierConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithNotifierLogger sets the logger used for dispatch and delivery events.
func WithNotifierLogger(logger Logger) NotifierOption {
	return func(c *notifierConfig) {
		c.logger = logger
	}
}

// WithNotifierMetrics sets the metrics collector for dispatch instrumentation.
func WithNotifierMetrics(collector MetricsCollector) NotifierOption {
	return func(c *notifierConfig) {
		c.metrics = collector
	}
}

// NewAsyncNotifier creates an AsyncNotifier and starts its worker pool.
// Call Shutdown to drain the queue and stop the workers.
func NewAsyncNotifier(gateway NotificationGateway, options ...NotifierOption) *AsyncNotifier {
	config := &notifierConfig{
		workers:   defaultNotifierWorkers,
		queueSize: defaultNotifierQueueSize,
	}

	for _, option := range options {
		option(config)
	}

	notifier := &AsyncNotifier{
		gateway: gateway,
		queue:   make(chan circulation.NotificationRequest, config.queueSize),
		logger:  config.logger,
		metrics: config.metrics,
	}

	for i := 0; i < config.workers; i++ {
		notifier.wg.Add(1)
		go notifier.deliveryWorker()
	}

	return notifier
}

// Dispatch implements Notifier. Requests that do not fit into the queue are
// dropped and logged, so a slow gateway can never block a command handler.
func (n *AsyncNotifier) Dispatch(requests ...circulation.NotificationRequest) {
	for _, request := range requests {
		select {
		case n.queue <- request:
			if n.metrics != nil {
				n.metrics.IncrementCounter(NotifierDispatchedMetric, map[string]string{
					LogAttrNotificationType: string(request.Type),
				})
			}
		default:
			if n.logger != nil {
				n.logger.Warn(LogMsgNotificationDropped,
					LogAttrNotificationType, string(request.Type),
					LogAttrBorrowerID, string(request.BorrowerID))
			}

			if n.metrics != nil {
				n.metrics.IncrementCounter(NotifierDroppedMetric, map[string]string{
					LogAttrNotificationType: string(request.Type),
				})
			}
		}
	}
}

// Shutdown closes the queue, waits for the workers to drain it, and returns.
// Dispatch must not be called after Shutdown.
func (n *AsyncNotifier) Shutdown() {
	n.closeOnce.Do(func() {
		close(n.queue)
	})

	n.wg.Wait()
}

func (n *AsyncNotifier) deliveryWorker() {
	defer n.wg.Done()

	for request := range n.queue {
		if err := n.gateway.Deliver(request); err != nil {
			if n.logger != nil {
				n.logger.Error(LogMsgNotificationDeliveryFailed,
					LogAttrNotificationType, string(request.Type),
					LogAttrBorrowerID, string(request.BorrowerID),
					LogAttrError, err.Error())
			}

			continue
		}

		if n.logger != nil {
			n.logger.Debug(LogMsgNotificationDispatched,
				LogAttrNotificationType, string(request.Type),
				LogAttrBorrowerID, string(request.BorrowerID))
		}
	}
}

// NopNotifier discards every request. Useful in tests and tools that do not
// deliver notifications.
type NopNotifier struct{}

// Dispatch implements Notifier.
func (NopNotifier) Dispatch(...circulation.NotificationRequest) {}
