package jobs

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BrokerConfig sizes the worker pool.
type BrokerConfig struct {
	Workers   int
	QueueSize int
}

// Broker owns the job queue, its workers and the cron scheduler.
type Broker struct {
	cron   *cron.Cron
	logger *zap.Logger
	queue  chan Job
	chain  cron.Chain

	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool

	mail MailSender
}

// NewBroker starts the worker pool. Cron jobs only run after Start.
func NewBroker(cfg BrokerConfig, mail MailSender, logger *zap.Logger) *Broker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("task_broker")

	b := &Broker{
		logger: logger,
		queue:  make(chan Job, cfg.QueueSize),
		chain:  cron.NewChain(NewPanicRecoveryWrapper(logger), NewLoggingWrapper(logger)),
		mail:   mail,
	}
	b.cron = cron.New(cron.WithChain(
		NewPanicRecoveryWrapper(logger),
		NewLoggingWrapper(logger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	b.startWorkers(cfg.Workers)
	return b
}

func (b *Broker) startWorkers(n int) {
	b.logger.Info("starting task worker pool", zap.Int("concurrency", n))
	for i := 0; i < n; i++ {
		b.wg.Add(1)
		go func(workerID int) {
			defer b.wg.Done()
			for job := range b.queue {
				b.chain.Then(job).Run()
			}
			b.logger.Debug("worker stopped", zap.Int("worker_id", workerID))
		}(i + 1)
	}
}

// Dispatch enqueues job without blocking. It reports false when the queue is
// full or the broker is stopped; the job is dropped in that case.
func (b *Broker) Dispatch(job Job) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		b.logger.Warn("broker stopped, job dropped", zap.String("job_name", job.Name()))
		return false
	}
	select {
	case b.queue <- job:
		return true
	default:
		b.logger.Warn("job queue full, job dropped", zap.String("job_name", job.Name()))
		return false
	}
}

// DispatchMail queues one email delivery.
func (b *Broker) DispatchMail(to, subject, body string) {
	if b.Dispatch(NewMailJob(b.mail, to, subject, body, b.logger)) {
		b.logger.Debug("queued mail job", zap.String("to", to))
	}
}

// AddPeriodic registers job on a standard 5-field cron spec.
func (b *Broker) AddPeriodic(spec string, job Job) error {
	if _, err := b.cron.AddJob(spec, job); err != nil {
		return err
	}
	b.logger.Info("registered periodic job", zap.String("job_name", job.Name()), zap.String("schedule", spec))
	return nil
}

// Start starts the cron scheduler.
func (b *Broker) Start() {
	b.cron.Start()
	b.logger.Info("task broker started")
}

// Stop halts the scheduler, closes the queue and waits for queued jobs to
// finish or ctx to expire.
func (b *Broker) Stop(ctx context.Context) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	close(b.queue)
	b.mu.Unlock()

	cronDone := b.cron.Stop()
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		<-cronDone.Done()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("task broker stopped")
	case <-ctx.Done():
		b.logger.Warn("task broker stop timed out", zap.Error(ctx.Err()))
	}
}
