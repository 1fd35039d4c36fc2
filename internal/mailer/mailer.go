package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/events"
	gomail "gopkg.in/gomail.v2"
)

var ErrQueueFull = errors.New("mail queue full")

type Mail struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Worker struct {
	ID         int
	WorkerPool chan chan Mail
	JobChannel chan Mail
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Mail, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Mail),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, deliver func(Mail)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker delivering mail", "worker_id", w.ID, "subject", job.Subject)
				deliver(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Client queues mail for a bounded pool of SMTP workers.
type Client struct {
	from    string
	enabled bool
	sender  Sender
	logger  *slog.Logger

	jobQueue   chan Mail
	workerPool chan chan Mail
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func New(cfg internal.MailConfig, logger *slog.Logger) *Client {
	dialer := gomail.NewPlainDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewWithSender(cfg, dialer, logger)
}

func NewWithSender(cfg internal.MailConfig, sender Sender, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	c := &Client{
		from:       cfg.From,
		enabled:    cfg.Enabled,
		sender:     sender,
		logger:     logger,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan Mail, queueSize),
		workerPool: make(chan chan Mail, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	if c.enabled {
		c.startWorkerPool()
	}

	return c
}

func (c *Client) Enabled() bool {
	return c.enabled
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {
		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.deliver)
		}

		c.wg.Add(1)
		go c.dispatch()

		c.logger.Info("mail worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	defer c.wg.Done()

	for {
		select {
		case job := <-c.jobQueue:
			select {
			case jobChannel := <-c.workerPool:
				select {
				case jobChannel <- job:
				case <-c.ctx.Done():
					return
				}
			case <-c.ctx.Done():
				return
			}
		case <-c.ctx.Done():
			c.logger.Debug("mail dispatcher shutting down")
			return
		}
	}
}

func (c *Client) deliver(m Mail) {
	if err := c.send(m); err != nil {
		c.logger.Error("mail delivery failed", "to", m.To, "subject", m.Subject, "error", err)
		return
	}
	c.logger.Info("mail delivered", "to", m.To, "subject", m.Subject)
}

func (c *Client) compose(m Mail) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", c.from)
	msg.SetHeader("To", m.To...)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)
	return msg
}

func (c *Client) send(m Mail) error {
	if len(m.To) == 0 {
		return fmt.Errorf("mail %q has no recipients", m.Subject)
	}
	return c.sender.DialAndSend(c.compose(m))
}

// Enqueue never blocks; a full queue drops the mail.
func (c *Client) Enqueue(m Mail) error {
	if !c.enabled {
		c.logger.Debug("mail disabled, dropping", "subject", m.Subject)
		return nil
	}

	select {
	case c.jobQueue <- m:
		return nil
	default:
		c.logger.Warn("mail queue full, dropping", "subject", m.Subject, "queue_capacity", cap(c.jobQueue))
		return ErrQueueFull
	}
}

// SendNow bypasses the queue.
func (c *Client) SendNow(m Mail) error {
	return c.send(m)
}

func (c *Client) SendResetCode(_ context.Context, email, username, code string) error {
	if !c.enabled {
		c.logger.Warn("mail disabled, password reset code not delivered", "username", username)
		return nil
	}
	return c.Enqueue(Mail{
		To:      []string{email},
		Subject: "Password reset code",
		Body: fmt.Sprintf("Hello %s,\n\nYour password reset code is %s. It expires in 10 minutes.\n\nIf you did not ask for a reset you can ignore this message.\n",
			username, code),
	})
}

func (c *Client) HandleNotificationCreated(_ context.Context, event events.Event) error {
	created, ok := event.(*events.NotificationCreatedEvent)
	if !ok {
		return fmt.Errorf("expected NotificationCreatedEvent, got %T", event)
	}
	if created.Email == "" {
		return nil
	}

	body := created.Content
	if created.Link != "" {
		body += "\n\n" + created.Link
	}
	if err := c.Enqueue(Mail{To: []string{created.Email}, Subject: created.Title, Body: body}); err != nil && !errors.Is(err, ErrQueueFull) {
		return err
	}
	return nil
}

func (c *Client) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeNotificationCreated, c.HandleNotificationCreated)
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down mail client")
	c.cancel()
	c.wg.Wait()
}
