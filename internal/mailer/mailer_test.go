package mailer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/events"
	"github.com/frahmantamala/correspondence-management/internal/mailer"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomail "gopkg.in/gomail.v2"
)

func TestMailer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mailer Suite")
}

type recordingSender struct {
	mu       sync.Mutex
	subjects []string
	to       []string
	release  chan struct{}
}

func (s *recordingSender) DialAndSend(msgs ...*gomail.Message) error {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.subjects = append(s.subjects, m.GetHeader("Subject")...)
		s.to = append(s.to, m.GetHeader("To")...)
	}
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subjects)
}

var _ = Describe("Mail client", func() {
	var (
		sender *recordingSender
		client *mailer.Client
		cfg    internal.MailConfig
	)

	BeforeEach(func() {
		sender = &recordingSender{}
		cfg = internal.MailConfig{Enabled: true, From: "noreply@example.com", Workers: 2, QueueSize: 4}
	})

	AfterEach(func() {
		if client != nil {
			client.Shutdown()
		}
	})

	It("delivers queued mail through the worker pool", func() {
		client = mailer.NewWithSender(cfg, sender, logger.Discard())

		Expect(client.Enqueue(mailer.Mail{To: []string{"a@example.com"}, Subject: "one", Body: "x"})).To(Succeed())
		Expect(client.Enqueue(mailer.Mail{To: []string{"b@example.com"}, Subject: "two", Body: "y"})).To(Succeed())

		Eventually(sender.count, time.Second).Should(Equal(2))
		Expect(sender.to).To(ConsistOf("a@example.com", "b@example.com"))
	})

	It("drops mail instead of blocking when the queue is full", func() {
		sender.release = make(chan struct{})
		cfg.Workers = 1
		cfg.QueueSize = 1
		client = mailer.NewWithSender(cfg, sender, logger.Discard())

		var dropped bool
		for i := 0; i < 10; i++ {
			if err := client.Enqueue(mailer.Mail{To: []string{"a@example.com"}, Subject: "flood"}); err == mailer.ErrQueueFull {
				dropped = true
				break
			}
		}
		Expect(dropped).To(BeTrue())
		close(sender.release)
	})

	It("does nothing when disabled", func() {
		cfg.Enabled = false
		client = mailer.NewWithSender(cfg, sender, logger.Discard())

		Expect(client.Enqueue(mailer.Mail{To: []string{"a@example.com"}, Subject: "quiet"})).To(Succeed())
		Consistently(sender.count, 100*time.Millisecond).Should(BeZero())
	})

	It("mails a copy of created notifications", func() {
		client = mailer.NewWithSender(cfg, sender, logger.Discard())
		bus := events.NewEventBus(logger.Discard())
		client.RegisterEventHandlers(bus)

		event := events.NewNotificationCreatedEvent(1, 2, "carol@example.com", "New message", "You have a new message", "/messages/9")
		Expect(bus.PublishSync(context.Background(), event)).To(Succeed())

		Eventually(sender.count, time.Second).Should(Equal(1))
		Expect(sender.subjects).To(ConsistOf("New message"))
	})
})
