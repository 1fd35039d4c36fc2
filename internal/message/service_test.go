package message_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/attachment"
	"github.com/frahmantamala/correspondence-management/internal/auth"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	"github.com/frahmantamala/correspondence-management/internal/core/database/dbtest"
	messageDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/message"
	notificationDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/correspondence-management/internal/core/events"
	coreuser "github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/internal/group"
	groupPostgres "github.com/frahmantamala/correspondence-management/internal/group/postgres"
	"github.com/frahmantamala/correspondence-management/internal/message"
	"github.com/frahmantamala/correspondence-management/internal/message/postgres"
	"github.com/frahmantamala/correspondence-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/correspondence-management/internal/notification/postgres"
	userPostgres "github.com/frahmantamala/correspondence-management/internal/user/postgres"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/microcosm-cc/bluemonday"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestMessage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Message Suite")
}

func upload(name, content string) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("attachments", name)
	Expect(err).ToNot(HaveOccurred())
	_, err = part.Write([]byte(content))
	Expect(err).ToNot(HaveOccurred())
	Expect(writer.Close()).To(Succeed())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	Expect(err).ToNot(HaveOccurred())
	DeferCleanup(form.RemoveAll)
	return form.File["attachments"][0]
}

var _ = Describe("Message service", func() {
	var (
		db      *gorm.DB
		service *message.Service
		groups  *group.Service
		dir     string
		ctx     context.Context

		alice, bob, carol, dave *coreuser.Principal
	)

	principal := func(username string, opts ...dbtest.UserOption) *coreuser.Principal {
		u, err := dbtest.CreateUser(db, username, opts...)
		Expect(err).ToNot(HaveOccurred())
		return &coreuser.Principal{ID: u.ID, Username: u.Username, LegacyRole: u.Role, IsActive: true}
	}

	countRows := func(model interface{}, where string, args ...interface{}) int64 {
		var n int64
		q := db.Model(model)
		if where != "" {
			q = q.Where(where, args...)
		}
		Expect(q.Count(&n).Error).To(Succeed())
		return n
	}

	notificationsFor := func(userID int64) []notificationDatamodel.Notification {
		var out []notificationDatamodel.Notification
		Expect(db.Where("user_id = ?", userID).Order("id ASC").Find(&out).Error).To(Succeed())
		return out
	}

	send := func(from *coreuser.Principal, dto message.SendMessageDTO) *message.Message {
		if dto.Subject == "" {
			dto.Subject = "Budget"
		}
		if dto.Content == "" {
			dto.Content = "Please review."
		}
		m, err := service.Send(ctx, from, dto, nil)
		Expect(err).ToNot(HaveOccurred())
		return m
	}

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).ToNot(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).ToNot(HaveOccurred())

		log := logger.Discard()
		tx := database.NewTransactor(db)
		bus := events.NewEventBus(log)
		resolver := auth.NewResolver()

		notifications := notification.NewService(notificationPostgres.NewNotificationRepository(db), bus, log)
		notifications.RegisterEventHandlers(bus)

		groups = group.NewService(groupPostgres.NewGroupRepository(db), resolver, tx, log)

		dir = GinkgoT().TempDir()
		service = message.NewService(message.Deps{
			Repo:       postgres.NewMessageRepository(db),
			Stats:      postgres.NewStatsRepository(sqlx.NewDb(sqlDB, "sqlite3")),
			Recipients: message.NewFanOut(userPostgres.NewUserRepository(db), groups),
			Authorizer: resolver,
			Tx:         tx,
			Publisher:  bus,
			Files:      attachment.NewStorage(internal.UploadConfig{Dir: dir, MaxSize: 1 << 20, AllowedExtensions: []string{"txt", "pdf"}}),
			Sanitizer:  bluemonday.UGCPolicy(),
			Logger:     log,
		})
		ctx = context.Background()

		alice = principal("alice")
		bob = principal("bob")
		carol = principal("carol")
		dave = principal("dave")
	})

	Describe("Send", func() {
		It("delivers to a single user with a styled notification", func() {
			m := send(alice, message.SendMessageDTO{RecipientType: "user", Recipient: "bob", Priority: "urgent"})

			Expect(countRows(&messageDatamodel.MessageRecipient{}, "message_id = ?", m.ID)).To(Equal(int64(1)))
			notes := notificationsFor(bob.ID)
			Expect(notes).To(HaveLen(1))
			Expect(notes[0].Title).To(Equal("Urgent message"))
			Expect(notes[0].Icon).To(Equal("fa-exclamation-circle"))
			Expect(notes[0].Color).To(Equal("warning"))
		})

		It("fans a group out to its members except the sender", func() {
			g, err := groups.Create(ctx, alice, group.CreateGroupDTO{Name: "Finance", MemberIDs: []int64{bob.ID, carol.ID}})
			Expect(err).ToNot(HaveOccurred())

			m := send(alice, message.SendMessageDTO{RecipientType: "group", GroupID: g.ID})

			Expect(m.IsMultiRecipient).To(BeTrue())
			Expect(countRows(&messageDatamodel.MessageRecipient{}, "message_id = ?", m.ID)).To(Equal(int64(2)))
			Expect(countRows(&notificationDatamodel.Notification{}, "")).To(Equal(int64(2)))
			Expect(notificationsFor(alice.ID)).To(BeEmpty())
		})

		It("writes nothing for a group with no one else in it", func() {
			g, err := groups.Create(ctx, alice, group.CreateGroupDTO{Name: "Solo"})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Send(ctx, alice, message.SendMessageDTO{Subject: "x", Content: "y", RecipientType: "group", GroupID: g.ID}, []*multipart.FileHeader{upload("a.txt", "data")})

			Expect(errors.Is(err, message.ErrNoRecipients)).To(BeTrue())
			Expect(countRows(&messageDatamodel.Message{}, "")).To(BeZero())
			entries, _ := os.ReadDir(filepath.Join(dir, attachment.AreaMessages))
			Expect(entries).To(BeEmpty())
		})

		It("skips inactive and duplicate ids in an explicit list", func() {
			ghost := principal("ghost", dbtest.Inactive())

			m := send(alice, message.SendMessageDTO{RecipientType: "multiple", RecipientIDs: []int64{bob.ID, ghost.ID, bob.ID, alice.ID, carol.ID}})

			var ids []int64
			Expect(db.Model(&messageDatamodel.MessageRecipient{}).Where("message_id = ?", m.ID).Order("id").Pluck("recipient_id", &ids).Error).To(Succeed())
			Expect(ids).To(Equal([]int64{bob.ID, carol.ID}))
		})

		It("rejects an unknown username", func() {
			_, err := service.Send(ctx, alice, message.SendMessageDTO{Subject: "x", Content: "y", Recipient: "nobody"}, nil)
			Expect(errors.Is(err, message.ErrRecipientNotFound)).To(BeTrue())
		})

		It("stores attachments and rejects disallowed types before writing", func() {
			m, err := service.Send(ctx, alice, message.SendMessageDTO{Subject: "x", Content: "y", Recipient: "bob"}, []*multipart.FileHeader{upload("minutes.txt", "hello")})
			Expect(err).ToNot(HaveOccurred())
			Expect(m.HasAttachments).To(BeTrue())
			Expect(m.Attachments).To(HaveLen(1))
			Expect(m.Attachments[0].Size).To(Equal("5 B"))

			_, err = service.Send(ctx, alice, message.SendMessageDTO{Subject: "x", Content: "y", Recipient: "bob"}, []*multipart.FileHeader{upload("run.exe", "MZ")})
			Expect(errors.Is(err, attachment.ErrFileNotAllowed)).To(BeTrue())
			Expect(countRows(&messageDatamodel.Message{}, "")).To(Equal(int64(1)))
		})

		It("sanitizes content and appends the signature", func() {
			alice.Signature = "Alice\nRegistry"
			m := send(alice, message.SendMessageDTO{Recipient: "bob", Content: "Hi <script>alert(1)</script>there", IncludeSignature: true})

			Expect(m.Content).ToNot(ContainSubstring("<script>"))
			Expect(m.Content).To(HaveSuffix("\n\n--\nAlice\nRegistry"))
		})

		It("validates dates", func() {
			_, err := service.Send(ctx, alice, message.SendMessageDTO{Subject: "x", Content: "y", Recipient: "bob", DueDate: "next week"}, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})

	Describe("View", func() {
		var m *message.Message

		BeforeEach(func() {
			m = send(alice, message.SendMessageDTO{RecipientType: "multiple", RecipientIDs: []int64{bob.ID, carol.ID}})
		})

		It("marks the viewer's state read once and records it", func() {
			viewed, err := service.View(ctx, bob, m.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(viewed.MyStatus).To(Equal(message.StatusRead))

			_, err = service.View(ctx, bob, m.ID)
			Expect(err).ToNot(HaveOccurred())

			var changes []messageDatamodel.MessageStatusChange
			Expect(db.Where("message_id = ?", m.ID).Find(&changes).Error).To(Succeed())
			Expect(changes).To(HaveLen(1))
			Expect(changes[0].Notes).To(Equal("Message read"))
			Expect(*changes[0].RecipientID).To(Equal(bob.ID))

			var row messageDatamodel.MessageRecipient
			Expect(db.Where("message_id = ? AND recipient_id = ?", m.ID, bob.ID).First(&row).Error).To(Succeed())
			Expect(row.ReadAt).ToNot(BeNil())

			notes := notificationsFor(alice.ID)
			Expect(notes).To(HaveLen(1))
			Expect(notes[0].Content).To(ContainSubstring(`"read"`))
		})

		It("shows the sender every recipient's state", func() {
			_, err := service.View(ctx, bob, m.ID)
			Expect(err).ToNot(HaveOccurred())

			viewed, err := service.View(ctx, alice, m.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(viewed.Recipients).To(HaveLen(2))
			Expect(viewed.Recipients[0].Status).To(Equal(message.StatusRead))
			Expect(viewed.Recipients[1].Status).To(Equal(message.StatusNew))
		})

		It("denies outsiders unless they may view all messages", func() {
			_, err := service.View(ctx, dave, m.ID)
			Expect(errors.Is(err, message.ErrMessageAccess)).To(BeTrue())

			dave.RoleName = "auditor"
			dave.RolePermissions = []string{auth.PermViewAllMessages}
			viewed, err := service.View(ctx, dave, m.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(viewed.MyStatus).To(BeEmpty())
		})

		It("returns not found for a missing message", func() {
			_, err := service.View(ctx, bob, 999)
			Expect(errors.Is(err, message.ErrMessageNotFound)).To(BeTrue())
		})
	})

	Describe("ChangeStatus", func() {
		var m *message.Message

		BeforeEach(func() {
			m = send(alice, message.SendMessageDTO{RecipientType: "multiple", RecipientIDs: []int64{bob.ID, carol.ID}})
		})

		It("treats the current status as a no-op", func() {
			changed, err := service.ChangeStatus(ctx, bob, m.ID, message.ChangeStatusDTO{Status: message.StatusNew})

			Expect(err).ToNot(HaveOccurred())
			Expect(changed).To(BeFalse())
			Expect(countRows(&messageDatamodel.MessageStatusChange{}, "")).To(BeZero())
		})

		It("lets a plain recipient only mark the message read", func() {
			_, err := service.ChangeStatus(ctx, bob, m.ID, message.ChangeStatusDTO{Status: message.StatusProcessing})
			Expect(errors.Is(err, message.ErrStatusNotPermitted)).To(BeTrue())

			changed, err := service.ChangeStatus(ctx, bob, m.ID, message.ChangeStatusDTO{Status: message.StatusRead})
			Expect(err).ToNot(HaveOccurred())
			Expect(changed).To(BeTrue())
		})

		It("notifies the sender of a recipient-initiated change", func() {
			bob.CanChangeStatus = true

			changed, err := service.ChangeStatus(ctx, bob, m.ID, message.ChangeStatusDTO{Status: message.StatusProcessing, Notes: "on it"})
			Expect(err).ToNot(HaveOccurred())
			Expect(changed).To(BeTrue())

			notes := notificationsFor(alice.ID)
			Expect(notes).To(HaveLen(1))
			Expect(notes[0].Title).To(Equal("Message status changed"))
			Expect(notes[0].Icon).To(Equal("fa-exchange-alt"))

			var row messageDatamodel.MessageRecipient
			Expect(db.Where("message_id = ? AND recipient_id = ?", m.ID, carol.ID).First(&row).Error).To(Succeed())
			Expect(row.Status).To(Equal(message.StatusNew))
		})

		It("lets a permitted sender target one recipient", func() {
			target := carol.ID
			_, err := service.ChangeStatus(ctx, alice, m.ID, message.ChangeStatusDTO{Status: message.StatusClosed, RecipientID: &target})
			Expect(errors.Is(err, message.ErrStatusNotPermitted)).To(BeTrue())

			alice.CanChangeStatus = true
			changed, err := service.ChangeStatus(ctx, alice, m.ID, message.ChangeStatusDTO{Status: message.StatusClosed, RecipientID: &target})
			Expect(err).ToNot(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(notificationsFor(alice.ID)).To(BeEmpty())

			stranger := dave.ID
			_, err = service.ChangeStatus(ctx, alice, m.ID, message.ChangeStatusDTO{Status: message.StatusClosed, RecipientID: &stranger})
			Expect(errors.Is(err, message.ErrUnknownRecipient)).To(BeTrue())
		})

		It("changes the sender-side status only with the status permission", func() {
			_, err := service.ChangeStatus(ctx, alice, m.ID, message.ChangeStatusDTO{Status: message.StatusCompleted})
			Expect(errors.Is(err, message.ErrStatusNotPermitted)).To(BeTrue())
			Expect(countRows(&messageDatamodel.MessageStatusChange{}, "")).To(BeZero())

			alice.CanChangeStatus = true
			changed, err := service.ChangeStatus(ctx, alice, m.ID, message.ChangeStatusDTO{Status: message.StatusCompleted})
			Expect(err).ToNot(HaveOccurred())
			Expect(changed).To(BeTrue())

			history, err := service.History(ctx, alice, m.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(history).To(HaveLen(1))
			Expect(history[0].RecipientID).To(BeNil())
		})

		It("keeps an unprivileged sender off a legacy recipient's state", func() {
			legacyRecipient := bob.ID
			legacy := &messageDatamodel.Message{
				Subject: "Old memo", Content: "x", Date: time.Now(), SenderID: alice.ID,
				RecipientID: &legacyRecipient, Status: message.StatusNew, RecipientType: "user",
				Priority: "normal", Confidentiality: "normal",
			}
			Expect(db.Omit("Sender", "Recipients", "Attachments").Create(legacy).Error).To(Succeed())

			_, err := service.ChangeStatus(ctx, alice, legacy.ID, message.ChangeStatusDTO{Status: message.StatusClosed})
			Expect(errors.Is(err, message.ErrStatusNotPermitted)).To(BeTrue())

			var stored messageDatamodel.Message
			Expect(db.First(&stored, legacy.ID).Error).To(Succeed())
			Expect(stored.Status).To(Equal(message.StatusNew))

			alice.CanChangeStatus = true
			changed, err := service.ChangeStatus(ctx, alice, legacy.ID, message.ChangeStatusDTO{Status: message.StatusClosed})
			Expect(err).ToNot(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(db.First(&stored, legacy.ID).Error).To(Succeed())
			Expect(stored.Status).To(Equal(message.StatusClosed))
		})

		It("rejects outsiders and unknown statuses", func() {
			_, err := service.ChangeStatus(ctx, dave, m.ID, message.ChangeStatusDTO{Status: message.StatusRead})
			Expect(errors.Is(err, message.ErrMessageAccess)).To(BeTrue())

			_, err = service.ChangeStatus(ctx, bob, m.ID, message.ChangeStatusDTO{Status: "lost"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})

	Describe("mailboxes", func() {
		It("archives per recipient", func() {
			m := send(alice, message.SendMessageDTO{RecipientType: "multiple", RecipientIDs: []int64{bob.ID, carol.ID}})

			Expect(service.SetArchived(ctx, bob, m.ID, true)).To(Succeed())

			bobInbox, err := service.Inbox(ctx, bob)
			Expect(err).ToNot(HaveOccurred())
			Expect(bobInbox).To(BeEmpty())
			bobArchive, err := service.Archive(ctx, bob)
			Expect(err).ToNot(HaveOccurred())
			Expect(bobArchive).To(HaveLen(1))

			carolInbox, err := service.Inbox(ctx, carol)
			Expect(err).ToNot(HaveOccurred())
			Expect(carolInbox).To(HaveLen(1))
			Expect(carolInbox[0].IsArchived).To(BeFalse())

			Expect(errors.Is(service.SetArchived(ctx, alice, m.ID, true), message.ErrMessageAccess)).To(BeTrue())
		})

		It("orders the inbox newest first and reads legacy rows", func() {
			legacyRecipient := bob.ID
			legacy := &messageDatamodel.Message{
				Subject: "Old memo", Content: "x", Date: time.Now().Add(-48 * time.Hour), SenderID: carol.ID,
				RecipientID: &legacyRecipient, Status: message.StatusNew, RecipientType: "user",
				Priority: "normal", Confidentiality: "normal",
			}
			Expect(db.Omit("Sender", "Recipients", "Attachments").Create(legacy).Error).To(Succeed())
			fresh := send(alice, message.SendMessageDTO{Recipient: "bob", Subject: "Fresh"})

			inbox, err := service.Inbox(ctx, bob)
			Expect(err).ToNot(HaveOccurred())
			Expect(inbox).To(HaveLen(2))
			Expect(inbox[0].ID).To(Equal(fresh.ID))
			Expect(inbox[1].Subject).To(Equal("Old memo"))

			_, err = service.View(ctx, bob, legacy.ID)
			Expect(err).ToNot(HaveOccurred())

			var stored messageDatamodel.Message
			Expect(db.First(&stored, legacy.ID).Error).To(Succeed())
			Expect(stored.Status).To(Equal(message.StatusRead))
		})

		It("counts recipients and reads in the outbox", func() {
			m := send(alice, message.SendMessageDTO{RecipientType: "multiple", RecipientIDs: []int64{bob.ID, carol.ID, dave.ID}})
			_, err := service.View(ctx, bob, m.ID)
			Expect(err).ToNot(HaveOccurred())

			outbox, err := service.Outbox(ctx, alice)
			Expect(err).ToNot(HaveOccurred())
			Expect(outbox).To(HaveLen(1))
			Expect(outbox[0].RecipientCount).To(Equal(int64(3)))
			Expect(outbox[0].ReadCount).To(Equal(int64(1)))
		})

		It("summarises the dashboard", func() {
			first := send(alice, message.SendMessageDTO{Recipient: "bob"})
			send(carol, message.SendMessageDTO{Recipient: "bob"})
			send(bob, message.SendMessageDTO{Recipient: "alice"})
			Expect(service.SetArchived(ctx, bob, first.ID, true)).To(Succeed())

			d, err := service.Dashboard(ctx, bob)
			Expect(err).ToNot(HaveOccurred())
			Expect(d.Stats).To(Equal(message.DashboardCounts{Total: 2, Inbox: 1, Sent: 1, Archived: 1, Unread: 1}))
			Expect(d.Recent).To(HaveLen(1))
		})
	})

	Describe("Reply", func() {
		It("answers the sender and marks the original replied", func() {
			m := send(alice, message.SendMessageDTO{Recipient: "bob", Subject: "Leave request"})

			reply, err := service.Reply(ctx, bob, m.ID, message.ReplyDTO{Content: "Approved"}, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(reply.Subject).To(Equal("Re: Leave request"))

			var row messageDatamodel.MessageRecipient
			Expect(db.Where("message_id = ? AND recipient_id = ?", reply.ID, alice.ID).First(&row).Error).To(Succeed())

			Expect(db.Where("message_id = ? AND recipient_id = ?", m.ID, bob.ID).First(&row).Error).To(Succeed())
			Expect(row.Status).To(Equal(message.StatusReplied))

			notes := notificationsFor(alice.ID)
			Expect(notes).To(HaveLen(1))
			Expect(notes[0].Title).To(Equal("Reply to your message"))
		})

		It("is only open to recipients", func() {
			m := send(alice, message.SendMessageDTO{Recipient: "bob"})
			_, err := service.Reply(ctx, carol, m.ID, message.ReplyDTO{Content: "me too"}, nil)
			Expect(errors.Is(err, message.ErrMessageAccess)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		var mine, theirs *message.Message

		BeforeEach(func() {
			mine = send(alice, message.SendMessageDTO{Recipient: "bob"})
			theirs = send(carol, message.SendMessageDTO{Recipient: "dave"})
			alice.RoleName = "clerk"
			alice.RolePermissions = []string{auth.PermDeleteMessages}
		})

		It("requires the delete permission", func() {
			err := service.Delete(ctx, bob, mine.ID)
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
		})

		It("is all or nothing across a batch", func() {
			_, err := service.BulkDelete(ctx, alice, message.BulkDeleteDTO{MessageIDs: []int64{mine.ID, theirs.ID}})
			Expect(errors.Is(err, message.ErrDeleteNotPermitted)).To(BeTrue())
			Expect(countRows(&messageDatamodel.Message{}, "")).To(Equal(int64(2)))

			n, err := service.BulkDelete(ctx, alice, message.BulkDeleteDTO{MessageIDs: []int64{mine.ID}})
			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(1))
			Expect(countRows(&messageDatamodel.MessageRecipient{}, "message_id = ?", mine.ID)).To(BeZero())
		})

		It("removes attachment files after commit", func() {
			m, err := service.Send(ctx, alice, message.SendMessageDTO{Subject: "x", Content: "y", Recipient: "bob"}, []*multipart.FileHeader{upload("a.txt", "data")})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Delete(ctx, alice, m.ID)).To(Succeed())
			entries, _ := os.ReadDir(filepath.Join(dir, attachment.AreaMessages))
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("Attachment", func() {
		It("is visible to participants only", func() {
			m, err := service.Send(ctx, alice, message.SendMessageDTO{Subject: "x", Content: "y", Recipient: "bob"}, []*multipart.FileHeader{upload("a.txt", "data")})
			Expect(err).ToNot(HaveOccurred())
			id := m.Attachments[0].ID

			a, err := service.Attachment(ctx, bob, id)
			Expect(err).ToNot(HaveOccurred())
			Expect(a.OriginalFilename).To(Equal("a.txt"))

			_, err = service.Attachment(ctx, carol, id)
			Expect(errors.Is(err, message.ErrMessageAccess)).To(BeTrue())

			_, err = service.Attachment(ctx, bob, 999)
			Expect(errors.Is(err, message.ErrAttachmentNotFound)).To(BeTrue())
		})
	})
})
