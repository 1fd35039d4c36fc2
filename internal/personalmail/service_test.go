package personalmail_test

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
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	"github.com/frahmantamala/correspondence-management/internal/core/database/dbtest"
	pmDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/personalmail"
	coreuser "github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/internal/personalmail"
	"github.com/frahmantamala/correspondence-management/internal/personalmail/postgres"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	"github.com/microcosm-cc/bluemonday"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestPersonalMail(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Personal Mail Suite")
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

var _ = Describe("Personal mail service", func() {
	var (
		db         *gorm.DB
		service    *personalmail.Service
		dir        string
		ctx        context.Context
		alice, bob *coreuser.Principal
	)

	principal := func(username string) *coreuser.Principal {
		u, err := dbtest.CreateUser(db, username)
		Expect(err).ToNot(HaveOccurred())
		return &coreuser.Principal{ID: u.ID, Username: u.Username, LegacyRole: u.Role, IsActive: true}
	}

	create := func(p *coreuser.Principal, dto personalmail.MailDTO, files ...*multipart.FileHeader) *personalmail.Mail {
		m, err := service.Create(ctx, p, dto, files)
		Expect(err).ToNot(HaveOccurred())
		return m
	}

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).ToNot(HaveOccurred())

		dir = GinkgoT().TempDir()
		service = personalmail.NewService(
			postgres.NewPersonalMailRepository(db),
			database.NewTransactor(db),
			attachment.NewStorage(internal.UploadConfig{Dir: dir, MaxSize: 1 << 20, AllowedExtensions: []string{"txt", "pdf"}}),
			bluemonday.UGCPolicy(),
			logger.Discard(),
		)
		ctx = context.Background()

		alice = principal("alice")
		bob = principal("bob")
	})

	Describe("Create", func() {
		It("defaults status and priority and sanitizes content", func() {
			m := create(alice, personalmail.MailDTO{Title: "Tax notice", Content: `<p>Due</p><script>alert(1)</script>`})

			Expect(m.Status).To(Equal(personalmail.StatusPending))
			Expect(m.StatusColor).To(Equal("warning"))
			Expect(m.Priority).To(Equal("normal"))
			Expect(m.PriorityColor).To(Equal("success"))
			Expect(m.Content).To(Equal("<p>Due</p>"))
		})

		It("stores attachments under the personal mail area", func() {
			m := create(alice, personalmail.MailDTO{Title: "Lease"}, upload("lease.txt", "hello"))

			Expect(m.HasAttachments).To(BeTrue())
			Expect(m.Attachments).To(HaveLen(1))
			Expect(m.Attachments[0].Size).To(Equal("5 B"))

			entries, err := os.ReadDir(filepath.Join(dir, attachment.AreaPersonalMail))
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("rejects a disallowed file without writing the entry", func() {
			_, err := service.Create(ctx, alice, personalmail.MailDTO{Title: "Bad"}, []*multipart.FileHeader{upload("run.exe", "MZ")})

			Expect(errors.Is(err, attachment.ErrFileNotAllowed)).To(BeTrue())
			var n int64
			Expect(db.Model(&pmDatamodel.PersonalMail{}).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())
		})

		It("validates the title, status and due date", func() {
			for _, dto := range []personalmail.MailDTO{
				{},
				{Title: "x", Status: "lost"},
				{Title: "x", DueDate: "tomorrow"},
			} {
				_, err := service.Create(ctx, alice, dto, nil)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(400))
			}
		})

		It("flags an open entry past its due date as overdue", func() {
			m := create(alice, personalmail.MailDTO{Title: "Renewal", DueDate: "2000-01-01"})
			Expect(m.Overdue).To(BeTrue())

			done := create(alice, personalmail.MailDTO{Title: "Renewal", DueDate: "2000-01-01", Status: personalmail.StatusCompleted})
			Expect(done.Overdue).To(BeFalse())
		})
	})

	Describe("Ownership", func() {
		It("hides entries from other users", func() {
			m := create(alice, personalmail.MailDTO{Title: "Private"}, upload("a.txt", "abc"))

			_, err := service.Get(ctx, bob, m.ID)
			Expect(errors.Is(err, personalmail.ErrMailNotFound)).To(BeTrue())

			_, err = service.Attachment(ctx, bob, m.Attachments[0].ID)
			Expect(errors.Is(err, personalmail.ErrAttachmentNotFound)).To(BeTrue())

			Expect(errors.Is(service.Delete(ctx, bob, m.ID), personalmail.ErrMailNotFound)).To(BeTrue())

			a, err := service.Attachment(ctx, alice, m.Attachments[0].ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(a.OriginalFilename).To(Equal("a.txt"))
		})

		It("lists only the owner's entries split by archive flag", func() {
			first := create(alice, personalmail.MailDTO{Title: "One"})
			create(alice, personalmail.MailDTO{Title: "Two"})
			create(bob, personalmail.MailDTO{Title: "Other"})

			Expect(service.SetArchived(ctx, alice, first.ID, true)).To(Succeed())

			active, err := service.List(ctx, alice, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(active).To(HaveLen(1))
			Expect(active[0].Title).To(Equal("Two"))

			archived, err := service.List(ctx, alice, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(archived).To(HaveLen(1))
			Expect(archived[0].ID).To(Equal(first.ID))
		})
	})

	Describe("Update", func() {
		It("replaces fields and appends new attachments", func() {
			m := create(alice, personalmail.MailDTO{Title: "Draft"}, upload("a.txt", "a"))

			updated, err := service.Update(ctx, alice, m.ID, personalmail.MailDTO{Title: "Final", Priority: "urgent"}, []*multipart.FileHeader{upload("b.pdf", "bb")})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Title).To(Equal("Final"))
			Expect(updated.PriorityColor).To(Equal("warning"))
			Expect(updated.Attachments).To(HaveLen(2))
		})
	})

	Describe("ChangeStatus", func() {
		It("moves the entry to the new status", func() {
			m := create(alice, personalmail.MailDTO{Title: "Task"})

			updated, err := service.ChangeStatus(ctx, alice, m.ID, personalmail.ChangeStatusDTO{Status: personalmail.StatusInProgress})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(personalmail.StatusInProgress))
			Expect(updated.StatusColor).To(Equal("info"))

			_, err = service.ChangeStatus(ctx, alice, m.ID, personalmail.ChangeStatusDTO{Status: "bogus"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})

	Describe("Delete", func() {
		It("removes rows and stored files", func() {
			m := create(alice, personalmail.MailDTO{Title: "Old"}, upload("a.txt", "a"))

			Expect(service.Delete(ctx, alice, m.ID)).To(Succeed())

			var n int64
			Expect(db.Model(&pmDatamodel.PersonalMailAttachment{}).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())
			Eventually(func() int {
				entries, _ := os.ReadDir(filepath.Join(dir, attachment.AreaPersonalMail))
				return len(entries)
			}, time.Second).Should(BeZero())
		})
	})
})
