package attachment_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/attachment"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAttachment(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Attachment Suite")
}

func fileHeader(name string, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	Expect(err).ToNot(HaveOccurred())
	_, err = part.Write(content)
	Expect(err).ToNot(HaveOccurred())
	Expect(writer.Close()).To(Succeed())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	Expect(err).ToNot(HaveOccurred())
	DeferCleanup(form.RemoveAll)
	return form.File["file"][0]
}

var _ = Describe("Storage", func() {
	var (
		dir     string
		storage *attachment.Storage
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		storage = attachment.NewStorage(internal.UploadConfig{
			Dir:               dir,
			MaxSize:           16,
			AllowedExtensions: []string{"pdf", ".TXT", "png"},
		})
	})

	It("stores a file under a random name keeping the extension", func() {
		stored, err := storage.Save(attachment.AreaMessages, fileHeader("Report Q1.TXT", []byte("hello")))

		Expect(err).ToNot(HaveOccurred())
		Expect(stored.OriginalFilename).To(Equal("Report Q1.TXT"))
		Expect(stored.Filename).To(MatchRegexp(`^[0-9a-f]{32}\.txt$`))
		Expect(stored.RelPath).To(Equal("messages/" + stored.Filename))
		Expect(stored.Size).To(Equal(int64(5)))

		content, err := os.ReadFile(filepath.Join(dir, "messages", stored.Filename))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("hello"))
	})

	It("rejects extensions outside the allowed set", func() {
		_, err := storage.Save(attachment.AreaMessages, fileHeader("run.exe", []byte("x")))
		Expect(err).To(MatchError(attachment.ErrFileNotAllowed))
	})

	It("rejects files over the size limit", func() {
		err := storage.Check([]*multipart.FileHeader{
			fileHeader("small.txt", []byte("ok")),
			fileHeader("big.txt", bytes.Repeat([]byte("x"), 17)),
		})
		Expect(err).To(MatchError(attachment.ErrFileTooLarge))

		entries, _ := os.ReadDir(dir)
		Expect(entries).To(BeEmpty())
	})

	It("narrows the allowed set when extensions are given", func() {
		_, err := storage.Save(attachment.AreaProfiles, fileHeader("cv.pdf", []byte("x")), attachment.ImageExtensions...)
		Expect(err).To(MatchError(attachment.ErrFileNotAllowed))
	})

	It("serves viewable files inline and others as downloads", func() {
		stored, err := storage.Save(attachment.AreaMessages, fileHeader("note.txt", []byte("inline me")))
		Expect(err).ToNot(HaveOccurred())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		Expect(storage.Serve(rec, req, stored.RelPath, "note.txt", "text/plain", true)).To(Succeed())
		Expect(rec.Header().Get("Content-Disposition")).To(HavePrefix("inline"))
		Expect(rec.Body.String()).To(Equal("inline me"))

		rec = httptest.NewRecorder()
		Expect(storage.Serve(rec, req, stored.RelPath, "note.txt", "text/plain", false)).To(Succeed())
		Expect(rec.Header().Get("Content-Disposition")).To(HavePrefix("attachment"))
	})

	It("does not escape the upload directory", func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		err := storage.Serve(rec, req, "../../etc/passwd", "passwd", "", false)
		Expect(err).To(MatchError(attachment.ErrFileMissing))
	})

	It("formats sizes for humans", func() {
		Expect(attachment.HumanSize(16 << 20)).To(Equal("17 MB"))
		Expect(attachment.IsBrowserViewable("application/octet-stream", "scan.PDF")).To(BeTrue())
		Expect(attachment.IsBrowserViewable("application/zip", "a.zip")).To(BeFalse())
	})
})
