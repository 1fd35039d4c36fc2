package attachment

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/google/uuid"
)

const (
	AreaMessages     = "messages"
	AreaPersonalMail = "personal_mail"
	AreaProfiles     = "profiles"
	AreaSignatures   = "signatures"
)

var (
	ErrFileNotAllowed = internal.NewValidationError("File type is not allowed", internal.ErrCodeFileNotAllowed)
	ErrFileTooLarge   = internal.NewValidationError("File exceeds the maximum upload size", internal.ErrCodeFileTooLarge)
	ErrFileMissing    = internal.NewNotFoundError("File not found", internal.ErrCodeAttachmentNotFound)
)

var ImageExtensions = []string{"png", "jpg", "jpeg", "gif"}

// StoredFile describes a file written under the upload directory.
type StoredFile struct {
	Filename         string
	OriginalFilename string
	RelPath          string
	Size             int64
	MimeType         string
}

type Storage struct {
	dir     string
	maxSize int64
	allowed map[string]bool
}

func NewStorage(cfg internal.UploadConfig) *Storage {
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &Storage{dir: cfg.Dir, maxSize: cfg.MaxSize, allowed: allowed}
}

func (s *Storage) MaxSize() int64 {
	return s.maxSize
}

func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func (s *Storage) Allowed(name string) bool {
	return s.allowed[Extension(name)]
}

// Check validates a batch before anything is written.
func (s *Storage) Check(files []*multipart.FileHeader, extensions ...string) error {
	for _, fh := range files {
		if err := s.check(fh, extensions); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) check(fh *multipart.FileHeader, extensions []string) error {
	ext := Extension(fh.Filename)
	if len(extensions) > 0 {
		ok := false
		for _, e := range extensions {
			if e == ext {
				ok = true
				break
			}
		}
		if !ok {
			return ErrFileNotAllowed.WithDetails(map[string]string{"filename": fh.Filename})
		}
	} else if !s.allowed[ext] {
		return ErrFileNotAllowed.WithDetails(map[string]string{"filename": fh.Filename})
	}
	if s.maxSize > 0 && fh.Size > s.maxSize {
		return ErrFileTooLarge.WithDetails(map[string]string{"filename": fh.Filename, "max_size": HumanSize(s.maxSize)})
	}
	return nil
}

// Save writes fh under area with a random name. extensions narrows the
// allowed set when given.
func (s *Storage) Save(area string, fh *multipart.FileHeader, extensions ...string) (*StoredFile, error) {
	if err := s.check(fh, extensions); err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := Extension(fh.Filename)
	name := strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext
	rel := path.Join(area, name)

	if err := os.MkdirAll(filepath.Join(s.dir, area), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.OpenFile(filepath.Join(s.dir, filepath.FromSlash(rel)), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(dst.Name())
		return nil, fmt.Errorf("write upload: %w", err)
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension("." + ext); byExt != "" {
			mimeType = byExt
		}
	}

	return &StoredFile{
		Filename:         name,
		OriginalFilename: filepath.Base(fh.Filename),
		RelPath:          rel,
		Size:             written,
		MimeType:         mimeType,
	}, nil
}

// Remove deletes stored files, ignoring ones already gone.
func (s *Storage) Remove(relPaths ...string) {
	for _, rel := range relPaths {
		if full, err := s.resolve(rel); err == nil {
			_ = os.Remove(full)
		}
	}
}

func (s *Storage) resolve(rel string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if clean == "/" {
		return "", ErrFileMissing
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Serve streams a stored file. Inline is honoured only for types a browser
// can render; anything else is sent as a download.
func (s *Storage) Serve(w http.ResponseWriter, r *http.Request, rel, originalName, mimeType string, inline bool) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileMissing
		}
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	disposition := "attachment"
	if inline && IsBrowserViewable(mimeType, originalName) {
		disposition = "inline"
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename*=UTF-8''%s", disposition, url.PathEscape(originalName)))
	http.ServeContent(w, r, originalName, info.ModTime(), f)
	return nil
}

func IsBrowserViewable(mimeType, name string) bool {
	if strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "text/") || mimeType == "application/pdf" {
		return true
	}
	switch Extension(name) {
	case "pdf", "png", "jpg", "jpeg", "gif", "txt":
		return true
	}
	return false
}

func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
