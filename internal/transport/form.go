package transport

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/gorilla/schema"
)

// multipart fields beyond this many bytes spill to temporary files
const formMemory = 8 << 20

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// DecodeMultipart fills dst from the form values and returns the files sent
// under fileField. maxBytes caps the whole request body.
func (h *BaseHandler) DecodeMultipart(w http.ResponseWriter, r *http.Request, dst interface{}, fileField string, maxBytes int64) ([]*multipart.FileHeader, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(formMemory); err != nil {
		return nil, internal.NewValidationError("invalid multipart form", internal.ErrCodeValidationFailed).WithCause(err)
	}
	if err := formDecoder.Decode(dst, r.MultipartForm.Value); err != nil {
		return nil, internal.NewValidationError("invalid form fields", internal.ErrCodeValidationFailed).WithCause(err)
	}
	return r.MultipartForm.File[fileField], nil
}

// DecodeBody accepts either JSON or a multipart form.
func (h *BaseHandler) DecodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, fileField string, maxBytes int64) ([]*multipart.FileHeader, error) {
	if IsMultipart(r) {
		return h.DecodeMultipart(w, r, dst, fileField, maxBytes)
	}
	return nil, h.DecodeJSON(r, dst)
}
