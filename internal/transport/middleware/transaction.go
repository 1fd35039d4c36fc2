package middleware

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/correspondence-management/internal/core/database"
	"gorm.io/gorm"
)

// bufferedWriter holds the response until the transaction outcome is known.
type bufferedWriter struct {
	header     http.Header
	statusCode int
	body       bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header)}
}

func (bw *bufferedWriter) Header() http.Header {
	return bw.header
}

func (bw *bufferedWriter) WriteHeader(code int) {
	if bw.statusCode == 0 {
		bw.statusCode = code
	}
}

func (bw *bufferedWriter) Write(b []byte) (int, error) {
	if bw.statusCode == 0 {
		bw.statusCode = http.StatusOK
	}
	return bw.body.Write(b)
}

func (bw *bufferedWriter) status() int {
	if bw.statusCode == 0 {
		return http.StatusOK
	}
	return bw.statusCode
}

func (bw *bufferedWriter) flushTo(w http.ResponseWriter) {
	for k, v := range bw.header {
		w.Header()[k] = v
	}
	w.WriteHeader(bw.status())
	_, _ = w.Write(bw.body.Bytes())
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Transaction runs every unsafe request inside one database transaction.
// A response with status >= 400 or a panic rolls it back; after-commit
// hooks run before the response is released.
func Transaction(db *gorm.DB, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			tx := db.WithContext(r.Context()).Begin()
			if tx.Error != nil {
				logger.ErrorContext(r.Context(), "failed to begin request transaction", "error", tx.Error)
				writeInternalError(w)
				return
			}

			ctx, hooks := database.WithTx(r.Context(), tx)
			bw := newBufferedWriter()

			committed := false
			defer func() {
				if !committed {
					tx.Rollback()
				}
			}()

			next.ServeHTTP(bw, r.WithContext(ctx))

			if bw.status() >= http.StatusBadRequest {
				tx.Rollback()
				committed = true
				bw.flushTo(w)
				return
			}

			if err := tx.Commit().Error; err != nil {
				committed = true
				logger.ErrorContext(r.Context(), "failed to commit request transaction", "error", err, "path", r.URL.Path)
				writeInternalError(w)
				return
			}
			committed = true

			hooks.Run()
			bw.flushTo(w)
		})
	}
}
