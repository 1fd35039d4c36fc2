package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frahmantamala/correspondence-management/internal/core/database"
	"github.com/frahmantamala/correspondence-management/internal/core/database/dbtest"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"github.com/frahmantamala/correspondence-management/internal/transport/middleware"
	"github.com/frahmantamala/correspondence-management/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("Transaction", func() {
	var (
		db              *gorm.DB
		hookRan         bool
		departmentCount func() int64
	)

	serve := func(method string, handler http.HandlerFunc) *httptest.ResponseRecorder {
		chain := middleware.RecoveryMiddleware(logger.Discard())(
			middleware.Transaction(db, logger.Discard())(handler))
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, httptest.NewRequest(method, "/departments", nil))
		return rec
	}

	createDepartment := func(r *http.Request) {
		ctx := r.Context()
		Expect(database.Conn(ctx, db).Create(&userDatamodel.Department{Name: "Registry", IsActive: true}).Error).To(Succeed())
		database.AfterCommit(ctx, func() { hookRan = true })
	}

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).ToNot(HaveOccurred())
		hookRan = false
		departmentCount = func() int64 {
			var n int64
			Expect(db.Model(&userDatamodel.Department{}).Count(&n).Error).To(Succeed())
			return n
		}
	})

	It("commits a successful write and runs after-commit hooks", func() {
		rec := serve(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
			createDepartment(r)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1}`))
		})

		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(rec.Body.String()).To(MatchJSON(`{"id":1}`))
		Expect(departmentCount()).To(Equal(int64(1)))
		Expect(hookRan).To(BeTrue())
	})

	It("rolls back when the handler answers with an error status", func() {
		rec := serve(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
			createDepartment(r)
			w.WriteHeader(http.StatusConflict)
		})

		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(departmentCount()).To(BeZero())
		Expect(hookRan).To(BeFalse())
	})

	It("rolls back when the handler panics", func() {
		rec := serve(http.MethodPut, func(_ http.ResponseWriter, r *http.Request) {
			createDepartment(r)
			panic("boom")
		})

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).ToNot(ContainSubstring("boom"))
		Expect(departmentCount()).To(BeZero())
	})

	It("leaves reads outside a transaction", func() {
		var inTx bool
		rec := serve(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
			_, inTx = database.TxFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(inTx).To(BeFalse())
	})
})

var _ = Describe("CORS", func() {
	handler := middleware.CORS("http://app.example.com")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	It("answers a preflight from an allowed origin", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/messages", nil)
		req.Header.Set("Origin", "http://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://app.example.com"))
	})

	It("does not echo an unknown origin", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})
})

var _ = Describe("RequestID", func() {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	It("keeps an incoming trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace-ID", "trace-123")
		rec := httptest.NewRecorder()

		middleware.RequestID(next).ServeHTTP(rec, req)

		Expect(rec.Header().Get("X-Trace-ID")).To(Equal("trace-123"))
	})

	It("mints one when missing", func() {
		rec := httptest.NewRecorder()
		middleware.RequestID(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Header().Get("X-Trace-ID")).To(HaveLen(36))
	})

	It("hands the same id to the request log", func() {
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set("X-Trace-ID", "trace-abc")
		rec := httptest.NewRecorder()

		middleware.RequestID(middleware.LoggingMiddleware(log)(next)).ServeHTTP(rec, req)

		Expect(rec.Header().Get("X-Trace-ID")).To(Equal("trace-abc"))
		Expect(buf.String()).To(ContainSubstring(`"msg":"incoming request"`))
		Expect(bytes.Count(buf.Bytes(), []byte(`"request_id":"trace-abc"`))).To(Equal(2))
	})
})
