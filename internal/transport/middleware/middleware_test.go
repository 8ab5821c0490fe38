package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/expense-portal/internal/auth"
)

func TestMiddleware(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Middleware Suite")
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var _ = ginkgo.Describe("APIKey", func() {
	handler := APIKey("public-key")(okHandler)

	ginkgo.It("should accept the key in the apikey header", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("apikey", "public-key")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("should accept the key in the X-Api-Key header", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Api-Key", "public-key")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("should reject a missing key", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should reject a wrong key", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("apikey", "wrong")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})
})

var _ = ginkgo.Describe("RequireRole", func() {
	withUser := func(roles ...string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		user := &auth.CurrentUser{ID: "u-1", Email: "u@example.com", Roles: roles}
		return req.WithContext(auth.ContextWithUser(req.Context(), user))
	}

	handler := RequireRole("approver")(okHandler)

	ginkgo.It("should pass a caller holding the role", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withUser("user", "approver"))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("should pass an admin regardless of the role", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withUser("admin"))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("should reject a caller without the role", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withUser("user"))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("should reject an anonymous request", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})
})
