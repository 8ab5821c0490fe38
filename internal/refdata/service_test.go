package refdata_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/expense-portal/internal/refdata"
)

func TestRefDataService(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "RefData Service Suite")
}

type mockRefDataRepo struct {
	categories  []*refdata.Category
	costCenters []*refdata.CostCenter
	err         error
}

func (m *mockRefDataRepo) ListCategories(_ context.Context) ([]*refdata.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

func (m *mockRefDataRepo) ListCostCenters(_ context.Context) ([]*refdata.CostCenter, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.costCenters, nil
}

var _ = ginkgo.Describe("RefDataService", func() {
	var (
		service *refdata.Service
		repo    *mockRefDataRepo
		ctx     context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = &mockRefDataRepo{}
		service = refdata.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	ginkgo.Describe("ListCategories", func() {
		ginkgo.It("should pass through the repository result", func() {
			repo.categories = []*refdata.Category{
				{ID: "cat-1", Name: "kantor"},
				{ID: "cat-2", Name: "makan"},
			}

			categories := service.ListCategories(ctx)

			gomega.Expect(categories).To(gomega.HaveLen(2))
			gomega.Expect(categories[0].Name).To(gomega.Equal("kantor"))
		})

		ginkgo.It("should swallow failures and return an empty slice", func() {
			repo.err = errors.New("query failed")

			categories := service.ListCategories(ctx)

			gomega.Expect(categories).ToNot(gomega.BeNil())
			gomega.Expect(categories).To(gomega.BeEmpty())
		})

		ginkgo.It("should normalize a nil result to an empty slice", func() {
			repo.categories = nil

			categories := service.ListCategories(ctx)

			gomega.Expect(categories).ToNot(gomega.BeNil())
			gomega.Expect(categories).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("ListCostCenters", func() {
		ginkgo.It("should swallow failures and return an empty slice", func() {
			repo.err = errors.New("query failed")

			costCenters := service.ListCostCenters(ctx)

			gomega.Expect(costCenters).ToNot(gomega.BeNil())
			gomega.Expect(costCenters).To(gomega.BeEmpty())
		})

		ginkgo.It("should pass through the repository result", func() {
			repo.costCenters = []*refdata.CostCenter{{ID: "cc-1", Name: "engineering"}}

			costCenters := service.ListCostCenters(ctx)

			gomega.Expect(costCenters).To(gomega.HaveLen(1))
		})
	})
})
