package printform_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/printform"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Service", func() {
	var (
		repo    *MockRepository
		service *printform.Service
		ctx     context.Context
		editor  *internal.Identity
	)

	BeforeEach(func() {
		repo = NewMockRepository()
		service = printform.NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
		ctx = context.Background()
		editor = &internal.Identity{UserID: 3, Username: "olga", Role: role.Editor, EffectiveRole: role.Editor}
	})

	statusOf := func(err error) int {
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
		return appErr.StatusCode
	}

	Describe("Create", func() {
		It("should store an Invoice form and read it back", func() {
			created, err := service.Create(ctx, printform.CreateFormRequest{Name: "Invoice", Fields: []printform.Field{}}, editor)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).NotTo(BeEmpty())
			Expect(created.CreatedBy).To(Equal("olga"))

			got, err := service.Get(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Invoice"))
			Expect(got.Fields).NotTo(BeNil())
			Expect(got.Fields).To(BeEmpty())
		})

		It("should apply default settings", func() {
			created, err := service.Create(ctx, printform.CreateFormRequest{Name: "Receipt"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Settings).To(Equal(printform.DefaultSettings()))
			Expect(created.Settings.Margins.Left).To(Equal(float64(20)))
			Expect(created.CreatedBy).To(Equal(printform.SystemAuthor))
		})

		It("should require a name", func() {
			_, err := service.Create(ctx, printform.CreateFormRequest{Name: "   "}, editor)
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
			Expect(repo.rows).To(BeEmpty())
		})

		It("should give every form its own id", func() {
			a, err := service.Create(ctx, printform.CreateFormRequest{Name: "A"}, editor)
			Expect(err).NotTo(HaveOccurred())
			b, err := service.Create(ctx, printform.CreateFormRequest{Name: "B"}, editor)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ID).NotTo(Equal(b.ID))
		})
	})

	Describe("Update", func() {
		var form *printform.PrintForm

		BeforeEach(func() {
			var err error
			form, err = service.Create(ctx, printform.CreateFormRequest{
				Name:        "Invoice",
				Description: "Monthly invoice",
				Template:    "<h1>{customer}</h1>",
			}, editor)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should merge only the provided fields", func() {
			name := "Invoice v2"
			updated, err := service.Update(ctx, form.ID, printform.UpdateFormRequest{Name: &name}, editor)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Invoice v2"))
			Expect(updated.Description).To(Equal("Monthly invoice"))
			Expect(updated.Template).To(Equal("<h1>{customer}</h1>"))
			Expect(updated.CreatedAt).To(Equal(form.CreatedAt))
		})

		It("should refuse to blank the name", func() {
			empty := ""
			_, err := service.Update(ctx, form.ID, printform.UpdateFormRequest{Name: &empty}, editor)
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		It("should answer 404 for an unknown form", func() {
			desc := "x"
			_, err := service.Update(ctx, "nope", printform.UpdateFormRequest{Description: &desc}, editor)
			Expect(err).To(MatchError(internal.ErrFormNotFound))
		})
	})

	Describe("Delete", func() {
		It("should answer 404 the second time", func() {
			form, err := service.Create(ctx, printform.CreateFormRequest{Name: "Invoice"}, editor)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, form.ID, editor)).To(Succeed())
			err = service.Delete(ctx, form.ID, editor)
			Expect(statusOf(err)).To(Equal(http.StatusNotFound))
		})
	})

	Describe("documents", func() {
		var form *printform.PrintForm

		BeforeEach(func() {
			var err error
			form, err = service.Create(ctx, printform.CreateFormRequest{
				Name:     "Invoice",
				Template: "Bill to {customer}",
				Fields:   []printform.Field{{Name: "customer", Placeholder: "(customer)"}},
			}, editor)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should render a preview", func() {
			resp, err := service.Preview(ctx, form.ID, map[string]interface{}{"customer": "ACME"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.HTML).To(Equal("Bill to ACME"))
			Expect(resp.Preview).To(ContainSubstring("Invoice"))
		})

		It("should export as pdf by default", func() {
			resp, err := service.Export(ctx, form.ID, printform.DocumentRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Document.Format).To(Equal("pdf"))
			Expect(resp.Document.Filename).To(HaveSuffix(".pdf"))
			Expect(resp.Document.Content).To(Equal("Bill to (customer)"))
		})

		It("should reject unknown export formats", func() {
			_, err := service.Export(ctx, form.ID, printform.DocumentRequest{Format: "exe"})
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		It("should queue a print job", func() {
			resp, err := service.Print(ctx, form.ID, printform.DocumentRequest{Copies: 3, Printer: "office"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.PrintJob.Status).To(Equal("queued"))
			Expect(resp.PrintJob.Copies).To(Equal(3))
			Expect(resp.PrintJob.Printer).To(Equal("office"))
			Expect(resp.PrintJob.ID).NotTo(BeEmpty())
		})

		It("should default to one copy on the default printer", func() {
			resp, err := service.Print(ctx, form.ID, printform.DocumentRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.PrintJob.Copies).To(Equal(1))
			Expect(resp.PrintJob.Printer).To(Equal(printform.DefaultPrinter))
		})

		It("should reject a negative copy count", func() {
			_, err := service.Print(ctx, form.ID, printform.DocumentRequest{Copies: -2})
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})
	})

	It("should surface repository failures as 500", func() {
		repo.shouldFail = true
		repo.failError = errors.New("disk full")

		_, err := service.List(ctx)
		Expect(statusOf(err)).To(Equal(http.StatusInternalServerError))
	})
})
