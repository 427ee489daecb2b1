package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"omniai/internal/domain"
)

func newTestBusiness(t *testing.T, llm *mockLLM) (*BusinessService, domain.Session[domain.Interaction]) {
	t.Helper()
	gen := newTestGenerator(t, llm)
	svc, err := NewBusinessService(newTestSessions[domain.Interaction](t, gen, TitleBusiness), gen)
	require.NoError(t, err)
	sess, err := svc.CreateSession(context.Background(), "owner")
	require.NoError(t, err)
	return svc, sess
}

func ref(sess domain.Session[domain.Interaction]) SessionRef {
	return SessionRef{UserID: sess.UserID, SessionID: sess.ID}
}

func TestNewBusinessService_ValidatesDependencies(t *testing.T) {
	gen := newTestGenerator(t, answers("x"))
	_, err := NewBusinessService(nil, gen)
	require.Error(t, err)
	_, err = NewBusinessService(newTestSessions[domain.Interaction](t, gen, TitleBusiness), nil)
	require.Error(t, err)
}

func TestBusiness_GenerateAds(t *testing.T) {
	llm := answers("HEADLINE: Fresh Coffee").withTitle("Coffee Ad Campaign")
	svc, sess := newTestBusiness(t, llm)
	ctx := context.Background()

	res, err := svc.GenerateAds(ctx, AdRequest{
		SessionRef:     ref(sess),
		ProductName:    "Fresh Coffee",
		TargetAudience: "commuters",
		AdType:         "social",
		KeyFeatures:    []string{"organic", "fast"},
	})
	require.NoError(t, err)
	require.Equal(t, "HEADLINE: Fresh Coffee", res.Content)
	require.Equal(t, "Ad content generated successfully", res.Message)
	require.Equal(t, "Coffee Ad Campaign", res.Title)

	gen := llm.callsFor(defaultGenerationModel)
	require.Len(t, gen, 1)
	require.Equal(t, 2048, gen[0].MaxTokens)
	require.Contains(t, gen[0].Messages[0].Content, "advertising")
	require.Contains(t, gen[0].Messages[1].Content, "- organic")
	require.Contains(t, gen[0].Messages[1].Content, "Tone: professional")

	title := llm.callsFor(defaultTitleModel)
	require.Len(t, title, 1)
	require.Contains(t, title[0].Messages[1].Content, "Ad Generator: {")

	hist, err := svc.History(ctx, sess.ID, "owner")
	require.NoError(t, err)
	require.Len(t, hist.Entries, 1)
	it := hist.Entries[0]
	require.Equal(t, "Ad Generator", it.Tool)
	require.Equal(t, "Fresh Coffee", it.Request["product_name"])
	require.Equal(t, "professional", it.Request["tone"])
	require.NotContains(t, it.Request, "user_id")
	require.NotContains(t, it.Request, "session_id")
	require.Equal(t, "HEADLINE: Fresh Coffee", it.Response["content"])
}

func TestBusiness_SecondCallKeepsTitle(t *testing.T) {
	llm := answers("content").withTitle("First Title")
	svc, sess := newTestBusiness(t, llm)
	ctx := context.Background()
	req := EmailRequest{SessionRef: ref(sess), EmailType: "follow-up", RecipientName: "Sam", Subject: "Next steps"}

	_, err := svc.GenerateEmail(ctx, req)
	require.NoError(t, err)
	llm.withTitle("Second Title")
	res, err := svc.GenerateEmail(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "First Title", res.Title)
	require.Len(t, llm.callsFor(defaultTitleModel), 1)
}

func TestBusiness_ValidationErrors(t *testing.T) {
	svc, sess := newTestBusiness(t, answers("x"))
	ctx := context.Background()

	_, err := svc.GenerateAds(ctx, AdRequest{SessionRef: ref(sess), TargetAudience: "a", AdType: "b"})
	expectError(t, err, ErrorInvalidInput, "missing_product_name")

	_, err = svc.GenerateInvoice(ctx, InvoiceRequest{SessionRef: ref(sess), CompanyName: "Acme", ClientName: "Bob"})
	expectError(t, err, ErrorInvalidInput, "missing_items")

	_, err = svc.GenerateInvoice(ctx, InvoiceRequest{
		SessionRef: ref(sess), CompanyName: "Acme", ClientName: "Bob",
		Items: []InvoiceItem{{Description: "work", Quantity: 0, UnitPrice: 10}},
	})
	expectError(t, err, ErrorInvalidInput, "invalid_item")

	_, err = svc.GenerateInvoice(ctx, InvoiceRequest{
		SessionRef: ref(sess), CompanyName: "Acme", ClientName: "Bob", TaxRate: 150,
		Items: []InvoiceItem{{Description: "work", Quantity: 1, UnitPrice: 10}},
	})
	expectError(t, err, ErrorInvalidInput, "invalid_tax_rate")

	_, err = svc.ProcessCRM(ctx, CRMRequest{SessionRef: ref(sess), Task: "  "})
	expectError(t, err, ErrorInvalidInput, "missing_task")

	_, err = svc.GenerateMenu(ctx, MenuRequest{SessionRef: ref(sess), RestaurantType: "bistro", Cuisine: "french", ItemsCount: 100})
	expectError(t, err, ErrorInvalidInput, "invalid_items_count")

	_, err = svc.GenerateSEO(ctx, SEORequest{SessionRef: ref(sess), TargetKeyword: "go", ContentType: "blog", WordCount: 50})
	expectError(t, err, ErrorInvalidInput, "invalid_word_count")

	_, err = svc.DescribeProduct(ctx, ProductDescriptionRequest{SessionRef: ref(sess), ProductName: "Lamp", Category: "home", Length: "epic"})
	expectError(t, err, ErrorInvalidInput, "invalid_length")
}

func TestBusiness_SessionMustMatchOwner(t *testing.T) {
	svc, sess := newTestBusiness(t, answers("x"))
	_, err := svc.ProcessCRM(context.Background(), CRMRequest{
		SessionRef: SessionRef{UserID: "intruder", SessionID: sess.ID},
		Task:       crmLeadSummary,
	})
	expectError(t, err, ErrorNotFound, "session_not_found")
}

func TestBusiness_InvoiceIncludesTotals(t *testing.T) {
	llm := answers("INVOICE").withTitle("Acme Invoice")
	svc, sess := newTestBusiness(t, llm)

	_, err := svc.GenerateInvoice(context.Background(), InvoiceRequest{
		SessionRef:  ref(sess),
		CompanyName: "Acme",
		ClientName:  "Bob",
		TaxRate:     10,
		Items: []InvoiceItem{
			{Description: "design", Quantity: 2, UnitPrice: 50},
			{Description: "hosting", Quantity: 1, UnitPrice: 20},
		},
	})
	require.NoError(t, err)
	prompt := llm.callsFor(defaultGenerationModel)[0].Messages[1].Content
	require.Contains(t, prompt, "Subtotal: 120.00")
	require.Contains(t, prompt, "Tax (10%): 12.00")
	require.Contains(t, prompt, "Total: 132.00")
}

func TestBusiness_ToolDefaultsAndTokenLimits(t *testing.T) {
	llm := answers("out").withTitle("T")
	svc, sess := newTestBusiness(t, llm)
	ctx := context.Background()

	_, err := svc.GenerateMenu(ctx, MenuRequest{SessionRef: ref(sess), RestaurantType: "bistro", Cuisine: "french"})
	require.NoError(t, err)
	call := llm.lastGeneration(t)
	require.Equal(t, 3000, call.MaxTokens)
	require.Contains(t, call.Messages[1].Content, "Include 10 items in the medium price range.")

	_, err = svc.GenerateSEO(ctx, SEORequest{SessionRef: ref(sess), TargetKeyword: "golang", ContentType: "blog post"})
	require.NoError(t, err)
	call = llm.lastGeneration(t)
	require.Equal(t, 2500, call.MaxTokens)
	require.Contains(t, call.Messages[1].Content, "about 500 words")
	require.Contains(t, call.Messages[1].Content, "meta description")

	noMeta := false
	_, err = svc.GenerateSEO(ctx, SEORequest{SessionRef: ref(sess), TargetKeyword: "golang", ContentType: "blog post", IncludeMeta: &noMeta})
	require.NoError(t, err)
	require.NotContains(t, llm.lastGeneration(t).Messages[1].Content, "meta description")

	res, err := svc.DescribeProduct(ctx, ProductDescriptionRequest{SessionRef: ref(sess), ProductName: "Lamp", Category: "home"})
	require.NoError(t, err)
	require.Equal(t, "Product description generated successfully", res.Message)
	call = llm.lastGeneration(t)
	require.Equal(t, 2000, call.MaxTokens)
	require.True(t, strings.HasPrefix(call.Messages[1].Content, "Write a persuasive product description of about 250 words"))

	res, err = svc.ProcessCRM(ctx, CRMRequest{SessionRef: ref(sess), Task: crmFollowUpSchedule, CustomerData: map[string]any{"name": "Ana"}})
	require.NoError(t, err)
	require.Equal(t, "CRM analysis generated successfully", res.Message)
	require.Contains(t, llm.lastGeneration(t).Messages[1].Content, "- name: Ana")
}

func TestBusiness_UpstreamFailure(t *testing.T) {
	svc, sess := newTestBusiness(t, failing(errors.New("provider down")))
	_, err := svc.GenerateAds(context.Background(), AdRequest{
		SessionRef: ref(sess), ProductName: "p", TargetAudience: "a", AdType: "b",
	})
	expectError(t, err, ErrorUpstream, "generation_error")

	hist, err := svc.History(context.Background(), sess.ID, "owner")
	require.NoError(t, err)
	require.Empty(t, hist.Entries)
}

func TestComputeInvoiceTotals(t *testing.T) {
	got := computeInvoiceTotals([]InvoiceItem{{Quantity: 3, UnitPrice: 10}}, 0)
	require.InDelta(t, 30, got.Subtotal, 1e-9)
	require.InDelta(t, 0, got.Tax, 1e-9)
	require.InDelta(t, 30, got.Total, 1e-9)
}

func (m *mockLLM) lastGeneration(t *testing.T) domain.CompletionRequest {
	t.Helper()
	calls := m.callsFor(defaultGenerationModel)
	require.NotEmpty(t, calls)
	return calls[len(calls)-1]
}
