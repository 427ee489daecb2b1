package usecase

import (
	"context"
	"errors"
	"strings"

	"omniai/internal/domain"
)

const (
	crmLeadSummary      = "lead_summary"
	crmFollowUpSchedule = "follow_up_schedule"
	crmCustomerAnalysis = "customer_analysis"

	defaultMenuItems    = 10
	maxMenuItems        = 50
	defaultSEOWordCount = 500
	minSEOWordCount     = 100
	maxSEOWordCount     = 5000
)

var productLengthWords = map[string]int{
	"short":  100,
	"medium": 250,
	"long":   500,
}

type businessTool struct {
	name      string
	specialty string
	what      string
	maxTokens int
}

var (
	toolAds                = businessTool{"Ad Generator", "advertising and copywriting", "Ad content", 2048}
	toolInvoice            = businessTool{"Invoice Generator", "invoicing and billing", "Invoice", 2048}
	toolEmail              = businessTool{"Email Generator", "business communication", "Email", 2048}
	toolCRM                = businessTool{"CRM Tools", "customer relationship management", "CRM analysis", 2048}
	toolMenu               = businessTool{"Menu Generator", "restaurant menu design", "Menu", 3000}
	toolSEO                = businessTool{"SEO Tools", "search engine optimization", "SEO content", 2500}
	toolProductDescription = businessTool{"Product Description", "e-commerce product copy", "Product description", 2000}
)

type AdRequest struct {
	SessionRef
	ProductName    string   `json:"product_name"`
	TargetAudience string   `json:"target_audience"`
	AdType         string   `json:"ad_type"`
	KeyFeatures    []string `json:"key_features"`
	Tone           string   `json:"tone"`
}

type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type InvoiceRequest struct {
	SessionRef
	CompanyName string        `json:"company_name"`
	ClientName  string        `json:"client_name"`
	ClientEmail string        `json:"client_email"`
	Items       []InvoiceItem `json:"items"`
	TaxRate     float64       `json:"tax_rate"`
	Notes       string        `json:"notes"`
}

type EmailRequest struct {
	SessionRef
	EmailType     string   `json:"email_type"`
	RecipientName string   `json:"recipient_name"`
	Subject       string   `json:"subject"`
	KeyPoints     []string `json:"key_points"`
	Tone          string   `json:"tone"`
}

type CRMRequest struct {
	SessionRef
	Task         string         `json:"task"`
	CustomerData map[string]any `json:"customer_data"`
}

type MenuRequest struct {
	SessionRef
	RestaurantType string `json:"restaurant_type"`
	Cuisine        string `json:"cuisine"`
	ItemsCount     int    `json:"items_count"`
	PriceRange     string `json:"price_range"`
}

type SEORequest struct {
	SessionRef
	TargetKeyword string `json:"target_keyword"`
	ContentType   string `json:"content_type"`
	WordCount     int    `json:"word_count"`
	IncludeMeta   *bool  `json:"include_meta"`
}

func (r SEORequest) includeMeta() bool {
	return r.IncludeMeta == nil || *r.IncludeMeta
}

type ProductDescriptionRequest struct {
	SessionRef
	ProductName    string   `json:"product_name"`
	Category       string   `json:"category"`
	Features       []string `json:"features"`
	TargetAudience string   `json:"target_audience"`
	Tone           string   `json:"tone"`
	Length         string   `json:"length"`
}

// BusinessResult is the outcome of one business tool call. Title is the
// session title after the call.
type BusinessResult struct {
	Message string `json:"-"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type invoiceTotals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

func computeInvoiceTotals(items []InvoiceItem, taxRate float64) invoiceTotals {
	var t invoiceTotals
	for _, it := range items {
		t.Subtotal += it.Quantity * it.UnitPrice
	}
	t.Tax = t.Subtotal * taxRate / 100
	t.Total = t.Subtotal + t.Tax
	return t
}

type BusinessService struct {
	sessions *Sessions[domain.Interaction]
	gen      *Generator
}

func NewBusinessService(sessions *Sessions[domain.Interaction], gen *Generator) (*BusinessService, error) {
	if sessions == nil {
		return nil, errors.New("usecase: business sessions must not be nil")
	}
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	return &BusinessService{sessions: sessions, gen: gen}, nil
}

func (s *BusinessService) CreateSession(ctx context.Context, userID string) (domain.Session[domain.Interaction], error) {
	return s.sessions.Create(ctx, userID)
}

func (s *BusinessService) History(ctx context.Context, sessionID, userID string) (domain.Session[domain.Interaction], error) {
	return s.sessions.Get(ctx, sessionID, userID)
}

func (s *BusinessService) DeleteSession(ctx context.Context, sessionID, userID string) error {
	return s.sessions.Delete(ctx, sessionID, userID)
}

func (s *BusinessService) ListSessions(ctx context.Context, userID string) ([]domain.SessionSummary, error) {
	return s.sessions.List(ctx, userID)
}

func (s *BusinessService) GenerateAds(ctx context.Context, in AdRequest) (BusinessResult, error) {
	in.Tone = defaultString(in.Tone, "professional")
	if err := requireFields(
		field{"product_name", in.ProductName},
		field{"target_audience", in.TargetAudience},
		field{"ad_type", in.AdType},
	); err != nil {
		return BusinessResult{}, err
	}
	return s.run(ctx, in.SessionRef, toolAds, in, adPrompt(in))
}

func (s *BusinessService) GenerateInvoice(ctx context.Context, in InvoiceRequest) (BusinessResult, error) {
	if err := requireFields(
		field{"company_name", in.CompanyName},
		field{"client_name", in.ClientName},
	); err != nil {
		return BusinessResult{}, err
	}
	if len(in.Items) == 0 {
		return BusinessResult{}, invalidInput("missing_items", "items must not be empty")
	}
	if in.TaxRate < 0 || in.TaxRate > 100 {
		return BusinessResult{}, invalidInput("invalid_tax_rate", "tax_rate must be between 0 and 100")
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.Description) == "" || it.Quantity <= 0 || it.UnitPrice < 0 {
			return BusinessResult{}, invalidInput("invalid_item", "each item needs a description, a positive quantity and a non-negative unit_price")
		}
	}
	return s.run(ctx, in.SessionRef, toolInvoice, in, invoicePrompt(in, computeInvoiceTotals(in.Items, in.TaxRate)))
}

func (s *BusinessService) GenerateEmail(ctx context.Context, in EmailRequest) (BusinessResult, error) {
	in.Tone = defaultString(in.Tone, "professional")
	if err := requireFields(
		field{"email_type", in.EmailType},
		field{"recipient_name", in.RecipientName},
		field{"subject", in.Subject},
	); err != nil {
		return BusinessResult{}, err
	}
	return s.run(ctx, in.SessionRef, toolEmail, in, emailPrompt(in))
}

func (s *BusinessService) ProcessCRM(ctx context.Context, in CRMRequest) (BusinessResult, error) {
	in.Task = strings.TrimSpace(in.Task)
	if err := requireFields(field{"task", in.Task}); err != nil {
		return BusinessResult{}, err
	}
	return s.run(ctx, in.SessionRef, toolCRM, in, crmPrompt(in))
}

func (s *BusinessService) GenerateMenu(ctx context.Context, in MenuRequest) (BusinessResult, error) {
	in.PriceRange = defaultString(in.PriceRange, "medium")
	if in.ItemsCount == 0 {
		in.ItemsCount = defaultMenuItems
	}
	if err := requireFields(
		field{"restaurant_type", in.RestaurantType},
		field{"cuisine", in.Cuisine},
	); err != nil {
		return BusinessResult{}, err
	}
	if in.ItemsCount < 1 || in.ItemsCount > maxMenuItems {
		return BusinessResult{}, invalidInput("invalid_items_count", "items_count must be between 1 and 50")
	}
	return s.run(ctx, in.SessionRef, toolMenu, in, menuPrompt(in))
}

func (s *BusinessService) GenerateSEO(ctx context.Context, in SEORequest) (BusinessResult, error) {
	if in.WordCount == 0 {
		in.WordCount = defaultSEOWordCount
	}
	if err := requireFields(
		field{"target_keyword", in.TargetKeyword},
		field{"content_type", in.ContentType},
	); err != nil {
		return BusinessResult{}, err
	}
	if in.WordCount < minSEOWordCount || in.WordCount > maxSEOWordCount {
		return BusinessResult{}, invalidInput("invalid_word_count", "word_count must be between 100 and 5000")
	}
	return s.run(ctx, in.SessionRef, toolSEO, in, seoPrompt(in))
}

func (s *BusinessService) DescribeProduct(ctx context.Context, in ProductDescriptionRequest) (BusinessResult, error) {
	in.Tone = defaultString(in.Tone, "persuasive")
	in.Length = defaultString(in.Length, "medium")
	if err := requireFields(
		field{"product_name", in.ProductName},
		field{"category", in.Category},
	); err != nil {
		return BusinessResult{}, err
	}
	if _, ok := productLengthWords[in.Length]; !ok {
		return BusinessResult{}, invalidInput("invalid_length", "length must be short, medium or long")
	}
	return s.run(ctx, in.SessionRef, toolProductDescription, in, productDescriptionPrompt(in))
}

func (s *BusinessService) run(ctx context.Context, ref SessionRef, tool businessTool, req any, prompt string) (BusinessResult, error) {
	sess, err := s.sessions.Get(ctx, ref.SessionID, ref.UserID)
	if err != nil {
		return BusinessResult{}, err
	}
	content, err := s.gen.Complete(ctx, businessSystemPrompt(tool.specialty), prompt, tool.maxTokens)
	if err != nil {
		return BusinessResult{}, upstreamError("generation_error", err)
	}
	updated, err := recordInteraction(ctx, s.sessions, sess, tool.name, req, map[string]any{"content": content}, func(doc string) string {
		return tool.name + ": " + truncateRunes(doc, 100)
	})
	if err != nil {
		return BusinessResult{}, err
	}
	return BusinessResult{
		Message: tool.what + " generated successfully",
		Title:   updated.Title,
		Content: content,
	}, nil
}
