package usecase

import (
	"fmt"
	"sort"
	"strings"

	"omniai/internal/domain"
)

func titleSystemPrompt() string {
	return "Create a concise title of at most five words for the conversation. " +
		"Return only the title without quotes."
}

func chatSystemPrompt() string {
	return strings.Join([]string{
		"You are a helpful, knowledgeable assistant.",
		"Answer clearly and concisely.",
		"When the user shares an image, describe what is relevant to their question.",
	}, "\n")
}

// buildChatMessages turns stored chat history into provider messages. Only
// user turns carry images.
func buildChatMessages(history []domain.Message) []domain.ChatMessage {
	messages := []domain.ChatMessage{{Role: domain.RoleSystem, Content: chatSystemPrompt()}}
	for _, m := range history {
		cm := domain.ChatMessage{Role: m.Role, Content: m.Content}
		if m.Role == domain.RoleUser && m.ImageURL != "" {
			cm.Images = []string{m.ImageURL}
		}
		messages = append(messages, cm)
	}
	return messages
}

// ---------------------------------------------------------------------------
// Business
// ---------------------------------------------------------------------------

func businessSystemPrompt(specialty string) string {
	return fmt.Sprintf("You are a professional business AI assistant specializing in %s.", specialty)
}

func adPrompt(in AdRequest) string {
	return strings.Join([]string{
		fmt.Sprintf("Create a %s advertisement for %s.", in.AdType, in.ProductName),
		"Target audience: " + in.TargetAudience,
		"Key features:",
		bulletList(in.KeyFeatures),
		"Tone: " + in.Tone,
		"",
		"Include a headline, body copy and a call to action.",
	}, "\n")
}

func invoicePrompt(in InvoiceRequest, t invoiceTotals) string {
	lines := []string{
		"Create a professional invoice.",
		"From: " + in.CompanyName,
		"Bill to: " + in.ClientName,
	}
	if in.ClientEmail != "" {
		lines = append(lines, "Client email: "+in.ClientEmail)
	}
	lines = append(lines, "Items:")
	for _, it := range in.Items {
		lines = append(lines, fmt.Sprintf("- %s: %g x %.2f = %.2f", it.Description, it.Quantity, it.UnitPrice, it.Quantity*it.UnitPrice))
	}
	lines = append(lines,
		fmt.Sprintf("Subtotal: %.2f", t.Subtotal),
		fmt.Sprintf("Tax (%g%%): %.2f", in.TaxRate, t.Tax),
		fmt.Sprintf("Total: %.2f", t.Total),
	)
	if in.Notes != "" {
		lines = append(lines, "Notes: "+in.Notes)
	}
	lines = append(lines, "", "Format it with an invoice number, issue date, due date and payment terms.")
	return strings.Join(lines, "\n")
}

func emailPrompt(in EmailRequest) string {
	return strings.Join([]string{
		fmt.Sprintf("Write a %s email to %s.", in.EmailType, in.RecipientName),
		"Subject: " + in.Subject,
		"Key points:",
		bulletList(in.KeyPoints),
		"Tone: " + in.Tone,
	}, "\n")
}

func crmPrompt(in CRMRequest) string {
	var instruction string
	switch in.Task {
	case crmLeadSummary:
		instruction = "Summarize this lead and rate its quality."
	case crmFollowUpSchedule:
		instruction = "Propose a follow-up schedule with dates and channels for this customer."
	case crmCustomerAnalysis:
		instruction = "Analyze this customer and recommend next actions."
	default:
		instruction = in.Task
	}
	return strings.Join([]string{
		instruction,
		"",
		"Customer data:",
		keyValueList(in.CustomerData),
	}, "\n")
}

func menuPrompt(in MenuRequest) string {
	return strings.Join([]string{
		fmt.Sprintf("Create a menu for a %s restaurant serving %s cuisine.", in.RestaurantType, in.Cuisine),
		fmt.Sprintf("Include %d items in the %s price range.", in.ItemsCount, in.PriceRange),
		"Group the items into sections and give each a short description and a price.",
	}, "\n")
}

func seoPrompt(in SEORequest) string {
	lines := []string{
		fmt.Sprintf("Write a %s of about %d words optimized for the keyword %q.", in.ContentType, in.WordCount, in.TargetKeyword),
		"Use headings and place the keyword naturally.",
	}
	if in.includeMeta() {
		lines = append(lines, "Start with a meta title and a meta description.")
	}
	return strings.Join(lines, "\n")
}

func productDescriptionPrompt(in ProductDescriptionRequest) string {
	lines := []string{
		fmt.Sprintf("Write a %s product description of about %d words for %s (%s).",
			in.Tone, productLengthWords[in.Length], in.ProductName, in.Category),
	}
	if in.TargetAudience != "" {
		lines = append(lines, "Target audience: "+in.TargetAudience)
	}
	if len(in.Features) > 0 {
		lines = append(lines, "Features:", bulletList(in.Features))
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// Social
// ---------------------------------------------------------------------------

func socialSystemPrompt(platform string) string {
	return fmt.Sprintf("You are a social media expert who writes content that performs well on %s.", platform)
}

func captionPrompt(in CaptionRequest) string {
	return strings.Join([]string{
		fmt.Sprintf("Write a %s, %s caption for %s about: %s", in.Length, in.Tone, in.Platform, in.Topic),
		"Return only the caption.",
	}, "\n")
}

func hashtagsPrompt(in HashtagsRequest) string {
	return fmt.Sprintf("Generate %d relevant hashtags for a %s post about: %s\nReturn one hashtag per line and nothing else.",
		in.Count, in.Platform, in.Topic)
}

func contentIdeasPrompt(in ContentIdeasRequest) string {
	return fmt.Sprintf("Suggest %d content ideas for a %s account in the %s niche.\nReturn one idea per line and nothing else.",
		in.Count, in.Platform, in.Niche)
}

func videoTitlePrompt(in VideoTitleRequest) string {
	return fmt.Sprintf("Write one %s video title for %s about: %s\nReturn only the title.", in.Style, in.Platform, in.Topic)
}

func videoDescriptionPrompt(in VideoDescriptionRequest) string {
	lines := []string{fmt.Sprintf("Write a %s video description for %s about: %s", in.Length, in.Platform, in.Topic)}
	if in.VideoTitle != "" {
		lines = append(lines, "Video title: "+in.VideoTitle)
	}
	lines = append(lines, "Return only the description.")
	return strings.Join(lines, "\n")
}

func videoTagsPrompt(in VideoTagsRequest) string {
	return fmt.Sprintf("Generate %d search tags for a %s video about: %s\nReturn one tag per line without # and nothing else.",
		in.Count, in.Platform, in.Topic)
}

// ---------------------------------------------------------------------------
// Agents
// ---------------------------------------------------------------------------

func agentSystemPrompt(a AgentType) string {
	return fmt.Sprintf("You are an expert %s assistant.", a.Name)
}

func agentPrompt(a AgentType, input string) string {
	focus := a.Context
	if input != "" {
		focus = input
	}
	return strings.Join([]string{
		fmt.Sprintf("As a %s AI agent, provide %d actionable suggestions for %s.", a.Name, agentSuggestionCount, focus),
		"Format the answer as a numbered list with one suggestion per line.",
	}, "\n")
}

// ---------------------------------------------------------------------------
// Group chat
// ---------------------------------------------------------------------------

func groupSystemPrompt(groupType string) string {
	return fmt.Sprintf("You are a helpful assistant in a %s group chat. Keep replies short and address the group.", groupType)
}

func buildGroupMessages(groupType string, history []domain.GroupMessage) []domain.ChatMessage {
	messages := []domain.ChatMessage{{Role: domain.RoleSystem, Content: groupSystemPrompt(groupType)}}
	for _, m := range history {
		if m.IsAI {
			messages = append(messages, domain.ChatMessage{Role: domain.RoleAssistant, Content: m.Content})
			continue
		}
		messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: m.UserID + ": " + m.Content})
	}
	return messages
}

// ---------------------------------------------------------------------------
// Global language
// ---------------------------------------------------------------------------

func languageSystemPrompt(target string, concise bool) string {
	lines := []string{
		"You are a friendly multilingual conversation partner.",
		fmt.Sprintf("Always reply in %s, whatever language the user writes in.", target),
	}
	if concise {
		lines = append(lines, "Your reply will be spoken aloud, so keep it to two or three sentences.")
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// Student
// ---------------------------------------------------------------------------

func homeworkSystemPrompt(subject string) string {
	return fmt.Sprintf("You are an expert %s tutor. Explain the reasoning so the student learns, not just the answer.", subject)
}

func essaySystemPrompt() string {
	return "You are an experienced writing coach who produces well structured essays."
}

func essayPrompt(in EssayRequest) string {
	return strings.Join([]string{
		fmt.Sprintf("Write an essay of about %d words on: %s", essayLengthWords[in.Length], in.Topic),
		"Tone: " + in.Tone,
		"Include an introduction, body paragraphs and a conclusion.",
	}, "\n")
}

func mathSystemPrompt() string {
	return "You are a patient math teacher. Solve problems step by step and state the final answer clearly."
}

func studySystemPrompt(topic string) string {
	return fmt.Sprintf("You are a study assistant helping a student learn %s. Ask a follow-up question to check understanding.", topic)
}

func flashcardsSystemPrompt() string {
	return "You create effective study flashcards."
}

func flashcardsPrompt(in FlashcardsRequest) string {
	format := "question and answer pairs, formatted as Q: ... A: ..."
	if in.Format == flashcardsCloze {
		format = "cloze deletions, marking the hidden term as [...] followed by the answer"
	}
	return fmt.Sprintf("Create flashcards as %s from the following content:\n\n%s", format, in.Content)
}

func summarySystemPrompt() string {
	return "You summarize study material accurately without adding facts."
}

func summaryPrompt(in SummaryRequest) string {
	var style string
	switch in.Detail {
	case summaryConcise:
		style = "a concise summary of a few sentences"
	case summaryBulletPoints:
		style = "a bullet point summary of the key ideas"
	default:
		style = "a detailed summary covering every main idea"
	}
	return fmt.Sprintf("Write %s of the following content:\n\n%s", style, in.Content)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func bulletList(items []string) string {
	var b strings.Builder
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- " + it)
	}
	if b.Len() == 0 {
		return "- none given"
	}
	return b.String()
}

func keyValueList(m map[string]any) string {
	if len(m) == 0 {
		return "- none given"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("- %s: %v", k, m[k]))
	}
	return strings.Join(lines, "\n")
}
