package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"omniai/internal/domain"
)

// Default titles of freshly created sessions, replaced on first interaction
// where the feature generates titles.
const (
	TitleChat           = "New Chat"
	TitleTempChat       = "Temporary Chat"
	TitleBusiness       = "New Business Session"
	TitleSocial         = "New Social Session"
	TitleAgents         = "New Agents Session"
	TitleGroupChat      = "Group Chat Session"
	TitleGlobalLanguage = "New Language Session"
	TitleStudent        = "New Study Session"
)

// recordInteraction stores one tool call on an interaction session. seed
// receives the request document as JSON and returns the title seed.
func recordInteraction(
	ctx context.Context,
	sessions *Sessions[domain.Interaction],
	sess domain.Session[domain.Interaction],
	tool string,
	req any,
	resp map[string]any,
	seed func(doc string) string,
) (domain.Session[domain.Interaction], error) {
	doc, raw, err := toDocument(req)
	if err != nil {
		return domain.Session[domain.Interaction]{}, newError(ErrorInternal, "request_encode_error", err)
	}
	return sessions.Record(ctx, sess, seed(raw), domain.Interaction{
		Tool:      tool,
		Request:   doc,
		Response:  resp,
		Timestamp: now(),
	})
}

// toDocument converts a request struct to a generic document. The session
// reference is dropped since the document is stored inside that session.
func toDocument(req any) (map[string]any, string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("usecase: encode request: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, "", fmt.Errorf("usecase: decode request: %w", err)
	}
	delete(doc, "user_id")
	delete(doc, "session_id")
	b, err = json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("usecase: encode request: %w", err)
	}
	return doc, string(b), nil
}

type field struct {
	name  string
	value string
}

// requireFields fails with INVALID_INPUT on the first blank field.
func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return invalidInput("missing_"+f.name, f.name+" is required")
		}
	}
	return nil
}

func defaultString(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
