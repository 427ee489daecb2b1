package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"omniai/internal/domain"
)

const (
	pkPrefixSession   = "SESSION#"
	pkPrefixGroup     = "GROUP#"
	skMeta            = "META#"
	skPrefixEntry     = "ENTRY#"
	skPrefixMsg       = "MSG#"
	defaultOwnerIndex = "owner-index"

	// sortTimeLayout is RFC3339 with fixed-width nanoseconds, so sort keys
	// compare in time order.
	sortTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

	// maxTransactItems is DynamoDB's per-transaction item limit.
	maxTransactItems = 100
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client wraps a single DynamoDB table holding every feature collection and
// the group chat rooms.
//
// Each session is a META# item plus one ENTRY# item per history entry under
// the same partition. Groups use the same shape with MSG# items.
type Client struct {
	api        dynamodbAPI
	tableName  string
	ownerIndex string
	ttl        time.Duration
}

type Option func(*Client)

// WithOwnerIndex overrides the GSI used to list sessions by owner. The index
// is keyed on owner_key with updated_at as sort key. Only META# items carry
// owner_key.
func WithOwnerIndex(name string) Option {
	return func(c *Client) {
		if name = strings.TrimSpace(name); name != "" {
			c.ownerIndex = name
		}
	}
}

// WithTTL makes every write push the item's ttl attribute forward by d.
func WithTTL(d time.Duration) Option {
	return func(c *Client) {
		c.ttl = d
	}
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	c := &Client{api: api, tableName: tableName, ownerIndex: defaultOwnerIndex}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func sessionPK(collection domain.Collection, sessionID string) string {
	return pkPrefixSession + string(collection) + "#" + sessionID
}

func ownerKey(collection domain.Collection, userID string) string {
	return string(collection) + "#" + userID
}

// itemSK returns the sort key of the seq-th item written at ts. The random
// suffix keeps keys unique when two writes share a timestamp.
func itemSK(prefix string, ts time.Time, seq int) string {
	return fmt.Sprintf("%s%s#%03d#%s", prefix, ts.UTC().Format(sortTimeLayout), seq, uuid.NewString()[:8])
}

func (c *Client) key(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: skMeta},
	}
}

// ttlValue returns the expiry for an item written at now, or 0 when TTL is off.
func (c *Client) ttlValue(now time.Time) int64 {
	if c.ttl <= 0 {
		return 0
	}
	return now.Add(c.ttl).Unix()
}

// sessionMeta is the stored META# item of a session.
type sessionMeta struct {
	PK         string    `dynamodbav:"PK"`
	SK         string    `dynamodbav:"SK"`
	Collection string    `dynamodbav:"collection"`
	OwnerKey   string    `dynamodbav:"owner_key"`
	SessionID  string    `dynamodbav:"session_id"`
	UserID     string    `dynamodbav:"user_id"`
	Title      string    `dynamodbav:"title"`
	EntryCount int       `dynamodbav:"entry_count"`
	CreatedAt  time.Time `dynamodbav:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
	TTL        int64     `dynamodbav:"ttl,omitempty"`
}

// entryItem is one history entry, or one group message, stored under its
// parent's partition.
type entryItem[E any] struct {
	PK    string `dynamodbav:"PK"`
	SK    string `dynamodbav:"SK"`
	Entry E      `dynamodbav:"entry"`
	TTL   int64  `dynamodbav:"ttl,omitempty"`
}

func withEntries[E any](m sessionMeta, entries []E) domain.Session[E] {
	return domain.Session[E]{
		ID:        m.SessionID,
		UserID:    m.UserID,
		Title:     m.Title,
		Entries:   entries,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// entryPuts builds one conditional Put per entry, in order.
func entryPuts[E any](table, pk, prefix string, ts time.Time, entries []E, ttl int64) ([]types.TransactWriteItem, error) {
	puts := make([]types.TransactWriteItem, 0, len(entries))
	for i, e := range entries {
		item, err := attributevalue.MarshalMap(entryItem[E]{PK: pk, SK: itemSK(prefix, ts, i), Entry: e, TTL: ttl})
		if err != nil {
			return nil, err
		}
		puts = append(puts, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(SK)"),
			},
		})
	}
	return puts, nil
}

func (c *Client) prefixQuery(pk, prefix string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pk},
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
		ConsistentRead:   aws.Bool(true),
		ScanIndexForward: aws.Bool(true),
	}
}

// queryEntries reads every item under pk with the given sort key prefix,
// oldest first.
func queryEntries[E any](ctx context.Context, c *Client, pk, prefix string) ([]E, error) {
	p := dynamodb.NewQueryPaginator(c.api, c.prefixQuery(pk, prefix))
	entries := make([]E, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var item entryItem[E]
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, err
			}
			entries = append(entries, item.Entry)
		}
	}
	return entries, nil
}

// purge deletes every item under pk with the given sort key prefix.
func (c *Client) purge(ctx context.Context, pk, prefix string) error {
	in := c.prefixQuery(pk, prefix)
	in.ProjectionExpression = aws.String("PK, SK")
	p := dynamodb.NewQueryPaginator(c.api, in)

	var batch []types.TransactWriteItem
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: batch})
		batch = nil
		return err
	}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, raw := range page.Items {
			batch = append(batch, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(c.tableName),
					Key:       map[string]types.AttributeValue{"PK": raw["PK"], "SK": raw["SK"]},
				},
			})
			if len(batch) == maxTransactItems {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

// SessionTable is the Store of one collection inside the shared table.
type SessionTable[E any] struct {
	c          *Client
	collection domain.Collection
}

func NewSessionTable[E any](c *Client, collection domain.Collection) (*SessionTable[E], error) {
	if c == nil {
		return nil, errors.New("repository: client must not be nil")
	}
	if strings.TrimSpace(string(collection)) == "" {
		return nil, errors.New("repository: collection must not be empty")
	}
	return &SessionTable[E]{c: c, collection: collection}, nil
}

// Create writes a new session. It fails if the id is already taken.
func (t *SessionTable[E]) Create(ctx context.Context, s domain.Session[E]) error {
	if s.ID == "" || s.UserID == "" {
		return errors.New("repository: Create: session id and user id are required")
	}
	if len(s.Entries) >= maxTransactItems {
		return fmt.Errorf("repository: Create: at most %d entries per write", maxTransactItems-1)
	}
	pk := sessionPK(t.collection, s.ID)
	ttl := t.c.ttlValue(s.UpdatedAt)
	meta, err := attributevalue.MarshalMap(sessionMeta{
		PK:         pk,
		SK:         skMeta,
		Collection: string(t.collection),
		OwnerKey:   ownerKey(t.collection, s.UserID),
		SessionID:  s.ID,
		UserID:     s.UserID,
		Title:      s.Title,
		EntryCount: len(s.Entries),
		CreatedAt:  s.CreatedAt.UTC(),
		UpdatedAt:  s.UpdatedAt.UTC(),
		TTL:        ttl,
	})
	if err != nil {
		return fmt.Errorf("repository: Create marshal: %w", err)
	}

	if len(s.Entries) == 0 {
		_, err = t.c.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(t.c.tableName),
			Item:                meta,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		if err != nil {
			return fmt.Errorf("repository: Create: %w", err)
		}
		return nil
	}

	puts, err := entryPuts(t.c.tableName, pk, skPrefixEntry, s.CreatedAt, s.Entries, ttl)
	if err != nil {
		return fmt.Errorf("repository: Create marshal entry: %w", err)
	}
	items := append([]types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(t.c.tableName),
			Item:                meta,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	}}, puts...)
	if _, err := t.c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return fmt.Errorf("repository: Create: %w", err)
	}
	return nil
}

// Get returns the session if it exists and belongs to userID.
func (t *SessionTable[E]) Get(ctx context.Context, sessionID, userID string) (domain.Session[E], error) {
	pk := sessionPK(t.collection, sessionID)
	out, err := t.c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.c.tableName),
		Key:            t.c.key(pk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Session[E]{}, fmt.Errorf("repository: Get get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Session[E]{}, fmt.Errorf("repository: Get %s: %w", sessionID, ErrNotFound)
	}

	var meta sessionMeta
	if err := attributevalue.UnmarshalMap(out.Item, &meta); err != nil {
		return domain.Session[E]{}, fmt.Errorf("repository: Get unmarshal: %w", err)
	}
	if meta.UserID != userID {
		return domain.Session[E]{}, fmt.Errorf("repository: Get %s: %w", sessionID, ErrNotFound)
	}

	entries, err := queryEntries[E](ctx, t.c, pk, skPrefixEntry)
	if err != nil {
		return domain.Session[E]{}, fmt.Errorf("repository: Get entries: %w", err)
	}
	return withEntries(meta, entries), nil
}

// Append writes the new entries as their own items and updates META in the
// same transaction, then returns the updated session.
func (t *SessionTable[E]) Append(ctx context.Context, sessionID, userID string, in AppendInput[E]) (domain.Session[E], error) {
	if len(in.Entries) >= maxTransactItems {
		return domain.Session[E]{}, fmt.Errorf("repository: Append: at most %d entries per write", maxTransactItems-1)
	}
	now := in.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	updated, err := attributevalue.Marshal(now)
	if err != nil {
		return domain.Session[E]{}, fmt.Errorf("repository: Append marshal timestamp: %w", err)
	}

	set := []string{"#updated = :now"}
	names := map[string]string{
		"#updated": "updated_at",
		"#owner":   "user_id",
		"#count":   "entry_count",
	}
	values := map[string]types.AttributeValue{
		":now":   updated,
		":owner": &types.AttributeValueMemberS{Value: userID},
		":n":     &types.AttributeValueMemberN{Value: strconv.Itoa(len(in.Entries))},
	}
	if in.Title != "" {
		set = append(set, "#title = :title")
		names["#title"] = "title"
		values[":title"] = &types.AttributeValueMemberS{Value: in.Title}
	}
	ttl := t.c.ttlValue(now)
	if ttl > 0 {
		set = append(set, "#ttl = :ttl")
		names["#ttl"] = "ttl"
		values[":ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)}
	}

	pk := sessionPK(t.collection, sessionID)
	puts, err := entryPuts(t.c.tableName, pk, skPrefixEntry, now, in.Entries, ttl)
	if err != nil {
		return domain.Session[E]{}, fmt.Errorf("repository: Append marshal entry: %w", err)
	}
	items := append([]types.TransactWriteItem{{
		Update: &types.Update{
			TableName:                 aws.String(t.c.tableName),
			Key:                       t.c.key(pk),
			UpdateExpression:          aws.String("SET " + strings.Join(set, ", ") + " ADD #count :n"),
			ConditionExpression:       aws.String("attribute_exists(PK) AND #owner = :owner"),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		},
	}}, puts...)

	if _, err := t.c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		if isConditionFailed(err) {
			return domain.Session[E]{}, fmt.Errorf("repository: Append %s: %w", sessionID, ErrNotFound)
		}
		return domain.Session[E]{}, fmt.Errorf("repository: Append: %w", err)
	}
	return t.Get(ctx, sessionID, userID)
}

// Delete removes the session if it belongs to userID, then its entries.
func (t *SessionTable[E]) Delete(ctx context.Context, sessionID, userID string) error {
	pk := sessionPK(t.collection, sessionID)
	_, err := t.c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(t.c.tableName),
		Key:                      t.c.key(pk),
		ConditionExpression:      aws.String("attribute_exists(PK) AND #owner = :owner"),
		ExpressionAttributeNames: map[string]string{"#owner": "user_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("repository: Delete %s: %w", sessionID, ErrNotFound)
		}
		return fmt.Errorf("repository: Delete: %w", err)
	}
	if err := t.c.purge(ctx, pk, skPrefixEntry); err != nil {
		return fmt.Errorf("repository: Delete entries: %w", err)
	}
	return nil
}

// List returns the owner's sessions, most recently updated first. Only the
// summary attributes of META# items are read.
func (t *SessionTable[E]) List(ctx context.Context, userID string) ([]domain.SessionSummary, error) {
	p := dynamodb.NewQueryPaginator(t.c.api, &dynamodb.QueryInput{
		TableName:              aws.String(t.c.tableName),
		IndexName:              aws.String(t.c.ownerIndex),
		KeyConditionExpression: aws.String("#ok = :ok"),
		ProjectionExpression:   aws.String("#sid, #title, #count, #created, #updated"),
		ExpressionAttributeNames: map[string]string{
			"#ok":      "owner_key",
			"#sid":     "session_id",
			"#title":   "title",
			"#count":   "entry_count",
			"#created": "created_at",
			"#updated": "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ok": &types.AttributeValueMemberS{Value: ownerKey(t.collection, userID)},
		},
		ScanIndexForward: aws.Bool(false),
	})

	var summaries []domain.SessionSummary
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("repository: List query: %w", err)
		}
		for _, raw := range page.Items {
			var meta sessionMeta
			if err := attributevalue.UnmarshalMap(raw, &meta); err != nil {
				return nil, fmt.Errorf("repository: List unmarshal: %w", err)
			}
			summaries = append(summaries, domain.SessionSummary{
				ID:         meta.SessionID,
				Title:      meta.Title,
				EntryCount: meta.EntryCount,
				CreatedAt:  meta.CreatedAt,
				UpdatedAt:  meta.UpdatedAt,
			})
		}
	}
	sortSummaries(summaries)
	return summaries, nil
}

func sortSummaries(s []domain.SessionSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].UpdatedAt.After(s[j].UpdatedAt)
	})
}

// isConditionFailed reports whether the META# condition failed. In a
// transaction the META# write is always the first item.
func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) && len(tce.CancellationReasons) > 0 {
		return aws.ToString(tce.CancellationReasons[0].Code) == "ConditionalCheckFailed"
	}
	return false
}
