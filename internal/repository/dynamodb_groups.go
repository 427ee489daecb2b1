package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"omniai/internal/domain"
)

// groupMeta is the META# item of a group. Messages are MSG# items under the
// same partition.
type groupMeta struct {
	PK        string    `dynamodbav:"PK"`
	SK        string    `dynamodbav:"SK"`
	GroupID   string    `dynamodbav:"group_id"`
	Name      string    `dynamodbav:"name"`
	Type      string    `dynamodbav:"type"`
	CreatorID string    `dynamodbav:"creator_id"`
	Members   []string  `dynamodbav:"members,stringset"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

func (m groupMeta) group(messages []domain.GroupMessage) domain.Group {
	return domain.Group{
		ID:        m.GroupID,
		Name:      m.Name,
		Type:      m.Type,
		CreatorID: m.CreatorID,
		Members:   m.Members,
		Messages:  messages,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func groupPK(groupID string) string {
	return pkPrefixGroup + groupID
}

// CreateGroup writes a new group. Members must be non-empty.
func (c *Client) CreateGroup(ctx context.Context, g domain.Group) error {
	if g.ID == "" || len(g.Members) == 0 {
		return errors.New("repository: CreateGroup: group id and members are required")
	}
	if len(g.Messages) >= maxTransactItems {
		return fmt.Errorf("repository: CreateGroup: at most %d messages per write", maxTransactItems-1)
	}
	pk := groupPK(g.ID)
	meta, err := attributevalue.MarshalMap(groupMeta{
		PK:        pk,
		SK:        skMeta,
		GroupID:   g.ID,
		Name:      g.Name,
		Type:      g.Type,
		CreatorID: g.CreatorID,
		Members:   g.Members,
		CreatedAt: g.CreatedAt.UTC(),
		UpdatedAt: g.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("repository: CreateGroup marshal: %w", err)
	}
	put := &types.Put{
		TableName:           aws.String(c.tableName),
		Item:                meta,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}

	if len(g.Messages) == 0 {
		_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           put.TableName,
			Item:                put.Item,
			ConditionExpression: put.ConditionExpression,
		})
		if err != nil {
			return fmt.Errorf("repository: CreateGroup: %w", err)
		}
		return nil
	}

	puts, err := entryPuts(c.tableName, pk, skPrefixMsg, g.CreatedAt, g.Messages, 0)
	if err != nil {
		return fmt.Errorf("repository: CreateGroup marshal message: %w", err)
	}
	items := append([]types.TransactWriteItem{{Put: put}}, puts...)
	if _, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return fmt.Errorf("repository: CreateGroup: %w", err)
	}
	return nil
}

func (c *Client) GetGroup(ctx context.Context, groupID string) (domain.Group, error) {
	pk := groupPK(groupID)
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            c.key(pk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Group{}, fmt.Errorf("repository: GetGroup get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Group{}, fmt.Errorf("repository: GetGroup %s: %w", groupID, ErrNotFound)
	}
	var meta groupMeta
	if err := attributevalue.UnmarshalMap(out.Item, &meta); err != nil {
		return domain.Group{}, fmt.Errorf("repository: GetGroup unmarshal: %w", err)
	}
	msgs, err := queryEntries[domain.GroupMessage](ctx, c, pk, skPrefixMsg)
	if err != nil {
		return domain.Group{}, fmt.Errorf("repository: GetGroup messages: %w", err)
	}
	return meta.group(msgs), nil
}

// AddMember adds userID to the group's member set. Adding an existing member
// is a no-op.
func (c *Client) AddMember(ctx context.Context, groupID, userID string) (domain.Group, error) {
	updated, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return domain.Group{}, fmt.Errorf("repository: AddMember marshal timestamp: %w", err)
	}
	pk := groupPK(groupID)
	out, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(c.tableName),
		Key:                 c.key(pk),
		UpdateExpression:    aws.String("SET #updated = :now ADD #members :member"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames: map[string]string{
			"#updated": "updated_at",
			"#members": "members",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":    updated,
			":member": &types.AttributeValueMemberSS{Value: []string{userID}},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return domain.Group{}, fmt.Errorf("repository: AddMember %s: %w", groupID, ErrNotFound)
		}
		return domain.Group{}, fmt.Errorf("repository: AddMember: %w", err)
	}
	var meta groupMeta
	if err := attributevalue.UnmarshalMap(out.Attributes, &meta); err != nil {
		return domain.Group{}, fmt.Errorf("repository: AddMember unmarshal: %w", err)
	}
	msgs, err := queryEntries[domain.GroupMessage](ctx, c, pk, skPrefixMsg)
	if err != nil {
		return domain.Group{}, fmt.Errorf("repository: AddMember messages: %w", err)
	}
	return meta.group(msgs), nil
}

// AppendGroupMessage writes msg as a MSG# item and bumps the group's
// updated_at in one transaction.
func (c *Client) AppendGroupMessage(ctx context.Context, groupID string, msg domain.GroupMessage) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	updated, err := attributevalue.Marshal(ts.UTC())
	if err != nil {
		return fmt.Errorf("repository: AppendGroupMessage marshal timestamp: %w", err)
	}
	pk := groupPK(groupID)
	puts, err := entryPuts(c.tableName, pk, skPrefixMsg, ts, []domain.GroupMessage{msg}, 0)
	if err != nil {
		return fmt.Errorf("repository: AppendGroupMessage marshal: %w", err)
	}
	items := append([]types.TransactWriteItem{{
		Update: &types.Update{
			TableName:                 aws.String(c.tableName),
			Key:                       c.key(pk),
			UpdateExpression:          aws.String("SET #updated = :now"),
			ConditionExpression:       aws.String("attribute_exists(PK)"),
			ExpressionAttributeNames:  map[string]string{"#updated": "updated_at"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":now": updated},
		},
	}}, puts...)

	if _, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("repository: AppendGroupMessage %s: %w", groupID, ErrNotFound)
		}
		return fmt.Errorf("repository: AppendGroupMessage: %w", err)
	}
	return nil
}

func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	pk := groupPK(groupID)
	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(c.tableName),
		Key:                 c.key(pk),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("repository: DeleteGroup %s: %w", groupID, ErrNotFound)
		}
		return fmt.Errorf("repository: DeleteGroup: %w", err)
	}
	if err := c.purge(ctx, pk, skPrefixMsg); err != nil {
		return fmt.Errorf("repository: DeleteGroup messages: %w", err)
	}
	return nil
}
