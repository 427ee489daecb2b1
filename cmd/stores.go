package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.mongodb.org/mongo-driver/mongo"

	appconfig "omniai/internal/config"
	"omniai/internal/domain"
	"omniai/internal/integrations/paramstore"
	"omniai/internal/repository"
	"omniai/internal/repository/memory"
	"omniai/internal/repository/mongodb"
)

// stores holds one session store per feature collection plus the group
// store. Temporary chat is always in memory.
type stores struct {
	chat      repository.Store[domain.Message]
	tempChat  repository.Store[domain.Message]
	business  repository.Store[domain.Interaction]
	social    repository.Store[domain.Interaction]
	agents    repository.Store[domain.Interaction]
	groupChat repository.Store[domain.Interaction]
	language  repository.Store[domain.LanguageInteraction]
	student   repository.Store[domain.StudentInteraction]
	groups    repository.GroupStore

	close func(context.Context) error
}

func openStores(ctx context.Context, cfg appconfig.Config, awsCfg aws.Config, ps paramstore.Getter) (stores, error) {
	switch cfg.StoreBackend {
	case appconfig.BackendDynamoDB:
		return dynamoStores(cfg, awsCfg)
	case appconfig.BackendMongoDB:
		return mongoStores(ctx, cfg, ps)
	default:
		return memoryStores(), nil
	}
}

func memoryStores() stores {
	return stores{
		chat:      memory.NewSessionStore[domain.Message](),
		tempChat:  memory.NewSessionStore[domain.Message](),
		business:  memory.NewSessionStore[domain.Interaction](),
		social:    memory.NewSessionStore[domain.Interaction](),
		agents:    memory.NewSessionStore[domain.Interaction](),
		groupChat: memory.NewSessionStore[domain.Interaction](),
		language:  memory.NewSessionStore[domain.LanguageInteraction](),
		student:   memory.NewSessionStore[domain.StudentInteraction](),
		groups:    memory.NewGroupStore(),
		close:     func(context.Context) error { return nil },
	}
}

func dynamoStores(cfg appconfig.Config, awsCfg aws.Config) (stores, error) {
	client, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable,
		repository.WithOwnerIndex(cfg.OwnerIndex),
		repository.WithTTL(cfg.SessionTTL),
	)
	if err != nil {
		return stores{}, err
	}

	var errs []error
	s := stores{
		chat:      dynamoTable[domain.Message](client, domain.CollectionChat, &errs),
		tempChat:  memory.NewSessionStore[domain.Message](),
		business:  dynamoTable[domain.Interaction](client, domain.CollectionBusiness, &errs),
		social:    dynamoTable[domain.Interaction](client, domain.CollectionSocial, &errs),
		agents:    dynamoTable[domain.Interaction](client, domain.CollectionAgents, &errs),
		groupChat: dynamoTable[domain.Interaction](client, domain.CollectionGroupChat, &errs),
		language:  dynamoTable[domain.LanguageInteraction](client, domain.CollectionGlobalLanguage, &errs),
		student:   dynamoTable[domain.StudentInteraction](client, domain.CollectionStudent, &errs),
		groups:    client,
		close:     func(context.Context) error { return nil },
	}
	if err := errors.Join(errs...); err != nil {
		return stores{}, err
	}
	return s, nil
}

func dynamoTable[E any](c *repository.Client, collection domain.Collection, errs *[]error) repository.Store[E] {
	t, err := repository.NewSessionTable[E](c, collection)
	if err != nil {
		*errs = append(*errs, err)
		return nil
	}
	return t
}

func mongoStores(ctx context.Context, cfg appconfig.Config, ps paramstore.Getter) (stores, error) {
	uri, err := paramstore.Resolve(ctx, ps, cfg.MongoURI, cfg.ParamPrefix, "/mongodb-uri")
	if err != nil {
		return stores{}, fmt.Errorf("resolve mongodb uri: %w", err)
	}
	if uri == "" {
		return stores{}, errors.New("mongodb uri is not configured")
	}
	db, err := mongodb.Connect(ctx, uri, cfg.DatabaseName)
	if err != nil {
		return stores{}, err
	}

	var errs []error
	groups, err := mongodb.NewGroupCollection(db)
	errs = append(errs, err)
	s := stores{
		chat:      mongoCollection[domain.Message](ctx, db, domain.CollectionChat, &errs),
		tempChat:  memory.NewSessionStore[domain.Message](),
		business:  mongoCollection[domain.Interaction](ctx, db, domain.CollectionBusiness, &errs),
		social:    mongoCollection[domain.Interaction](ctx, db, domain.CollectionSocial, &errs),
		agents:    mongoCollection[domain.Interaction](ctx, db, domain.CollectionAgents, &errs),
		groupChat: mongoCollection[domain.Interaction](ctx, db, domain.CollectionGroupChat, &errs),
		language:  mongoCollection[domain.LanguageInteraction](ctx, db, domain.CollectionGlobalLanguage, &errs),
		student:   mongoCollection[domain.StudentInteraction](ctx, db, domain.CollectionStudent, &errs),
		groups:    groups,
		close:     func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
	}
	if err := errors.Join(errs...); err != nil {
		_ = s.close(ctx)
		return stores{}, err
	}
	return s, nil
}

func mongoCollection[E any](ctx context.Context, db *mongo.Database, collection domain.Collection, errs *[]error) repository.Store[E] {
	c, err := mongodb.NewSessionCollection[E](db, collection)
	if err != nil {
		*errs = append(*errs, err)
		return nil
	}
	if err := c.EnsureIndexes(ctx); err != nil {
		*errs = append(*errs, err)
		return nil
	}
	return c
}
