package binding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hatlonely/modelorm/rdb"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoOptions MongoDB 连接选项
type MongoOptions struct {
	URI         string        `cfg:"uri"`
	Host        string        `cfg:"host" def:"localhost"`
	Port        int           `cfg:"port" def:"27017"`
	Database    string        `cfg:"database" validate:"required"`
	Username    string        `cfg:"username"`
	Password    string        `cfg:"password"`
	AuthSource  string        `cfg:"authSource" def:"admin"`
	Timeout     time.Duration `cfg:"timeout" def:"30s"`
	MaxPoolSize uint64        `cfg:"maxPoolSize" def:"100"`
	MinPoolSize uint64        `cfg:"minPoolSize"`
}

// Mongo 每个表对应一个集合，列约束通过 $jsonSchema 校验器表达
type Mongo struct {
	*Registry
	client   *mongo.Client
	database *mongo.Database
	timeout  time.Duration
}

func NewMongoWithOptions(mongoOptions *MongoOptions, opts ...Option) (*Mongo, error) {
	if mongoOptions == nil {
		return nil, errors.New("options cannot be nil")
	}

	uri := mongoOptions.URI
	if uri == "" {
		if mongoOptions.Username != "" && mongoOptions.Password != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d/%s?authSource=%s",
				mongoOptions.Username, mongoOptions.Password, mongoOptions.Host, mongoOptions.Port,
				mongoOptions.Database, mongoOptions.AuthSource)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d/%s", mongoOptions.Host, mongoOptions.Port, mongoOptions.Database)
		}
	}

	timeout := mongoOptions.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	if mongoOptions.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(mongoOptions.MaxPoolSize)
	}
	clientOptions.SetMinPoolSize(mongoOptions.MinPoolSize)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "failed to ping mongodb")
	}

	return &Mongo{
		Registry: NewRegistry(opts...),
		client:   client,
		database: client.Database(mongoOptions.Database),
		timeout:  timeout,
	}, nil
}

// Migrate 创建带校验器的集合，集合已存在时更新校验器，然后创建索引
func (m *Mongo) Migrate(ctx context.Context) error {
	for _, t := range m.List() {
		if err := m.migrate(ctx, t); err != nil {
			return errors.WithMessagef(err, "failed to migrate collection %s", t.Table)
		}
		m.logger.InfoContext(ctx, "migrated table", "table", t.Table, "binding", "mongo")
	}
	return nil
}

func (m *Mongo) migrate(ctx context.Context, t *rdb.StorageType) error {
	validator := bson.M{"$jsonSchema": JSONSchema(t)}

	err := m.database.CreateCollection(ctx, t.Table, options.CreateCollection().SetValidator(validator))
	if err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return errors.Wrap(err, "failed to create collection")
		}
		cmd := bson.D{{Key: "collMod", Value: t.Table}, {Key: "validator", Value: validator}}
		if err := m.database.RunCommand(ctx, cmd).Err(); err != nil {
			return errors.Wrap(err, "failed to update validator")
		}
	}

	collection := m.database.Collection(t.Table)
	for _, model := range IndexModels(t) {
		if _, err := collection.Indexes().CreateOne(ctx, model); err != nil {
			// 如果索引已存在，忽略错误
			if !strings.Contains(err.Error(), "already exists") {
				return errors.Wrapf(err, "failed to create index %s", *model.Options.Name)
			}
		}
	}
	return nil
}

// JSONSchema 存储类型对应的 $jsonSchema。
// 非空且不由序列生成的列是必填字段
func JSONSchema(t *rdb.StorageType) bson.M {
	properties := bson.M{}
	required := bson.A{}
	for _, c := range t.Columns {
		var types bson.A
		switch c.Type {
		case rdb.Integer:
			types = bson.A{"int", "long"}
		case rdb.Float:
			types = bson.A{"double", "int", "long"}
		case rdb.Timestamp:
			types = bson.A{"date"}
		default:
			types = bson.A{"string"}
		}
		if c.Nullable {
			types = append(types, "null")
		} else if c.Sequence == "" {
			required = append(required, c.Name)
		}
		properties[c.Name] = bson.M{"bsonType": types}
	}

	schema := bson.M{
		"bsonType":   "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// IndexModels 存储类型的索引定义
func IndexModels(t *rdb.StorageType) []mongo.IndexModel {
	models := make([]mongo.IndexModel, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		keys := bson.D{}
		for _, col := range idx.Columns {
			keys = append(keys, bson.E{Key: col, Value: 1})
		}
		models = append(models, mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetName(idx.Name).SetUnique(idx.Unique),
		})
	}
	return models
}

func (m *Mongo) Insert(ctx context.Context, record *rdb.Record) error {
	t, err := m.registered(record)
	if err != nil {
		return err
	}
	if _, err := m.database.Collection(t.Table).InsertOne(ctx, bson.M(record.ColumnValues())); err != nil {
		return errors.Wrapf(err, "failed to insert into %s", t.Table)
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
