package dynamo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	Name = "DynamoDB"

	keyAttr   = "k" // Partition key attribute (binary)
	valueAttr = "v" // Value attribute (binary)

	maxTransactItems = 100     // Limit of TransactWriteItems
	maxTransactBytes = 4 << 20 // Aggregate item size limit of TransactWriteItems
	maxBatchWrite    = 25      // Limit of BatchWriteItem
	maxBatchGet      = 100     // Limit of BatchGetItem

	initialBackoff = 10 * time.Millisecond
	maxBackoff     = time.Second
)

var log = logger.GetLogger("dynamo")

// Options configures the DynamoDB backend
type Options struct {
	Endpoint        string        // Custom endpoint, e.g. http://localhost:8000 for DynamoDB Local ("" = AWS default)
	Region          string        // AWS region
	AccessKeyID     string        // Static credentials ("" = default credential chain, or dummy credentials if Endpoint is set)
	SecretAccessKey string        // Static credentials
	TableTimeout    time.Duration // How long to wait until a new table is active
}

// DefaultOptions returns the default DynamoDB options
func DefaultOptions() *Options {
	return &Options{
		Region:       "us-east-1",
		TableTimeout: 2 * time.Minute,
	}
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// databaseImpl creates one table per test store. The client is created lazily
// and shared between all stores of the database.
type databaseImpl struct {
	opts *Options

	once      sync.Once
	client    *dynamodb.Client
	clientErr error
}

// NewDatabase returns a store.TestDatabase that creates a new table for every test store
func NewDatabase(opts *Options) store.TestDatabase {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &databaseImpl{opts: opts}
}

func (d *databaseImpl) Name() string { return Name }

// NewTestStore creates a new pay-per-request table and waits until it is active
func (d *databaseImpl) NewTestStore(ctx context.Context) (store.Store, error) {
	client, err := d.getClient(ctx)
	if err != nil {
		return nil, err
	}

	table := "kvbench-" + uuid.NewString()
	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(keyAttr), AttributeType: types.ScalarAttributeTypeB},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(keyAttr), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return nil, store.WrapBackendError(err, fmt.Sprintf("failed to create table %s", table))
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, d.opts.TableTimeout)
	if err != nil {
		s := &storeImpl{client: client, table: table}
		_ = s.Close()
		return nil, store.WrapBackendError(err, fmt.Sprintf("table %s did not become active", table))
	}
	log.Debugf("created table %s", table)

	return &storeImpl{client: client, table: table}, nil
}

func (d *databaseImpl) getClient(ctx context.Context) (*dynamodb.Client, error) {
	d.once.Do(func() {
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(d.opts.Region),
		}
		switch {
		case d.opts.AccessKeyID != "":
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(d.opts.AccessKeyID, d.opts.SecretAccessKey, ""),
			))
		case d.opts.Endpoint != "":
			// local emulators accept any credentials
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("kvbench", "kvbench", ""),
			))
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			d.clientErr = store.WrapBackendError(err, "failed to load aws config")
			return
		}

		d.client = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			if d.opts.Endpoint != "" {
				o.BaseEndpoint = aws.String(d.opts.Endpoint)
			}
		})
	})
	return d.client, d.clientErr
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// storeImpl is a store.Store backed by one DynamoDB table. The dynamodb.Client
// is safe for concurrent use.
type storeImpl struct {
	client *dynamodb.Client
	table  string
}

// WriteBatch writes the batch atomically with TransactWriteItems if it fits into
// one transaction (see fitsTransaction). Larger batches are split into BatchWriteItem
// requests, which DynamoDB applies per item, so these are not atomic.
func (s *storeImpl) WriteBatch(ctx context.Context, batch *store.Batch) error {
	ops := batch.Simplify()
	if len(ops) == 0 {
		return nil
	}
	if fitsTransaction(batch, len(ops)) {
		return s.transactWrite(ctx, ops)
	}

	for start := 0; start < len(ops); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(ops))
		if err := s.batchWrite(ctx, ops[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// fitsTransaction reports whether numOps simplified operations of batch stay within
// the item count and the aggregate size limit of TransactWriteItems. The size of
// the whole batch bounds the size of its simplified operations, and every item
// also carries its attribute names.
func fitsTransaction(batch *store.Batch, numOps int) bool {
	if numOps > maxTransactItems {
		return false
	}
	size := batch.SizeBytes() + batch.Len()*(len(keyAttr)+len(valueAttr))
	return size <= maxTransactBytes
}

func (s *storeImpl) transactWrite(ctx context.Context, ops []store.Op) error {
	items := make([]types.TransactWriteItem, 0, len(ops))
	for _, op := range ops {
		switch op.Type {
		case store.OpPut:
			items = append(items, types.TransactWriteItem{
				Put: &types.Put{TableName: aws.String(s.table), Item: item(op.Key, op.Value)},
			})
		case store.OpDelete:
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{TableName: aws.String(s.table), Key: key(op.Key)},
			})
		default:
			return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown operation %s", op.Type))
		}
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return store.WrapBackendError(err, "failed to write batch")
}

func (s *storeImpl) batchWrite(ctx context.Context, ops []store.Op) error {
	requests := make([]types.WriteRequest, 0, len(ops))
	for _, op := range ops {
		switch op.Type {
		case store.OpPut:
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item(op.Key, op.Value)}})
		case store.OpDelete:
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key(op.Key)}})
		default:
			return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown operation %s", op.Type))
		}
	}

	pending := map[string][]types.WriteRequest{s.table: requests}
	backoff := initialBackoff
	for len(pending[s.table]) > 0 {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return store.WrapBackendError(err, "failed to write batch")
		}
		pending = out.UnprocessedItems
		if len(pending[s.table]) > 0 {
			log.Debugf("BatchWriteItem: %d unprocessed items, retrying", len(pending[s.table]))
			if err := sleep(ctx, backoff); err != nil {
				return store.WrapBackendError(err, "failed to write batch")
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}
	return nil
}

func (s *storeImpl) ReadValue(ctx context.Context, k []byte) ([]byte, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(k),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, store.WrapBackendError(err, "failed to read key")
	}
	if out.Item == nil {
		return nil, false, nil
	}
	return value(out.Item), true, nil
}

// ReadMultiValues reads the distinct keys with BatchGetItem (maxBatchGet keys per request)
// and maps the unordered responses back to the requested order.
func (s *storeImpl) ReadMultiValues(ctx context.Context, keys [][]byte) ([]store.Lookup, error) {
	// BatchGetItem rejects duplicate keys
	unique := make([][]byte, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[string(k)]; !ok {
			seen[string(k)] = struct{}{}
			unique = append(unique, k)
		}
	}

	found := make(map[string][]byte, len(unique))
	for start := 0; start < len(unique); start += maxBatchGet {
		end := min(start+maxBatchGet, len(unique))
		if err := s.batchGet(ctx, unique[start:end], found); err != nil {
			return nil, err
		}
	}

	values := make([]store.Lookup, len(keys))
	for i, k := range keys {
		if v, ok := found[string(k)]; ok {
			values[i] = store.Found(v)
		}
	}
	return values, nil
}

func (s *storeImpl) batchGet(ctx context.Context, keys [][]byte, found map[string][]byte) error {
	keyMaps := make([]map[string]types.AttributeValue, len(keys))
	for i, k := range keys {
		keyMaps[i] = key(k)
	}

	pending := map[string]types.KeysAndAttributes{
		s.table: {Keys: keyMaps, ConsistentRead: aws.Bool(true)},
	}
	backoff := initialBackoff
	for len(pending[s.table].Keys) > 0 {
		out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
		if err != nil {
			return store.WrapBackendError(err, "failed to read keys")
		}
		for _, it := range out.Responses[s.table] {
			k, ok := it[keyAttr].(*types.AttributeValueMemberB)
			if !ok {
				return store.NewError(store.RetCInternalError, fmt.Sprintf("unexpected key attribute type %T", it[keyAttr]))
			}
			found[string(k.Value)] = value(it)
		}
		pending = out.UnprocessedKeys
		if len(pending[s.table].Keys) > 0 {
			log.Debugf("BatchGetItem: %d unprocessed keys, retrying", len(pending[s.table].Keys))
			if err := sleep(ctx, backoff); err != nil {
				return store.WrapBackendError(err, "failed to read keys")
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}
	return nil
}

// Close deletes the table
func (s *storeImpl) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := s.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(s.table)})
	if err == nil {
		log.Debugf("deleted table %s", s.table)
	}
	return store.WrapBackendError(err, fmt.Sprintf("failed to delete table %s", s.table))
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func key(k []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttr: &types.AttributeValueMemberB{Value: k},
	}
}

func item(k, v []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttr:   &types.AttributeValueMemberB{Value: k},
		valueAttr: &types.AttributeValueMemberB{Value: v},
	}
}

// value extracts the value attribute of an item. A missing attribute is an empty value.
func value(it map[string]types.AttributeValue) []byte {
	if v, ok := it[valueAttr].(*types.AttributeValueMemberB); ok && v.Value != nil {
		return v.Value
	}
	return []byte{}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
