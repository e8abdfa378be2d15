// Package dynamo implements a store.Store on top of Amazon DynamoDB using the
// AWS SDK for Go v2 (github.com/aws/aws-sdk-go-v2).
//
// Every test store creates its own pay-per-request table named
// "kvbench-<uuid>" with a binary partition key and deletes it again on Close.
// Point to DynamoDB Local (or any compatible service) with Options.Endpoint.
//
// Implementation Details:
//
//   - WriteBatch: duplicate keys are folded with Batch.Simplify since DynamoDB
//     rejects requests that touch an item twice. Batches of up to 100 operations
//     are written with TransactWriteItems and are atomic. Larger batches are split
//     into BatchWriteItem requests of 25 operations; unprocessed items are resubmitted
//     with exponential backoff.
//   - ReadValue: strongly consistent GetItem.
//   - ReadMultiValues: strongly consistent BatchGetItem with up to 100 distinct keys
//     per request, unprocessed keys are resubmitted. Responses arrive in arbitrary
//     order and are mapped back to the position of the requested keys.
//
// DynamoDB does not accept empty keys, writing one fails with a backend error.
package dynamo
