// Package inference implements the prediction path of predictd.
//
// The service wraps the loaded model and:
//   - Decodes request bodies into feature rows
//   - Runs the model over a frame of rows
//   - Classifies failures as invalid payloads or inference failures
//   - Caches per-row predictions when a cache is configured
//   - Publishes prediction events to the event bus
//
// The model is shared read-only between requests, so no locking is needed.
package inference
