// Package cache provides prediction cache implementations.
//
// The model is immutable, so a row always maps to the same prediction
// and results can be cached safely.
//
// Implementations:
//   - redis: Redis strings with TTL, shared between replicas
//   - memory: bounded in-process LRU
package cache
