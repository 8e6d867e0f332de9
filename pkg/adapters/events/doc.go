// Package events provides prediction event bus implementations.
//
// Implementations:
//   - redis: Redis Streams, every subscriber sees every event
//   - memory: in-process fan-out
package events
