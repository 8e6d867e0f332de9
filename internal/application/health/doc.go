// Package health monitors the dependencies predictd needs to serve.
//
// The monitor runs every registered check on an interval, records the
// outcome as metrics and keeps the last status for the /health endpoint.
// Checks run once synchronously on Start so the status is never empty.
package health
