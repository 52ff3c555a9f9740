// Package reconciler implements the Polling Reconciler component.
//
// The reconciler:
//   - Polls the REST API for the focused goal's social snapshot
//   - Reports a change only when snapshot content differs (SHA-256 digest)
//   - Never overlaps polls; slow fetches cause skipped ticks, not pileups
//   - Swallows fetch failures and retries on the next tick
package reconciler
