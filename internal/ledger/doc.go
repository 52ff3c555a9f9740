// Package ledger implements the Subscription Ledger component: topic
// interest bookkeeping with replay-on-reconnect.
package ledger
