// Package store implements the Notification Store component: the
// authoritative in-memory collection of notifications and the derived
// unread count, correct under interleaved writes from push delivery and
// bulk REST loads.
package store
