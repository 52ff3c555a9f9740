// Package router implements the Message Router component.
//
// The router is a pure decode-and-dispatch stage:
//   - "notification" frames go to the Notification Store
//   - fan-out kinds are re-emitted as generic updates for UI consumers
//   - "pong" frames feed the Connection Manager's liveness tracking
//   - malformed or unknown frames are logged and dropped
package router
