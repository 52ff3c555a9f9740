// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Maintains one WebSocket connection per authenticated identity
//   - Reconnects after a fixed delay on any transport failure, indefinitely
//   - Sends an application-level heartbeat and forces a reconnect on pong silence
//   - Forwards inbound frames to the Message Router in receipt order
//   - Fires OnConnected hooks so subscriptions can be replayed after reconnect
package connection
