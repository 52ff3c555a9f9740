// Package api provides the QuestLoop REST client consumed by the live sync
// core: initial notification loads, read acknowledgements, and social
// snapshot polls.
//
// Endpoints:
//   - GET  /api/notifications
//   - POST /api/notifications/{id}/read
//   - GET  /api/goals/{id}/social
package api
