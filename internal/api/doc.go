// Package api serves a todo model over HTTP and WebSocket.
//
// Handlers never touch the model directly. Each request is queued on the
// cellgraph.Loop that owns the model's runtime and answers with the View
// read at the end of its transaction:
//
//	GET    /api/view                 current view
//	PUT    /api/route                {"url": "/active"}
//	POST   /api/todos                {"title": "buy milk"}
//	POST   /api/todos/toggle-all
//	DELETE /api/todos/completed
//	PUT    /api/todos/{id}           {"title": "renamed"}
//	DELETE /api/todos/{id}
//	POST   /api/todos/{id}/toggle
//	POST   /api/todos/{id}/select
//
// After Attach, /ws streams {"type": "view", "view": ...} frames, one per
// committed transaction that changed anything shown.
package api
