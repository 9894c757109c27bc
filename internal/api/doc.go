// Package api is a client for the photo API that serves the side data of a
// photo: its comments, favorite count and owner.
//
// Endpoints, relative to the configured base URL:
//
//	GET /photos/{id}/comments   {"comments": [{"name": "...", "message": "..."}]}
//	GET /photos/{id}/favorites  {"count": 12}
//	GET /photos/{id}/owner      {"name": "...", "avatar_url": "..."}
//
// Requests carry the API token as a bearer token and are retried on
// connection errors and 5xx responses.
package api
