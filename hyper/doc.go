// Package hyper is a client for schema-driven hypermedia REST APIs in the
// Rancher style.
//
// New fetches the schema document the API advertises through the
// X-API-Schemas header and registers every schema type. Operations are
// then generic over type names:
//
//	c, err := hyper.New(ctx, hyper.Config{URL: "https://rancher.local/v3", Token: token})
//	clusters, err := c.List(ctx, "cluster", hyper.Filters{"name_prefix": "e2e-"})
//	for _, cl := range clusters.Items() {
//	    nodes, err := cl.Link(ctx, "nodes", nil)
//	    ...
//	}
//
// Responses decode into *Object values that keep field order and carry
// the hypermedia of the document: links and actions become callable
// (Object.Link, Object.Action) and pagination becomes Next/Prev.
//
// Mutating calls (Update, UpdateByID, Action) are retried while the server
// answers 409 Conflict. Non-2xx answers surface as *APIError, except that
// ByID and Get return (nil, nil) for 404.
//
// WaitTransitioning, WaitSuccess, WaitFor, WaitForCondition and
// WaitForState poll with exponential backoff until a resource settles or a
// deadline passes.
package hyper
