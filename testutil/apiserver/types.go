package apiserver

// TypeDef declares one resource type served by the fake API.
type TypeDef struct {
	ID                string
	CollectionMethods []string
	ResourceMethods   []string
	// Filters maps a filter name to its modifiers.
	Filters map[string][]string
	// Actions are exposed on every resource as <self>?action=<name>.
	Actions []string
	// Links are exposed on every resource as <self>/<name>. The linked
	// collection is the type named by the link, filtered by <typeID>Id.
	Links map[string]string
}

// Collection is the URL path segment of the type's collection.
func (t TypeDef) Collection() string { return t.ID + "s" }

// DefaultTypes is a small Rancher-like API: clusters with nodes, users,
// settings and registration tokens.
func DefaultTypes() []TypeDef {
	return []TypeDef{
		{
			ID:                "cluster",
			CollectionMethods: []string{"GET", "POST"},
			ResourceMethods:   []string{"GET", "PUT", "DELETE"},
			Filters: map[string][]string{
				"name":  {"ne", "prefix"},
				"state": {"ne"},
			},
			Actions: []string{"generateKubeconfig", "exportYaml"},
			Links:   map[string]string{"nodes": "node"},
		},
		{
			ID:                "node",
			CollectionMethods: []string{"GET"},
			ResourceMethods:   []string{"GET", "PUT", "DELETE"},
			Filters: map[string][]string{
				"clusterId": nil,
				"name":      {"ne", "prefix"},
			},
			Actions: []string{"cordon", "uncordon"},
		},
		{
			ID:                "clusterRegistrationToken",
			CollectionMethods: []string{"GET", "POST"},
			ResourceMethods:   []string{"GET"},
			Filters:           map[string][]string{"clusterId": nil},
		},
		{
			ID:                "user",
			CollectionMethods: []string{"GET", "POST"},
			ResourceMethods:   []string{"GET", "PUT", "DELETE"},
			Filters:           map[string][]string{"username": {"ne"}},
			Actions:           []string{"setpassword"},
		},
		{
			ID:                "setting",
			CollectionMethods: []string{"GET"},
			ResourceMethods:   []string{"GET", "PUT"},
			Filters:           map[string][]string{"name": nil},
		},
	}
}
