package hyper

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const schemaDoc = `{"type":"collection","data":[
 {"id":"cluster","type":"schema","links":{"collection":"http://x/v3/clusters"},
  "collectionMethods":["GET","POST"],"resourceMethods":["GET","PUT","DELETE"],
  "collectionFilters":{"name":{"modifiers":["ne","prefix"]},"state":{}}},
 {"id":"node","type":"schema","links":{"collection":"http://x/v3/nodes/"},
  "collectionMethods":["GET"],"resourceMethods":["GET"]},
 {"id":"clusterRegistrationToken","type":"schema","links":{"collection":"http://x/v3/clusterRegistrationTokens"},
  "collectionMethods":["POST"],"resourceMethods":[]},
 {"id":"noise","type":"other"}
]}`

func loadSchema(t *testing.T) *Schema {
	t.Helper()
	root, err := Decode([]byte(schemaDoc))
	if err != nil {
		t.Fatal(err)
	}
	return NewSchema(schemaDoc, root)
}

func TestNewSchema_Classification(t *testing.T) {
	s := loadSchema(t)

	if diff := cmp.Diff([]string{"cluster", "node", "clusterRegistrationToken"}, s.TypeIDs()); diff != "" {
		t.Fatalf("type ids (-want +got):\n%s", diff)
	}

	tests := []struct {
		id                                        string
		creatable, updatable, deletable, listable bool
	}{
		{"cluster", true, true, true, true},
		{"node", false, false, false, true},
		{"clusterRegistrationToken", true, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			st, ok := s.Type(tt.id)
			if !ok {
				t.Fatal("type missing")
			}
			got := [4]bool{st.Creatable, st.Updatable, st.Deletable, st.Listable}
			want := [4]bool{tt.creatable, tt.updatable, tt.deletable, tt.listable}
			if got != want {
				t.Errorf("flags = %v, want %v", got, want)
			}
		})
	}
}

func TestSchemaType_Filters(t *testing.T) {
	st, _ := loadSchema(t).Type("cluster")
	for key, want := range map[string]bool{
		"name":        true,
		"name_ne":     true,
		"name_prefix": true,
		"state":       true,
		"state_ne":    false,
		"name_like":   false,
		"bogus":       false,
		"prefix":      false,
	} {
		if got := st.AcceptsFilter(key); got != want {
			t.Errorf("AcceptsFilter(%q) = %v, want %v", key, got, want)
		}
	}
	node, _ := loadSchema(t).Type("node")
	if len(node.CollectionFilters) != 0 {
		t.Errorf("missing collectionFilters should be empty, got %v", node.CollectionFilters)
	}
}

func TestSchemaType_URLs(t *testing.T) {
	s := loadSchema(t)
	cluster, _ := s.Type("cluster")
	node, _ := s.Type("node")
	if got := cluster.ResourceURL("c1"); got != "http://x/v3/clusters/c1" {
		t.Errorf("ResourceURL() = %q", got)
	}
	if got := node.ResourceURL("n1"); got != "http://x/v3/nodes/n1" {
		t.Errorf("ResourceURL() with trailing slash = %q", got)
	}
}

func TestSchema_NameVariants(t *testing.T) {
	s := loadSchema(t)
	for _, name := range []string{"clusterRegistrationToken", "cluster_registration_token"} {
		if st, ok := s.Type(name); !ok || st.ID != "clusterRegistrationToken" {
			t.Errorf("Type(%q) did not resolve", name)
		}
	}
	if _, ok := s.Type("missing"); ok {
		t.Error("unexpected type")
	}
	if diff := cmp.Diff([]string{"node"}, nameVariants("node")); diff != "" {
		t.Errorf("nameVariants (-want +got):\n%s", diff)
	}
}
