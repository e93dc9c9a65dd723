package hyper

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/hyperkit/errors"
)

func mustDecodeObject(t *testing.T, doc string) *Object {
	t.Helper()
	v, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", v)
	}
	return obj
}

func TestDecode_Values(t *testing.T) {
	obj := mustDecodeObject(t, `{"s":"x","n":1.5,"b":true,"z":null,"list":[1,{"k":"v"}],"empty":[]}`)

	if obj.String("s") != "x" {
		t.Errorf("s = %v", obj.Get("s"))
	}
	if n, ok := obj.Get("n").(json.Number); !ok || n.String() != "1.5" {
		t.Errorf("n = %#v", obj.Get("n"))
	}
	if obj.Get("b") != true {
		t.Errorf("b = %#v", obj.Get("b"))
	}
	if !obj.Has("z") || obj.Get("z") != nil {
		t.Error("z should be present and nil")
	}
	list := obj.Slice("list")
	if len(list) != 2 {
		t.Fatalf("list = %#v", list)
	}
	if nested, ok := list[1].(*Object); !ok || nested.String("k") != "v" {
		t.Errorf("list[1] = %#v", list[1])
	}
	if empty := obj.Slice("empty"); empty == nil || len(empty) != 0 {
		t.Errorf("empty array should decode to an empty slice, got %#v", obj.Get("empty"))
	}
}

func TestDecode_EmptyAndInvalid(t *testing.T) {
	for _, body := range []string{"", "   \n"} {
		v, err := Decode([]byte(body))
		if v != nil || err != nil {
			t.Errorf("Decode(%q) = %v, %v; want nil, nil", body, v, err)
		}
	}
	if _, err := Decode([]byte(`{"a":`)); !errors.HasCode(err, errors.ErrCodeDecode) {
		t.Errorf("expected DECODE_ERROR, got %v", err)
	}
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	for _, body := range []string{
		`{"a":1,}`,
		`{"a":1} trailing`,
		`[1,2] x`,
		`{"a":01}`,
		`{"a":1.}`,
		`{"a":--1}`,
	} {
		if v, err := Decode([]byte(body)); !errors.HasCode(err, errors.ErrCodeDecode) {
			t.Errorf("Decode(%q) = %v, %v; want DECODE_ERROR", body, v, err)
		}
	}
}

func TestDecode_NumbersSurviveReencoding(t *testing.T) {
	doc := `{"a":1e5,"b":-0.5,"c":0,"d":12.25E-3}`
	out, err := json.Marshal(mustDecodeObject(t, doc))
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(out) != doc {
		t.Errorf("MarshalJSON() = %s, want %s", out, doc)
	}
}

func TestDecode_LoneSurrogate(t *testing.T) {
	obj := mustDecodeObject(t, `{"a":"\ud800x","b":"\u00e9\ud83d\ude00"}`)
	if got := obj.String("a"); got != "\uFFFDx" {
		t.Errorf("a = %q, want replacement character", got)
	}
	if got := obj.String("b"); got != "\u00e9\U0001F600" {
		t.Errorf("b = %q", got)
	}
}

func TestDecode_KeepsFieldOrder(t *testing.T) {
	doc := `{"zeta":1,"alpha":{"y":true,"b":"x"},"mid":[3,2,1]}`
	obj := mustDecodeObject(t, doc)

	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, obj.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	out, err := json.Marshal(obj)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != doc {
		t.Errorf("MarshalJSON() = %s, want %s", out, doc)
	}
}

func TestDecode_DataRoundTrip(t *testing.T) {
	doc := `{"id":"c1","type":"cluster","spec":{"nodes":[{"name":"n1","cpu":4}],"labels":{}},` +
		`"links":{"self":"http://x/v3/clusters/c1"},"actions":{"rotate":"http://x/v3/clusters/c1?action=rotate"},"note":null}`
	obj := mustDecodeObject(t, doc)

	dec := json.NewDecoder(bytes.NewReader([]byte(doc)))
	dec.UseNumber()
	var want map[string]any
	if err := dec.Decode(&want); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, obj.Data()); diff != "" {
		t.Errorf("Data() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_BindsLinksAndActions(t *testing.T) {
	obj := mustDecodeObject(t, `{
		"type":"cluster","id":"c1","remove":"keep me",
		"links":{"self":"http://x/c1","remove":"http://x/c1","nodes":"http://x/c1/nodes"},
		"actions":{"nodes":"http://x/c1?action=nodes","rotate":"http://x/c1?action=rotate"}
	}`)

	if diff := cmp.Diff([]string{"self", "remove_link", "nodes"}, obj.LinkNames()); diff != "" {
		t.Errorf("link names (-want +got):\n%s", diff)
	}
	if obj.HasLink("remove") {
		t.Error("remove must stay the data field")
	}
	if obj.String("remove") != "keep me" {
		t.Errorf("data field overwritten: %v", obj.Get("remove"))
	}
	if diff := cmp.Diff([]string{"nodes_action", "rotate"}, obj.ActionNames()); diff != "" {
		t.Errorf("action names (-want +got):\n%s", diff)
	}
	if obj.SelfURL() != "http://x/c1" {
		t.Errorf("SelfURL() = %q", obj.SelfURL())
	}
}

func TestDecode_SuffixedNameAlreadyTaken(t *testing.T) {
	obj := mustDecodeObject(t, `{
		"type":"cluster","id":"c1","remove":"field",
		"links":{"remove":"http://x/a","remove_link":"http://x/b"},
		"actions":{"remove":"http://x/c1?action=remove","remove_action":"http://x/c1?action=remove_action"}
	}`)

	if diff := cmp.Diff([]string{"remove_link", "remove_link_link"}, obj.LinkNames()); diff != "" {
		t.Errorf("link names (-want +got):\n%s", diff)
	}
	if obj.links["remove_link"] != "http://x/a" || obj.links["remove_link_link"] != "http://x/b" {
		t.Errorf("links rebound: %v", obj.links)
	}
	if diff := cmp.Diff([]string{"remove_action", "remove_action_action"}, obj.ActionNames()); diff != "" {
		t.Errorf("action names (-want +got):\n%s", diff)
	}
	if obj.actions["remove_action"] != "remove" || obj.actions["remove_action_action"] != "remove_action" {
		t.Errorf("actions rebound: %v", obj.actions)
	}
}

func TestDecode_UntypedObjectsGetNoLinks(t *testing.T) {
	obj := mustDecodeObject(t, `{"links":{"self":"http://x"},"type":7}`)
	if len(obj.LinkNames()) != 0 {
		t.Errorf("expected no bound links, got %v", obj.LinkNames())
	}
}

func TestDecode_Pagination(t *testing.T) {
	obj := mustDecodeObject(t, `{"type":"collection","pagination":{"next":"http://x?marker=2"},"data":[{"id":"a"},{"id":"b"}]}`)
	if !obj.HasNext() || obj.HasPrev() {
		t.Errorf("HasNext=%v HasPrev=%v", obj.HasNext(), obj.HasPrev())
	}
	if !obj.IsCollection() || obj.Len() != 2 || obj.Index(1).ID() != "b" || obj.Index(5) != nil {
		t.Error("collection accessors disagree with data")
	}
	if len(obj.Items()) != 2 {
		t.Errorf("Items() = %d", len(obj.Items()))
	}

	mixed := mustDecodeObject(t, `{"type":"collection","data":[{"id":"a"},"b",3]}`)
	if mixed.Len() != 3 || len(mixed.Slice("data")) != 3 {
		t.Errorf("Len() = %d, want every element", mixed.Len())
	}
	if len(mixed.Items()) != 1 || mixed.Index(1) != nil {
		t.Error("Items and Index should only yield object elements")
	}
}

func TestObject_DetachedCallsFail(t *testing.T) {
	obj := mustDecodeObject(t, `{"type":"cluster","id":"c1","links":{"nodes":"http://x"},"actions":{"rotate":"http://x"}}`)
	if _, err := obj.Link(t.Context(), "nodes", nil); !errors.HasCode(err, errors.ErrCodeUnknownLink) {
		t.Errorf("expected UNKNOWN_LINK without a client, got %v", err)
	}
	if _, err := obj.Action(t.Context(), "missing"); !errors.HasCode(err, errors.ErrCodeUnknownAction) {
		t.Errorf("expected UNKNOWN_ACTION, got %v", err)
	}
	next, err := obj.Next(t.Context())
	if next != nil || err != nil {
		t.Errorf("Next() on a single page = %v, %v", next, err)
	}
}
