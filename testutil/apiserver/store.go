package apiserver

import (
	"encoding/json"
	"fmt"
	"maps"
)

// record is one stored resource. Fields never include links or actions;
// those are rendered per request.
type record struct {
	Fields map[string]any `json:"fields"`

	// Transitions counts the GETs that still report transitioning=yes.
	Transitions int    `json:"transitions"`
	FinalState  string `json:"finalState"`
	FinalMsg    string `json:"finalMessage"`
}

// store holds every resource by type, preserving insertion order.
type store struct {
	Order   map[string][]string           `json:"order"`
	Records map[string]map[string]*record `json:"records"`
	Seq     int                           `json:"seq"`
}

func newStore() *store {
	return &store{
		Order:   map[string][]string{},
		Records: map[string]map[string]*record{},
	}
}

func (s *store) put(typeID string, fields map[string]any) map[string]any {
	id, _ := fields["id"].(string)
	if id == "" {
		s.Seq++
		id = fmt.Sprintf("%s-%d", typeID, s.Seq)
	}
	rec := &record{Fields: maps.Clone(fields)}
	delete(rec.Fields, "links")
	delete(rec.Fields, "actions")
	rec.Fields["id"] = id
	rec.Fields["type"] = typeID
	if _, ok := rec.Fields["state"]; !ok {
		rec.Fields["state"] = "active"
	}
	if _, ok := rec.Fields["transitioning"]; !ok {
		rec.Fields["transitioning"] = "no"
	}

	if s.Records[typeID] == nil {
		s.Records[typeID] = map[string]*record{}
	}
	if _, exists := s.Records[typeID][id]; !exists {
		s.Order[typeID] = append(s.Order[typeID], id)
	}
	s.Records[typeID][id] = rec
	return rec.Fields
}

func (s *store) get(typeID, id string) (*record, bool) {
	rec, ok := s.Records[typeID][id]
	return rec, ok
}

func (s *store) list(typeID string) []*record {
	ids := s.Order[typeID]
	out := make([]*record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.Records[typeID][id])
	}
	return out
}

func (s *store) remove(typeID, id string) (*record, bool) {
	rec, ok := s.Records[typeID][id]
	if !ok {
		return nil, false
	}
	delete(s.Records[typeID], id)
	ids := s.Order[typeID]
	for i, x := range ids {
		if x == id {
			s.Order[typeID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return rec, true
}

// clone deep-copies the store through JSON; snapshots must not share
// nested maps with live records.
func (s *store) clone() (*store, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	out := newStore()
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}
