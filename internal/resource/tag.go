package resource

import (
	"strconv"
	"strings"
)

// Tag labels cache entries for bulk invalidation. A tag without ID ("Post")
// matches every entry carrying a tag of that type; a tag with ID ("Post:42")
// matches only entries tagged with that exact ID.
type Tag struct {
	Type string
	ID   string
}

func TypeTag(typ string) Tag { return Tag{Type: typ} }

func IDTag(typ string, id int) Tag { return Tag{Type: typ, ID: strconv.Itoa(id)} }

// ListTag marks the collection-level entry of a type, e.g. "Post:LIST".
func ListTag(typ string) Tag { return Tag{Type: typ, ID: "LIST"} }

// ParseTag reads "Type" or "Type:ID".
func ParseTag(s string) Tag {
	typ, id, _ := strings.Cut(strings.TrimSpace(s), ":")
	return Tag{Type: typ, ID: id}
}

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + ":" + t.ID
}

// tagIndex maps tag type -> tag id ("" for untyped) -> keys.
type tagIndex map[string]map[string]map[Key]struct{}

func (ix tagIndex) add(k Key, tags []Tag) {
	for _, t := range tags {
		ids, ok := ix[t.Type]
		if !ok {
			ids = make(map[string]map[Key]struct{})
			ix[t.Type] = ids
		}
		keys, ok := ids[t.ID]
		if !ok {
			keys = make(map[Key]struct{})
			ids[t.ID] = keys
		}
		keys[k] = struct{}{}
	}
}

func (ix tagIndex) remove(k Key, tags []Tag) {
	for _, t := range tags {
		ids := ix[t.Type]
		if ids == nil {
			continue
		}
		delete(ids[t.ID], k)
		if len(ids[t.ID]) == 0 {
			delete(ids, t.ID)
		}
		if len(ids) == 0 {
			delete(ix, t.Type)
		}
	}
}

func (ix tagIndex) match(t Tag) []Key {
	ids := ix[t.Type]
	if ids == nil {
		return nil
	}
	var out []Key
	if t.ID != "" {
		for k := range ids[t.ID] {
			out = append(out, k)
		}
		return out
	}
	for _, keys := range ids {
		for k := range keys {
			out = append(out, k)
		}
	}
	return out
}
