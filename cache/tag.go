package cache

// TagSeparator joins a tag type and id in its string form.
const TagSeparator = ":"

// Tag labels a cache entry. A tag with an empty ID is a bare type tag
// ("Users"); one with an ID is scoped to a single item ("Messages:u1").
// Matching is by exact identity: a bare tag never matches an id-scoped
// tag of the same type, so list-level and item-level invalidation stay
// independent unless an operation provides both.
type Tag struct {
	Type string
	ID   string
}

// TypeTag returns a bare type tag.
func TypeTag(typ string) Tag {
	return Tag{Type: typ}
}

// IDTag returns a tag scoped to a single id of typ.
func IDTag(typ, id string) Tag {
	return Tag{Type: typ, ID: id}
}

// String renders the tag as "Type" or "Type:ID".
func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + TagSeparator + t.ID
}

// TagsFn computes tags from an operation outcome and its argument.
// result is nil when err is non-nil. A query's TagsFn is also called with
// a nil result and a nil error when its first fetch starts, so it must not
// assume a result is present.
type TagsFn func(result any, err error, arg any) []Tag

// StaticTags returns a TagsFn that always yields tags.
func StaticTags(tags ...Tag) TagsFn {
	fixed := append([]Tag(nil), tags...)
	return func(any, error, any) []Tag {
		return fixed
	}
}

type tagSet map[Tag]struct{}

func newTagSet(tags []Tag) tagSet {
	set := make(tagSet, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

func (s tagSet) intersects(tags []Tag) bool {
	for _, tag := range tags {
		if _, ok := s[tag]; ok {
			return true
		}
	}
	return false
}
