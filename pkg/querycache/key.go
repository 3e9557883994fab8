package querycache

import "strings"

const keySeparator = "\x1f"

// Key identifies a cached read: a resource kind followed by serialized parameters.
// A key made of the kind alone is a prefix matching every entry of that kind.
type Key string

func NewKey(kind string, params ...string) Key {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, kind)
	parts = append(parts, params...)
	return Key(strings.Join(parts, keySeparator))
}

// HasPrefix matches whole segments only, so "product" is not a prefix of "products".
// The empty key is a prefix of everything.
func (k Key) HasPrefix(prefix Key) bool {
	if prefix == "" || k == prefix {
		return true
	}
	return strings.HasPrefix(string(k), string(prefix)+keySeparator)
}

func (k Key) Kind() string {
	kind, _, _ := strings.Cut(string(k), keySeparator)
	return kind
}

func (k Key) String() string {
	return strings.ReplaceAll(string(k), keySeparator, "/")
}
