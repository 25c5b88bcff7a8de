package osm

import "fmt"

// Tags is the string key/value annotation set attached to an element.
// Keys are unique; insertion order is irrelevant.
type Tags map[string]string

// TagKeyError reports an exact-match lookup on a key that is not present.
type TagKeyError struct {
	Key string
}

func (e *TagKeyError) Error() string {
	return fmt.Sprintf("tag key %q not present", e.Key)
}

// Get returns the value for key, or a *TagKeyError when the key is absent.
func (t Tags) Get(key string) (string, error) {
	v, ok := t[key]
	if !ok {
		return "", &TagKeyError{Key: key}
	}
	return v, nil
}

// GetOr returns the value for key, or def when the key is absent.
func (t Tags) GetOr(key, def string) string {
	if v, ok := t[key]; ok {
		return v
	}
	return def
}

// Has reports whether key is present.
func (t Tags) Has(key string) bool {
	_, ok := t[key]
	return ok
}
