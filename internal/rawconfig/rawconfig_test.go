package rawconfig

import (
	"testing"

	"gotest.tools/v3/assert"
)

func strp(s string) *string { return &s }

func TestElideDropsEmptyAndUnwrapsNonEmpty(t *testing.T) {
	entries := []Entry{
		{Key: "a", Value: strp("")},
		{Key: "b", Value: (*string)(nil)},
		{Key: "c", Value: strp("x")},
		{Key: "d", Value: []string(nil)},
		{Key: "e", Value: []string{}},
		{Key: "f", Value: []string{"v"}},
		{Key: "g", Value: 0},
		{Key: "h", Value: false},
	}
	got := Elide(entries)

	want := map[string]any{"c": "x", "f": []string{"v"}, "g": 0, "h": false}
	assert.Equal(t, len(got), len(want))
	for _, e := range got {
		assert.DeepEqual(t, e.Value, want[e.Key])
	}
}

func TestEncodeValueMapJoinsInInsertionOrder(t *testing.T) {
	om := NewOrderedMap([]string{"z", "a"}, map[string]string{"z": "1", "a": "2"})
	assert.Equal(t, EncodeValue(om), "z=1;a=2")
}

func TestEncodeValueCollectionJoinsBySemicolon(t *testing.T) {
	assert.Equal(t, EncodeValue([]string{"one", "two", "three"}), "one;two;three")
}

func TestEncodeValueScalars(t *testing.T) {
	assert.Equal(t, EncodeValue(true), "true")
	assert.Equal(t, EncodeValue(false), "false")
	assert.Equal(t, EncodeValue(1920), "1920")
	assert.Equal(t, EncodeValue(1.5), "1.5")
	assert.Equal(t, EncodeValue("x"), "x")
}
