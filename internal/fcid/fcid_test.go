package fcid

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestMarshalRoundTrip(t *testing.T) {
	cases := []Fcid{
		New("c1", "ns1"),
		New("my-cluster-7", "flink-prod"),
		New("", ""),
	}
	for _, f := range cases {
		key := f.Marshal()
		got, err := Unmarshal(key)
		assert.NilError(t, err)
		assert.Equal(t, got, f)
	}
}

func TestMarshalFormat(t *testing.T) {
	f := New("c1", "ns1")
	assert.Equal(t, f.Marshal(), "jmMt@c1@ns1")
}

func TestUnmarshalMalformed(t *testing.T) {
	_, err := Unmarshal("not-a-key")
	assert.ErrorContains(t, err, "malformed entity key")

	_, err = Unmarshal("jmMt@onlyone")
	assert.ErrorContains(t, err, "malformed entity key")
}
