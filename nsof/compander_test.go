package nsof

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reverseCompander struct{}

func (reverseCompander) Compress(data, _ []byte) ([]byte, error) { return reversed(data), nil }

func (reverseCompander) Decompress(data, _ []byte) ([]byte, error) { return reversed(data), nil }

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

func TestLookupCompanderMiss(t *testing.T) {
	assert.Nil(t, LookupCompander("TLZStoreCompander"))
}

func TestLargeBinaryRoundTrip(t *testing.T) {
	RegisterCompander("TReverseCompander", func() Compander { return reverseCompander{} })

	lb := &LargeBinary{
		Class:      Intern("package"),
		Compressed: true,
		Compander:  "TReverseCompander",
		Params:     []byte{1, 2},
		Data:       []byte("olleh"),
	}
	data, err := Marshal(lb)
	require.NoError(t, err)

	// class symbol is followed by flag, four lengths, name, params, data
	header := concat([]byte{Version, tagLargeBinary}, symBytes("package"), []byte{1})
	require.True(t, bytes.HasPrefix(data, header))
	assert.Equal(t, []byte{0, 0, 0, 5, 0, 0, 0, 17, 0, 0, 0, 2, 0, 0, 0, 0}, data[len(header):len(header)+16])

	obj, err := Unmarshal(data)
	require.NoError(t, err)
	got := obj.(*LargeBinary)
	assert.Equal(t, lb, got)

	contents, ok := got.Contents()
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), contents)
}

func TestLargeBinaryUnknownCompander(t *testing.T) {
	lb := &LargeBinary{Compressed: true, Compander: "TUnknownCompander", Data: []byte{1}}
	contents, ok := lb.Contents()
	assert.False(t, ok)
	assert.Nil(t, contents)

	plain := &LargeBinary{Data: []byte{1, 2, 3}}
	contents, ok = plain.Contents()
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, contents)
}
