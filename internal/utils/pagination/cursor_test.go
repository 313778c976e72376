package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	in := Cursor{CreatedUnix: 1710417600123, ProductID: "6f1c9b1e-7a52-4d2e-9a51-0c1d2e3f4a5b"}
	token, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_EmptyIsFirstPage(t *testing.T) {
	c, err := Decode("")
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestDecode_Rejects(t *testing.T) {
	for _, tok := range []string{"%%%", "bm90LWpzb24=", "e30="} { // garbage, "not-json", "{}"
		_, err := Decode(tok)
		assert.Error(t, err, tok)
	}
}
