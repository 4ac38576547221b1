package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBech32EncodePrefixesHRPAndSeparator(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	addr, err := bech32Encode("cosmos", data)
	require.NoError(t, err)
	assert.Contains(t, addr, "cosmos1")
}

func TestConvertBitsPads(t *testing.T) {
	out := convertBits([]byte{0xff}, 8, 5, true)
	assert.NotEmpty(t, out)
	for _, v := range out {
		assert.Less(t, v, byte(32))
	}
}

func TestDecodeKeyAutoHexAndBase64(t *testing.T) {
	hexKey := "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	b, err := decodeKeyAuto(hexKey)
	require.NoError(t, err)
	assert.Len(t, b, 32)

	b2, err := decodeKeyAuto("0x" + hexKey)
	require.NoError(t, err)
	assert.Equal(t, b, b2)
}

func TestSortedQueryString(t *testing.T) {
	s := sortedQueryString(map[string]string{"b": "2", "a": "1", "c": "3"})
	assert.Equal(t, "a=1&b=2&c=3", s)
}

func TestSortedQueryStringEmpty(t *testing.T) {
	assert.Equal(t, "", sortedQueryString(nil))
}
