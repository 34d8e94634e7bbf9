package persist

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigestIsBlake2b256(t *testing.T) {
	d := Digest("")
	assert.Len(t, d, 32)
	assert.Equal(t,
		"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		hex.EncodeToString(d),
	)
}

func TestVerifyDigest(t *testing.T) {
	d := Digest("BM 3 0 0")
	assert.True(t, VerifyDigest("BM 3 0 0", d))
	assert.False(t, VerifyDigest("BM 3 3 0", d))
	assert.False(t, VerifyDigest("BM 3 0 0", d[:16]))
	assert.False(t, VerifyDigest("BM 3 0 0", nil))
}

func TestSaveBatchEmptyIsNoop(t *testing.T) {
	// No pool needed when there is nothing to write.
	r := NewInstanceRepo(nil)
	assert.NoError(t, r.SaveBatch(context.Background(), nil))
}
