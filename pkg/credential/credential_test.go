package credential_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/credential"
)

func TestSHA256Fingerprint(t *testing.T) {
	// sha256("password") = 5e884898da28047151d0e56f8dc62927...
	assert.Equal(t, "5e884898da280471", credential.SHA256Fingerprint("password"))
	assert.Len(t, credential.SHA256Fingerprint("x"), credential.FingerprintLength)
}

func TestValidate(t *testing.T) {
	h, err := credential.New("", 8)
	require.NoError(t, err)

	assert.NoError(t, h.Validate("abc123"))
	assert.ErrorIs(t, h.Validate(""), credential.ErrEmpty)
	assert.ErrorIs(t, h.Validate("abc 123"), credential.ErrFormat)
	assert.ErrorIs(t, h.Validate("päss"), credential.ErrFormat)
	assert.ErrorIs(t, h.Validate("abcdefghi"), credential.ErrTooLong)
}

func TestVerifySHA256(t *testing.T) {
	h, err := credential.New(credential.SchemeSHA256, 0)
	require.NoError(t, err)

	fp, err := h.Fingerprint("s3cret")
	require.NoError(t, err)
	assert.Len(t, fp, credential.FingerprintLength)

	assert.True(t, h.Verify("s3cret", fp))
	assert.True(t, h.Verify("s3cret", strings.ToUpper(fp)))
	assert.False(t, h.Verify("S3cret", fp))
	assert.False(t, h.Verify("", fp))
	assert.False(t, h.Verify("s3cret", ""))
}

func TestVerifyBcrypt(t *testing.T) {
	h, err := credential.New(credential.SchemeBcrypt, 0)
	require.NoError(t, err)

	fp, err := h.Fingerprint("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fp, "$2"))
	assert.True(t, h.Verify("s3cret", fp))
	assert.False(t, h.Verify("other", fp))

	// sha256-16 方案的 Hasher 仍能校验 bcrypt 指纹
	legacy, err := credential.New(credential.SchemeSHA256, 0)
	require.NoError(t, err)
	assert.True(t, legacy.Verify("s3cret", fp))
}

func TestNewUnknownScheme(t *testing.T) {
	_, err := credential.New("md5", 0)
	assert.Error(t, err)
}
