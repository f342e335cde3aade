package rule_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/rule"
)

type largeRequest struct {
	Size     int64  `json:"size"      rule:"gt=0"`
	SHA256   string `json:"sha256"    rule:"required,sha256hex"`
	MimeType string `json:"mime_type" rule:"omitempty,mimetype"`
	Expire   string `json:"expire"    rule:"omitempty,expire"`
	Secret   string `json:"-"         rule:"max=3"`
}

func TestValidateStructDomainRules(t *testing.T) {
	ok := largeRequest{
		Size:     10,
		SHA256:   strings.Repeat("ab", 32),
		MimeType: "text/plain; charset=utf-8",
		Expire:   "24h",
	}
	require.NoError(t, rule.ValidateStruct(ok))

	bad := largeRequest{SHA256: "xyz", MimeType: "plain", Expire: "-1", Secret: "toolong"}
	err := rule.Errors(rule.ValidateStruct(bad))

	var verrs rule.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "must be greater than 0", verrs["size"])
	assert.Equal(t, "must be 64 hex characters", verrs["sha256"])
	assert.Contains(t, verrs, "mime_type")
	assert.Contains(t, verrs, "expire")
	assert.Len(t, verrs, 5)
	assert.True(t, strings.HasPrefix(err.Error(), "Secret: "))
}

func TestErrorsPassesThroughOtherErrors(t *testing.T) {
	err := assert.AnError
	assert.Same(t, err, rule.Errors(err))
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, rule.ValidateVar("abc123", "alphanum"))
	assert.Error(t, rule.ValidateVar("abc 123", "alphanum"))
	assert.Error(t, rule.ValidateVar("0", "expire"))
	assert.NoError(t, rule.ValidateVar("3600", "expire"))
}

func TestParseExpire(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: " 60 ", want: time.Minute},
		{in: "1.5h", want: 90 * time.Minute},
		{in: "0", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "-1h", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := rule.ParseExpire(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEngineIsShared(t *testing.T) {
	assert.Same(t, rule.Engine(), rule.Engine())
}
