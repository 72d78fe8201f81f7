package oauth1

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	docConsumer = Consumer{
		Key:    "xvz1evFS4wEEPTGEFPHBog",
		Secret: "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw",
	}
	docToken = &Token{
		Key:    "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
		Secret: "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
	}
)

const (
	docNonce     = "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg"
	docTimestamp = int64(1318622958)
)

func docRequest() Request {
	return Request{
		Method: "POST",
		URL:    "https://api.twitter.com/1.1/statuses/update.json?include_entities=true",
		Token:  docToken,
		Form:   url.Values{"status": {"Hello Ladies + Gentlemen, a signed OAuth request!"}},
	}
}

func TestSignMatchesPublishedExample(t *testing.T) {
	header, err := Sign(docConsumer, docRequest(), docNonce, docTimestamp)
	require.NoError(t, err)

	expected := `OAuth oauth_consumer_key="xvz1evFS4wEEPTGEFPHBog", ` +
		`oauth_nonce="kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg", ` +
		`oauth_signature="hCtSmYh%2BiHYCEqBWrE7C7hYmtUk%3D", ` +
		`oauth_signature_method="HMAC-SHA1", ` +
		`oauth_timestamp="1318622958", ` +
		`oauth_token="370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb", ` +
		`oauth_version="1.0"`
	assert.Equal(t, expected, header)
}

func TestSignIsDeterministic(t *testing.T) {
	req := Request{Method: "POST", URL: "https://api.twitter.com/2/tweets", Token: docToken}

	first, err := Sign(docConsumer, req, "abc123", 1700000000)
	require.NoError(t, err)
	second, err := Sign(docConsumer, req, "abc123", 1700000000)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSignChangesWithTimestampAndNonce(t *testing.T) {
	req := Request{Method: "POST", URL: "https://api.twitter.com/2/tweets", Token: docToken}

	base, err := Sign(docConsumer, req, "abc123", 1700000000)
	require.NoError(t, err)
	later, err := Sign(docConsumer, req, "abc123", 1700000001)
	require.NoError(t, err)
	otherNonce, err := Sign(docConsumer, req, "abc124", 1700000000)
	require.NoError(t, err)

	assert.NotEqual(t, base, later)
	assert.NotEqual(t, base, otherNonce)

	baseParams, err := ParseHeader(base)
	require.NoError(t, err)
	laterParams, err := ParseHeader(later)
	require.NoError(t, err)
	assert.NotEqual(t, baseParams["oauth_signature"], laterParams["oauth_signature"])
}

func TestSignWithoutTokenOmitsOAuthToken(t *testing.T) {
	req := Request{
		Method: "POST",
		URL:    "https://api.twitter.com/oauth/request_token",
		Extra:  map[string]string{"oauth_callback": "http://localhost:3000/auth/twitter/callback"},
	}

	header, err := Sign(docConsumer, req, "nonce", 1700000000)
	require.NoError(t, err)

	params, err := ParseHeader(header)
	require.NoError(t, err)
	_, hasToken := params["oauth_token"]
	assert.False(t, hasToken)
	assert.Equal(t, "http://localhost:3000/auth/twitter/callback", params["oauth_callback"])
	assert.Contains(t, header, `oauth_callback="http%3A%2F%2Flocalhost%3A3000%2Fauth%2Ftwitter%2Fcallback"`)
}

func TestSignHeaderKeysAreSorted(t *testing.T) {
	header, err := Sign(docConsumer, Request{Method: "GET", URL: "https://api.twitter.com/1.1/account/verify_credentials.json", Token: docToken}, "n", 1)
	require.NoError(t, err)

	rest := strings.TrimPrefix(header, "OAuth ")
	var keys []string
	for _, part := range strings.Split(rest, ", ") {
		k, _, _ := strings.Cut(part, "=")
		keys = append(keys, k)
	}
	assert.Equal(t, []string{
		"oauth_consumer_key",
		"oauth_nonce",
		"oauth_signature",
		"oauth_signature_method",
		"oauth_timestamp",
		"oauth_token",
		"oauth_version",
	}, keys)
}

func TestSignFormParametersAffectSignature(t *testing.T) {
	withForm := docRequest()
	withoutForm := docRequest()
	withoutForm.Form = nil

	a, err := Sign(docConsumer, withForm, docNonce, docTimestamp)
	require.NoError(t, err)
	b, err := Sign(docConsumer, withoutForm, docNonce, docTimestamp)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSignNormalizesURL(t *testing.T) {
	req := Request{Method: "post", URL: "HTTPS://API.Twitter.com:443/2/tweets#frag", Token: docToken}
	normalized := Request{Method: "POST", URL: "https://api.twitter.com/2/tweets", Token: docToken}

	a, err := Sign(docConsumer, req, "n", 10)
	require.NoError(t, err)
	b, err := Sign(docConsumer, normalized, "n", 10)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSignRejectsRelativeURL(t *testing.T) {
	_, err := Sign(docConsumer, Request{Method: "POST", URL: "/2/tweets"}, "n", 1)
	assert.Error(t, err)
}

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcXYZ019-._~", "abcXYZ019-._~"},
		{"Ladies + Gentlemen", "Ladies%20%2B%20Gentlemen"},
		{"a=b&c", "a%3Db%26c"},
		{"☃", "%E2%98%83"},
		{"*!'()", "%2A%21%27%28%29"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentEncode(tt.in), tt.in)
	}
}

func TestSignerAuthorizeUsesFreshValues(t *testing.T) {
	nonces := []string{"first", "second"}
	calls := 0
	signer := NewSigner(docConsumer, func() (string, error) {
		n := nonces[calls]
		calls++
		return n, nil
	})
	signer.Now = func() time.Time { return time.Unix(1700000000, 0) }

	req := Request{Method: "POST", URL: "https://api.twitter.com/2/tweets", Token: docToken}
	a, err := signer.Authorize(req)
	require.NoError(t, err)
	b, err := signer.Authorize(req)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	expected, err := Sign(docConsumer, req, "first", 1700000000)
	require.NoError(t, err)
	assert.Equal(t, expected, a)
}

func TestSignerAuthorizeNonceFailure(t *testing.T) {
	signer := NewSigner(docConsumer, func() (string, error) { return "", errors.New("entropy exhausted") })
	_, err := signer.Authorize(Request{Method: "GET", URL: "https://api.twitter.com/"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate nonce")
}

func TestParseHeaderRejectsOtherSchemes(t *testing.T) {
	_, err := ParseHeader("Bearer abc")
	assert.Error(t, err)
}
