// Package oauth1 builds OAuth 1.0a HMAC-SHA1 Authorization headers.
package oauth1

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureMethod = "HMAC-SHA1"
	Version         = "1.0"
)

// Consumer identifies the application making the request.
type Consumer struct {
	Key    string
	Secret string
}

// Token is the access or request token pair acting on behalf of a user.
type Token struct {
	Key    string
	Secret string
}

// Request describes what gets signed. Form carries form-encoded body
// parameters only; JSON and multipart bodies never take part in the
// signature. Extra carries additional oauth_* protocol parameters such as
// oauth_callback or oauth_verifier, which are signed and sent in the header.
type Request struct {
	Method string
	URL    string
	Token  *Token
	Form   url.Values
	Extra  map[string]string
}

// Sign returns the Authorization header value for req. The result is a pure
// function of its inputs, so callers must pass a fresh nonce and timestamp
// for every outgoing request.
func Sign(consumer Consumer, req Request, nonce string, timestamp int64) (string, error) {
	baseURL, query, err := normalizeURL(req.URL)
	if err != nil {
		return "", err
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     consumer.Key,
		"oauth_nonce":            nonce,
		"oauth_signature_method": SignatureMethod,
		"oauth_timestamp":        strconv.FormatInt(timestamp, 10),
		"oauth_version":          Version,
	}
	tokenSecret := ""
	if req.Token != nil {
		oauthParams["oauth_token"] = req.Token.Key
		tokenSecret = req.Token.Secret
	}
	for k, v := range req.Extra {
		oauthParams[k] = v
	}

	var pairs []pair
	for k, v := range oauthParams {
		pairs = append(pairs, pair{PercentEncode(k), PercentEncode(v)})
	}
	for _, values := range []url.Values{query, req.Form} {
		for k, vs := range values {
			for _, v := range vs {
				pairs = append(pairs, pair{PercentEncode(k), PercentEncode(v)})
			}
		}
	}
	sortPairs(pairs)

	base := signatureBase(req.Method, baseURL, pairs)
	key := PercentEncode(consumer.Secret) + "&" + PercentEncode(tokenSecret)

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	oauthParams["oauth_signature"] = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return header(oauthParams), nil
}

// Signer stamps requests with a fresh nonce and timestamp.
type Signer struct {
	Consumer Consumer
	Nonce    func() (string, error)
	Now      func() time.Time
}

func NewSigner(consumer Consumer, nonce func() (string, error)) *Signer {
	return &Signer{Consumer: consumer, Nonce: nonce, Now: time.Now}
}

func (s *Signer) Authorize(req Request) (string, error) {
	nonce, err := s.Nonce()
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return Sign(s.Consumer, req, nonce, s.Now().Unix())
}

type pair struct {
	key   string
	value string
}

func sortPairs(pairs []pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key == pairs[j].key {
			return pairs[i].value < pairs[j].value
		}
		return pairs[i].key < pairs[j].key
	})
}

// signatureBase joins method, base URL and the sorted, already encoded
// parameter pairs into the string that gets signed.
func signatureBase(method, baseURL string, pairs []pair) string {
	params := make([]string, 0, len(pairs))
	for _, p := range pairs {
		params = append(params, p.key+"="+p.value)
	}
	return strings.ToUpper(method) + "&" + PercentEncode(baseURL) + "&" + PercentEncode(strings.Join(params, "&"))
}

func header(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, PercentEncode(k), PercentEncode(params[k])))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// normalizeURL lowercases scheme and host, drops default ports, the query
// and the fragment. The query parameters are returned separately so they
// can join the signed parameter set.
func normalizeURL(raw string) (string, url.Values, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("parse url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", nil, fmt.Errorf("url %q is not absolute", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" {
		if !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
			host += ":" + port
		}
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return scheme + "://" + host + path, u.Query(), nil
}

// PercentEncode escapes everything outside the RFC 3986 unreserved set.
func PercentEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// ParseHeader splits an OAuth Authorization header back into its decoded
// parameters.
func ParseHeader(value string) (map[string]string, error) {
	rest, ok := strings.CutPrefix(value, "OAuth ")
	if !ok {
		return nil, fmt.Errorf("not an OAuth header")
	}
	params := make(map[string]string)
	for _, part := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("malformed parameter %q", part)
		}
		v = strings.Trim(v, `"`)
		decoded, err := url.PathUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", k, err)
		}
		params[k] = decoded
	}
	return params, nil
}
