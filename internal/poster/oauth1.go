package poster

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// oauth1Header builds an OAuth 1.0a Authorization header (HMAC-SHA1) for a
// request with no query parameters and a JSON body, which is all the v2
// posting endpoint needs.
func oauth1Header(creds Credentials, method, requestURL string) string {
	params := map[string]string{
		"oauth_consumer_key":     creds.APIKey,
		"oauth_nonce":            nonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        fmt.Sprintf("%d", time.Now().Unix()),
		"oauth_token":            creds.AccessToken,
		"oauth_version":          "1.0",
	}
	params["oauth_signature"] = sign(creds, method, requestURL, params)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, percentEncode(k), percentEncode(params[k])))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

func sign(creds Credentials, method, requestURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(params[k]))
	}

	base := strings.Join([]string{
		method,
		percentEncode(requestURL),
		percentEncode(strings.Join(pairs, "&")),
	}, "&")

	key := percentEncode(creds.APISecret) + "&" + percentEncode(creds.AccessSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode implements RFC 3986 encoding as OAuth requires, which
// differs from url.QueryEscape for spaces and a few reserved characters.
func percentEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	encoded = strings.ReplaceAll(encoded, "%7E", "~")
	return encoded
}

func nonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
