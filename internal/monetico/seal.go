package monetico

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// SealField is the gateway key carrying the seal. It is never part of the
// signed payload.
const SealField = "MAC"

const pairSeparator = "*"

// Canonicalize rebuilds the exact string the gateway signed: keys sorted
// bytewise, pairs form-encoded and joined with "*", then decoded once.
func Canonicalize(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == SealField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(fields[k]))
	}
	query := strings.Join(pairs, pairSeparator)

	decoded, err := url.QueryUnescape(query)
	if err != nil {
		// unreachable: every '%' was escaped above
		return query
	}
	return decoded
}

// ComputeSeal returns the uppercase hex HMAC-SHA1 of the canonical payload.
func ComputeSeal(fields map[string]string, key string) string {
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(Canonicalize(fields)))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// VerifySeal compares case-sensitively: a lowercase seal does not match.
func VerifySeal(fields map[string]string, receivedSeal, key string) bool {
	expected := ComputeSeal(fields, key)
	return hmac.Equal([]byte(expected), []byte(receivedSeal))
}
