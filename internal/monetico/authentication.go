package monetico

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
)

const (
	ProtocolThreeDSecure = "3DSecure"

	StatusAuthenticated              = "authenticated"
	StatusAuthenticationNotPerformed = "authentication_not_performed"
	StatusNotAuthenticated           = "not_authenticated"
	StatusAuthenticationRejected     = "authentication_rejected"
	StatusAuthenticationAttempted    = "authentication_attempted"
	StatusNotEnrolled                = "not_enrolled"
	StatusDisabled                   = "disabled"
	StatusError                      = "error"
)

// Keys of the authentication details object.
const (
	DetailLiabilityShift      = "liabilityShift"
	DetailVERes               = "VERes"
	DetailPARes               = "PARes"
	DetailARes                = "ARes"
	DetailCRes                = "CRes"
	DetailMerchantPreference  = "merchantPreference"
	DetailTransactionID       = "transactionID"
	DetailAuthenticationValue = "authenticationValue"
	DetailDDDSStatus          = "status3DS"
	DetailDisablingReason     = "disablingReason"
)

var (
	authenticationProtocols = []string{ProtocolThreeDSecure}

	authenticationStatuses = []string{
		StatusAuthenticated,
		StatusAuthenticationNotPerformed,
		StatusNotAuthenticated,
		StatusAuthenticationRejected,
		StatusAuthenticationAttempted,
		StatusNotEnrolled,
		StatusDisabled,
		StatusError,
	}

	authenticationVersions = []string{"1.0.2", "2.1.0", "2.2.0"}

	liabilityShifts = []string{"Y", "N"}
	veresCodes      = []string{"Y", "N", "U"}
	paresCodes      = []string{"Y", "U", "A", "N"}
	aresCodes       = []string{"Y", "R", "C", "U", "A", "N"}
	cresCodes       = []string{"Y", "N"}

	merchantPreferences = []string{
		"no_preference",
		"challenge_preferred",
		"challenge_mandated",
		"no_challenge_requested",
		"no_challenge_requested_strong_authentication",
		"no_challenge_requested_trusted_third_party",
		"no_challenge_requested_risk_analysis",
	}

	dddsStatuses = []int{-1, 1, 4}

	disablingReasons = []string{"commercant", "seuilnonatteint", "scoring"}
)

// AuthenticationStatuses returns the accepted authentication statuses.
func AuthenticationStatuses() []string { return slices.Clone(authenticationStatuses) }

// AuthenticationVersions returns the accepted 3-D Secure versions.
func AuthenticationVersions() []string { return slices.Clone(authenticationVersions) }

func MerchantPreferences() []string { return slices.Clone(merchantPreferences) }

func DDDSStatuses() []int { return slices.Clone(dddsStatuses) }

// detail checks run in this order so the first reported error is stable.
var detailRules = []struct {
	key   string
	kind  error
	codes []string
}{
	{DetailLiabilityShift, ErrInvalidLiabilityShift, liabilityShifts},
	{DetailVERes, ErrInvalidVERes, veresCodes},
	{DetailPARes, ErrInvalidPARes, paresCodes},
	{DetailARes, ErrInvalidARes, aresCodes},
	{DetailCRes, ErrInvalidCRes, cresCodes},
	{DetailMerchantPreference, ErrInvalidMerchantPreference, merchantPreferences},
	{DetailDisablingReason, ErrInvalidDisablingReason, disablingReasons},
}

// Authentication is the 3-D Secure outcome attached to a notification.
type Authentication struct {
	Protocol string
	Status   string
	Version  string
	details  map[string]any
}

// NewAuthentication validates protocol, status, version and every known
// detail that is present. Unknown detail keys are kept as is.
func NewAuthentication(protocol, status, version string, details map[string]any) (*Authentication, error) {
	if !slices.Contains(authenticationProtocols, protocol) {
		return nil, fieldError(ErrInvalidProtocol, "protocol", protocol)
	}
	if !slices.Contains(authenticationStatuses, status) {
		return nil, fieldError(ErrInvalidStatus, "status", status)
	}
	if !slices.Contains(authenticationVersions, version) {
		return nil, fieldError(ErrInvalidVersion, "version", version)
	}

	for _, rule := range detailRules {
		v, ok := details[rule.key]
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString || !slices.Contains(rule.codes, s) {
			return nil, fieldError(rule.kind, rule.key, fmt.Sprint(v))
		}
	}

	if v, ok := details[DetailDDDSStatus]; ok {
		code, err := toInt(v)
		if err != nil || !slices.Contains(dddsStatuses, code) {
			return nil, fieldError(ErrInvalidDDDSStatus, DetailDDDSStatus, fmt.Sprint(v))
		}
	}

	auth := &Authentication{
		Protocol: protocol,
		Status:   status,
		Version:  version,
		details:  make(map[string]any, len(details)),
	}
	maps.Copy(auth.details, details)
	return auth, nil
}

// DecodeAuthentication decodes the base64 JSON blob sent in the
// "authentification" field.
func DecodeAuthentication(blob string) (*Authentication, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, &FieldError{Field: "authentification", Kind: ErrAuthenticationDecode, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, &FieldError{Field: "authentification", Kind: ErrAuthenticationDecode, Err: err}
	}
	if payload == nil {
		return nil, &FieldError{Field: "authentification", Kind: ErrAuthenticationDecode, Err: fmt.Errorf("not an object")}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, &FieldError{Field: "authentification", Kind: ErrAuthenticationDecode, Err: fmt.Errorf("trailing data after object")}
	}

	required := make(map[string]string, 3)
	for _, key := range []string{"protocol", "status", "version"} {
		v, ok := payload[key]
		if !ok || v == nil {
			return nil, fieldError(ErrMissingAuthenticationField, key, "")
		}
		required[key] = fmt.Sprint(v)
	}

	details := map[string]any{}
	switch d := payload["details"].(type) {
	case nil:
	case map[string]any:
		details = d
	default:
		return nil, &FieldError{Field: "details", Kind: ErrAuthenticationDecode, Err: fmt.Errorf("details is %T, not an object", d)}
	}

	return NewAuthentication(required["protocol"], required["status"], required["version"], details)
}

// Details returns a copy of the details object.
func (a *Authentication) Details() map[string]any {
	return maps.Clone(a.details)
}

// Detail returns a single detail value, if present.
func (a *Authentication) Detail(key string) (any, bool) {
	v, ok := a.details[key]
	return v, ok
}

func (a *Authentication) LiabilityShift() (bool, bool) {
	v, ok := a.details[DetailLiabilityShift]
	if !ok {
		return false, false
	}
	return v == "Y", true
}

func (a *Authentication) TransactionID() string {
	s, _ := a.details[DetailTransactionID].(string)
	return s
}

func (a *Authentication) DDDSStatus() (int, bool) {
	v, ok := a.details[DetailDDDSStatus]
	if !ok {
		return 0, false
	}
	code, err := toInt(v)
	if err != nil {
		return 0, false
	}
	return code, true
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
