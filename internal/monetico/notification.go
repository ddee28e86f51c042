package monetico

import (
	"errors"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// DateTimeFormat is the layout of the "date" field, e.g. 05/03/2024_a_14:02:59.
const DateTimeFormat = "02/01/2006_a_15:04:05"

// GatewayTimezone is the zone the gateway writes the "date" field in.
const GatewayTimezone = "Europe/Paris"

var gatewayLocation = mustLoadLocation(GatewayTimezone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Gateway field names.
const (
	FieldEPTCode                = "TPE"
	FieldDate                   = "date"
	FieldAmount                 = "montant"
	FieldReference              = "reference"
	FieldSeal                   = SealField
	FieldAuthentication         = "authentification"
	FieldDescription            = "texte-libre"
	FieldReturnCode             = "code-retour"
	FieldCardVerificationStatus = "cvx"
	FieldCardExpirationDate     = "vld"
	FieldCardBrand              = "brand"
	FieldAuthNumber             = "numauto"
	FieldCardCountry            = "originecb"
	FieldCardBIN                = "bincb"
	FieldCardHash               = "hpancb"
	FieldClientIP               = "ipclient"
	FieldTransactionCountry     = "originetr"

	FieldPaymentMethod    = "modepaiement"
	FieldCommitmentAmount = "montantech"
	FieldCardBookmarked   = "cbenregistree"
	FieldCardMask         = "cbmasquee"
	FieldFilteredReason   = "filtragecause"
	FieldRejectReason     = "motifrefus"
	FieldFilteredValue    = "filtragevaleur"
	FieldFilteredStatus   = "filtrage_etat"
)

// requiredFields are checked in this order; the first missing one is reported.
var requiredFields = []string{
	FieldEPTCode,
	FieldDate,
	FieldAmount,
	FieldReference,
	FieldSeal,
	FieldAuthentication,
	FieldDescription,
	FieldReturnCode,
	FieldCardVerificationStatus,
	FieldCardExpirationDate,
	FieldCardBrand,
	FieldAuthNumber,
	FieldCardCountry,
	FieldCardBIN,
	FieldCardHash,
	FieldClientIP,
	FieldTransactionCountry,
}

const (
	ReturnCodeTest              = "payetest"
	ReturnCodePayment           = "paiement"
	ReturnCodeCancellation      = "Annulation"
	ReturnCodePaymentPF2        = "paiement_pf2"
	ReturnCodePaymentPF3        = "paiement_pf3"
	ReturnCodePaymentPF4        = "paiement_pf4"
	ReturnCodeCancellationPF2   = "Annulation_pf2"
	ReturnCodeCancellationPF3   = "Annulation_pf3"
	ReturnCodeCancellationPF4   = "Annulation_pf4"
	CardVerificationStatusYes   = "oui"
	CardVerificationStatusNo    = "non"
	CardBrandNotAvailable       = "na"
	PaymentMethodCard           = "CB"
	PaymentMethodThreeTimesCard = "3xcb"
)

var (
	returnCodes = []string{
		ReturnCodeTest,
		ReturnCodePayment,
		ReturnCodeCancellation,
		ReturnCodePaymentPF2,
		ReturnCodePaymentPF3,
		ReturnCodePaymentPF4,
		ReturnCodeCancellationPF2,
		ReturnCodeCancellationPF3,
		ReturnCodeCancellationPF4,
	}

	cardVerificationStatuses = []string{CardVerificationStatusYes, CardVerificationStatusNo}

	cardBrands = map[string]string{
		"AM":                  "American Express",
		"CB":                  "GIE CB",
		"MC":                  "Mastercard",
		"VI":                  "Visa",
		CardBrandNotAvailable: "Non disponible",
	}

	rejectReasons = []string{"Appel Phonie", "Refus", "Interdit", "filtrage", "scoring", "3DSecure"}

	paymentMethods = []string{PaymentMethodCard, "paypal", "1euro", PaymentMethodThreeTimesCard, "4cb", "audiotel"}

	filteredReasons = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 11, 12, 13, 14, 15, 16}
)

// RequiredFields returns the mandatory gateway fields in the order they are
// checked.
func RequiredFields() []string { return slices.Clone(requiredFields) }

func ReturnCodes() []string { return slices.Clone(returnCodes) }

// CardBrands maps each accepted brand code to its display name.
func CardBrands() map[string]string { return maps.Clone(cardBrands) }

func RejectReasons() []string { return slices.Clone(rejectReasons) }

func PaymentMethods() []string { return slices.Clone(paymentMethods) }

func FilteredReasons() []int { return slices.Clone(filteredReasons) }

// Notification is a validated payment notification. It is not modified after
// ParseNotification returns it.
type Notification struct {
	EPTCode                string
	DateTime               time.Time
	Amount                 string
	Reference              string
	Seal                   string
	Description            string
	ReturnCode             string
	CardVerificationStatus string
	CardExpirationDate     string
	CardBrand              string
	CardCountry            string
	AuthNumber             string
	CardBIN                string
	CardHash               string
	ClientIP               string
	TransactionCountry     string
	Authentication         *Authentication
	AuthenticationHash     string

	PaymentMethod    *string
	CommitmentAmount *string
	CardBookmarked   *bool
	CardMask         *string

	FilteredReason *int
	RejectReason   *string
	FilteredValue  *string
	FilteredStatus *string

	fields map[string]string
}

// ParseNotification validates the fields posted by the gateway. Checks run in
// a fixed order and the first failure aborts the parse. The date is read in
// GatewayTimezone.
func ParseNotification(fields map[string]string) (*Notification, error) {
	return ParseNotificationInLocation(fields, gatewayLocation)
}

// ParseNotificationInLocation is ParseNotification with the date read in loc.
func ParseNotificationInLocation(fields map[string]string, loc *time.Location) (*Notification, error) {
	for _, key := range requiredFields {
		if _, ok := fields[key]; !ok {
			return nil, fieldError(ErrMissingField, key, "")
		}
	}

	dateTime, err := time.ParseInLocation(DateTimeFormat, fields[FieldDate], loc)
	if err != nil {
		return nil, &FieldError{Field: FieldDate, Value: fields[FieldDate], Kind: ErrInvalidDateTime, Err: err}
	}

	n := &Notification{
		EPTCode:                fields[FieldEPTCode],
		DateTime:               dateTime,
		Amount:                 fields[FieldAmount],
		Reference:              fields[FieldReference],
		Seal:                   fields[FieldSeal],
		Description:            fields[FieldDescription],
		AuthenticationHash:     fields[FieldAuthentication],
		ReturnCode:             fields[FieldReturnCode],
		CardVerificationStatus: fields[FieldCardVerificationStatus],
		CardExpirationDate:     fields[FieldCardExpirationDate],
		CardBrand:              fields[FieldCardBrand],
		CardCountry:            fields[FieldCardCountry],
		AuthNumber:             fields[FieldAuthNumber],
		CardBIN:                fields[FieldCardBIN],
		CardHash:               fields[FieldCardHash],
		ClientIP:               fields[FieldClientIP],
		TransactionCountry:     fields[FieldTransactionCountry],
		fields:                 maps.Clone(fields),
	}

	if !slices.Contains(returnCodes, n.ReturnCode) {
		return nil, fieldError(ErrInvalidReturnCode, FieldReturnCode, n.ReturnCode)
	}
	if !slices.Contains(cardVerificationStatuses, n.CardVerificationStatus) {
		return nil, fieldError(ErrInvalidCardVerificationStatus, FieldCardVerificationStatus, n.CardVerificationStatus)
	}
	if _, ok := cardBrands[n.CardBrand]; !ok {
		return nil, fieldError(ErrInvalidCardBrand, FieldCardBrand, n.CardBrand)
	}

	n.Authentication, err = DecodeAuthentication(n.AuthenticationHash)
	if err != nil {
		return nil, &FieldError{Field: FieldAuthentication, Kind: ErrInvalidAuthentication, Err: err}
	}

	if err := n.setOptions(fields); err != nil {
		return nil, err
	}
	if err := n.setErrorOptions(fields); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Notification) setOptions(fields map[string]string) error {
	if v, ok := fields[FieldPaymentMethod]; ok {
		if !slices.Contains(paymentMethods, v) {
			return fieldError(ErrInvalidPaymentMethod, FieldPaymentMethod, v)
		}
		n.PaymentMethod = &v
	}
	if v, ok := fields[FieldCommitmentAmount]; ok {
		n.CommitmentAmount = &v
	}
	if v, ok := fields[FieldCardBookmarked]; ok {
		bookmarked := v != "" && v != "0"
		n.CardBookmarked = &bookmarked
	}
	if v, ok := fields[FieldCardMask]; ok {
		n.CardMask = &v
	}
	return nil
}

func (n *Notification) setErrorOptions(fields map[string]string) error {
	if v, ok := fields[FieldFilteredReason]; ok {
		reason, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &FieldError{Field: FieldFilteredReason, Value: v, Kind: ErrInvalidFilteredReason, Err: err}
		}
		if !slices.Contains(filteredReasons, reason) {
			return fieldError(ErrInvalidFilteredReason, FieldFilteredReason, v)
		}
		n.FilteredReason = &reason
	}
	if v, ok := fields[FieldRejectReason]; ok {
		if !slices.Contains(rejectReasons, v) {
			return fieldError(ErrInvalidRejectReason, FieldRejectReason, v)
		}
		n.RejectReason = &v
	}
	if v, ok := fields[FieldFilteredValue]; ok {
		n.FilteredValue = &v
	}
	if v, ok := fields[FieldFilteredStatus]; ok {
		n.FilteredStatus = &v
	}
	return nil
}

// VerifySeal checks the received seal against the fields the notification
// was parsed from, including any the record does not model. Both come from
// the private copy, so edits to the exported fields do not affect the check.
func (n *Notification) VerifySeal(securityKey string) bool {
	return VerifySeal(n.fields, n.fields[SealField], securityKey)
}

// RawFields returns a copy of the mapping the notification was parsed from.
func (n *Notification) RawFields() map[string]string {
	return maps.Clone(n.fields)
}

// Fields re-encodes the notification into the gateway's field set, without
// the seal. Optional fields appear only when they were received.
func (n *Notification) Fields(eptCode string) map[string]string {
	fields := map[string]string{
		FieldEPTCode:                eptCode,
		FieldAuthentication:         n.AuthenticationHash,
		FieldCardBIN:                n.CardBIN,
		FieldCardBrand:              n.CardBrand,
		FieldReturnCode:             n.ReturnCode,
		FieldCardVerificationStatus: n.CardVerificationStatus,
		FieldDate:                   n.DateTime.Format(DateTimeFormat),
		FieldCardHash:               n.CardHash,
		FieldClientIP:               n.ClientIP,
		FieldAmount:                 n.Amount,
		FieldAuthNumber:             n.AuthNumber,
		FieldCardCountry:            n.CardCountry,
		FieldTransactionCountry:     n.TransactionCountry,
		FieldReference:              n.Reference,
		FieldDescription:            n.Description,
		FieldCardExpirationDate:     n.CardExpirationDate,
	}

	setOptional(fields, FieldPaymentMethod, n.PaymentMethod)
	setOptional(fields, FieldRejectReason, n.RejectReason)
	setOptional(fields, FieldCommitmentAmount, n.CommitmentAmount)
	setOptional(fields, FieldFilteredValue, n.FilteredValue)
	setOptional(fields, FieldFilteredStatus, n.FilteredStatus)
	setOptional(fields, FieldCardMask, n.CardMask)
	if n.FilteredReason != nil {
		fields[FieldFilteredReason] = strconv.Itoa(*n.FilteredReason)
	}
	if n.CardBookmarked != nil {
		fields[FieldCardBookmarked] = "0"
		if *n.CardBookmarked {
			fields[FieldCardBookmarked] = "1"
		}
	}
	return fields
}

func setOptional(fields map[string]string, key string, value *string) {
	if value != nil {
		fields[key] = *value
	}
}

// CardBrandLabel returns the display name of the card brand.
func (n *Notification) CardBrandLabel() string {
	return cardBrands[n.CardBrand]
}

// IsTest reports a notification emitted by the test environment.
func (n *Notification) IsTest() bool {
	return n.ReturnCode == ReturnCodeTest
}

// IsPaid reports an accepted payment, test payments included.
func (n *Notification) IsPaid() bool {
	return n.ReturnCode == ReturnCodeTest || strings.HasPrefix(n.ReturnCode, ReturnCodePayment)
}

// IsCanceled reports a refused or canceled payment.
func (n *Notification) IsCanceled() bool {
	return strings.HasPrefix(n.ReturnCode, ReturnCodeCancellation)
}

// Installment returns the installment number of a split payment ("_pfN"
// suffix), or 1 for a single payment.
func (n *Notification) Installment() int {
	_, suffix, found := strings.Cut(n.ReturnCode, "_pf")
	if !found {
		return 1
	}
	i, err := strconv.Atoi(suffix)
	if err != nil {
		return 1
	}
	return i
}

// ErrorKind maps a parse error to a short label for logs and metrics.
// Authentication kinds come first since they wrap the generic ones.
func ErrorKind(err error) string {
	kinds := []struct {
		err   error
		label string
	}{
		{ErrAuthenticationDecode, "authentication_decode"},
		{ErrInvalidAuthentication, "invalid_authentication"},
		{ErrMissingAuthenticationField, "missing_authentication_field"},
		{ErrMissingField, "missing_field"},
		{ErrInvalidDateTime, "invalid_date"},
		{ErrInvalidReturnCode, "invalid_return_code"},
		{ErrInvalidCardVerificationStatus, "invalid_cvx"},
		{ErrInvalidCardBrand, "invalid_brand"},
		{ErrInvalidPaymentMethod, "invalid_payment_method"},
		{ErrInvalidFilteredReason, "invalid_filtered_reason"},
		{ErrInvalidRejectReason, "invalid_reject_reason"},
		{ErrSealMismatch, "seal_mismatch"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	return "unknown"
}
