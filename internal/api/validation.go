package api

import (
	"fmt"
	"regexp"
	"strings"

	"ad-rewards-go/internal/models"
)

const maxContactLength = 255

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	instapayRegex = regexp.MustCompile(`^[a-z0-9._\-]+@instapay$`)
)

// validateCredit normalizes and checks a credit request. A blank ad id is
// recorded as models.UnknownAdId.
func validateCredit(req models.CreditRequest, maxPoints int64) (models.CreditRequest, error) {
	if req.Points < 1 || req.Points > maxPoints {
		return req, fmt.Errorf("%w: points must be between 1 and %d, got %d", ErrInvalidInput, maxPoints, req.Points)
	}
	req.AdId = strings.TrimSpace(req.AdId)
	if req.AdId == "" {
		req.AdId = models.UnknownAdId
	}
	if len(req.AdId) > maxContactLength {
		return req, fmt.Errorf("%w: ad id is longer than %d characters", ErrInvalidInput, maxContactLength)
	}
	return req, nil
}

// validateWithdrawal checks the submission contract before any account state
// is consulted.
func validateWithdrawal(req models.SubmitWithdrawalRequest, minPoints int64) (models.SubmitWithdrawalRequest, error) {
	if req.Points < minPoints {
		return req, fmt.Errorf("%w: minimum withdrawal is %d points, got %d", ErrInvalidInput, minPoints, req.Points)
	}
	if !req.Method.Valid() {
		return req, fmt.Errorf("%w: unsupported withdrawal method %q", ErrInvalidInput, req.Method)
	}

	contact, err := normalizeContact(req.Method, req.ContactInfo)
	if err != nil {
		return req, err
	}
	req.ContactInfo = contact
	return req, nil
}

// normalizeContact trims the contact and checks its shape for the method:
// PayPal pays out to an email address, Vodafone Cash to a phone number and
// InstaPay to either a phone number or an @instapay address.
func normalizeContact(method models.WithdrawalMethod, contact string) (string, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return "", fmt.Errorf("%w: contact info is required", ErrInvalidInput)
	}
	if len(contact) > maxContactLength {
		return "", fmt.Errorf("%w: contact info is longer than %d characters", ErrInvalidInput, maxContactLength)
	}

	switch method {
	case models.MethodPaypal:
		if !emailRegex.MatchString(contact) {
			return "", fmt.Errorf("%w: paypal requires a valid email address", ErrInvalidInput)
		}
	case models.MethodInstapay:
		if strings.Contains(contact, "@") {
			address := strings.ToLower(contact)
			if !instapayRegex.MatchString(address) {
				return "", fmt.Errorf("%w: instapay requires a phone number or a name@instapay address", ErrInvalidInput)
			}
			return address, nil
		}
		return normalizePhone(method, contact)
	default:
		return normalizePhone(method, contact)
	}
	return contact, nil
}

func normalizePhone(method models.WithdrawalMethod, contact string) (string, error) {
	phone := strings.NewReplacer(" ", "", "-", "").Replace(contact)
	if !phoneRegex.MatchString(phone) {
		return "", fmt.Errorf("%w: %s requires a valid phone number", ErrInvalidInput, method)
	}
	return phone, nil
}

func validateStatusFilter(status models.WithdrawalStatus) error {
	switch status {
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
		return nil
	}
	return fmt.Errorf("%w: unknown withdrawal status %q", ErrInvalidInput, status)
}
