package payment

import (
	"strings"
)

// ReferencePrefix marks transaction references created by this service.
const ReferencePrefix = "ESL-"

func BuildReference(orderID string) string {
	return ReferencePrefix + orderID
}

// ParseReference extracts the order id from an ESL-<orderId> reference.
func ParseReference(reference string) (string, error) {
	reference = strings.TrimSpace(reference)
	if !strings.HasPrefix(reference, ReferencePrefix) {
		return "", ErrInvalidReference
	}

	orderID := strings.TrimPrefix(reference, ReferencePrefix)
	if orderID == "" {
		return "", ErrInvalidReference
	}
	return orderID, nil
}
