package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeFromGateway(t *testing.T) {
	tests := []struct {
		status string
		want   Outcome
	}{
		{"successful", OutcomeSucceeded},
		{"failed", OutcomeFailed},
		{"cancelled", OutcomeFailed},
		{"pending", OutcomeFailed},
		{"Successful", OutcomeFailed},
		{"", OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, OutcomeFromGateway(tt.status))
		})
	}
}

func TestOutcome_Statuses(t *testing.T) {
	status, paymentStatus := OutcomeSucceeded.Statuses()
	assert.Equal(t, StatusConfirmed, status)
	assert.Equal(t, PaymentStatusCompleted, paymentStatus)

	status, paymentStatus = OutcomeFailed.Statuses()
	assert.Equal(t, StatusCancelled, status)
	assert.Equal(t, PaymentStatusFailed, paymentStatus)
}

func TestOutcome_PaidAfterSettled(t *testing.T) {
	assert.True(t, OutcomeSucceeded.PaidAfterSettled(PaymentStatusFailed))
	assert.True(t, OutcomeSucceeded.PaidAfterSettled(PaymentStatusCancelled))
	assert.True(t, OutcomeSucceeded.PaidAfterSettled(PaymentStatusRefunded))
	assert.False(t, OutcomeSucceeded.PaidAfterSettled(PaymentStatusCompleted))
	assert.False(t, OutcomeSucceeded.PaidAfterSettled(PaymentStatusPending))
	assert.False(t, OutcomeFailed.PaidAfterSettled(PaymentStatusFailed))
}

func TestPaymentStatus_IsTerminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.False(t, PaymentStatusProcessing.IsTerminal())
	assert.True(t, PaymentStatusCompleted.IsTerminal())
	assert.True(t, PaymentStatusFailed.IsTerminal())
	assert.True(t, PaymentStatusCancelled.IsTerminal())
	assert.True(t, PaymentStatusRefunded.IsTerminal())
}
