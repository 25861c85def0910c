package service

import (
	"fmt"
	"strings"

	"github.com/hourbank/timebank/internal/core/domain"
)

const (
	subjectOrderReceived = "You received an order"
	subjectOrderApproved = "Your order was approved"
	subjectOrderRejected = "Your order cannot be fulfilled"
	subjectOrderExpired  = "Your order approval has expired"
)

func orderURL(baseURL, action, orderID string) string {
	return fmt.Sprintf("%s/api/v1/orders/%s/%s", strings.TrimRight(baseURL, "/"), action, orderID)
}

func personalLine(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	return "Personal message: " + msg + "\n\n"
}

func orderReceivedBody(baseURL string, o *domain.Order, msg string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants to book an hour of service.\n\n", o.From.Name)
	b.WriteString(personalLine(msg))
	fmt.Fprintf(&b, "To approve, send a PATCH request to: %s\n", orderURL(baseURL, "approve", o.ID))
	fmt.Fprintf(&b, "To reject, send a PATCH request to: %s\n", orderURL(baseURL, "reject", o.ID))
	return b.String()
}

func orderApprovedBody(baseURL string, o *domain.Order, msg string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s has agreed to sell you an hour of service.\n\n", o.To.Name)
	b.WriteString(personalLine(msg))
	fmt.Fprintf(&b, "To make the transaction, send a PATCH request to: %s\n", orderURL(baseURL, "transact", o.ID))
	return b.String()
}

func orderRejectedBody(o *domain.Order, msg string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s cannot sell you an hour of service.\n\n", o.To.Name)
	b.WriteString(personalLine(msg))
	return b.String()
}

func orderExpiredBody(o *domain.Order) string {
	return fmt.Sprintf("Your order with %s was approved more than a week ago and has been cancelled. No credit was moved.\n", o.To.Name)
}

const subjectPasswordReset = "Forgot your password?"

func passwordResetBody(baseURL, token string) string {
	var b strings.Builder
	b.WriteString("Forgot your password?\n\n")
	fmt.Fprintf(&b, "Send a PATCH request with a new password and an identical passwordConfirm to: %s/api/v1/users/reset-password/%s\n\n",
		strings.TrimRight(baseURL, "/"), token)
	fmt.Fprintf(&b, "The link expires in %d minutes. Did not forget your password? Please ignore this email.\n", int(domain.PasswordResetTTL.Minutes()))
	return b.String()
}
