package domain

// Notification is a plain-text message addressed to a single recipient.
type Notification struct {
	ID      string
	To      string
	Subject string
	Body    string
}
