package event

import "time"

const DisclosureCodeRequestedDestination string = "vault_disclosure_code_requested"
const DisclosureCodeRequestedConsumerNotification string = "vault_disclosure_code_requested_notification"

// DisclosureCodeRequestedMessage carries a one-time code to the account's contact channel.
type DisclosureCodeRequestedMessage struct {
	AccountID      string    `json:"account_id"`
	UserID         int64     `json:"user_id"`
	ContactChannel string    `json:"contact_channel"`
	Code           string    `json:"code"`
	ExpiresAt      time.Time `json:"expires_at"`
}
