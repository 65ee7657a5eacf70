package domain

// RecentUtterance is the last eligible message a user sent, kept as an
// implicit translation source
type RecentUtterance struct {
	Text string
	Ref  *MessageRef // nil when the message cannot be replied to
}
