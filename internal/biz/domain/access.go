package domain

import "github.com/samber/lo"

// AllowList holds the chats and users the bot serves. It is loaded once at
// startup and never mutated afterwards.
type AllowList struct {
	chats map[string]struct{}
	users map[string]struct{}
}

// NewAllowList builds an allow-list from chat and user ids
func NewAllowList(chatIDs, userIDs []string) *AllowList {
	toSet := func(ids []string) map[string]struct{} {
		return lo.SliceToMap(lo.Compact(ids), func(id string) (string, struct{}) {
			return id, struct{}{}
		})
	}
	return &AllowList{chats: toSet(chatIDs), users: toSet(userIDs)}
}

// Allow reports whether the chat or the user is allowed. A nil or empty
// allow-list denies everyone.
func (a *AllowList) Allow(chatID, userID string) bool {
	if a == nil {
		return false
	}
	if _, ok := a.chats[chatID]; ok && chatID != "" {
		return true
	}
	_, ok := a.users[userID]
	return ok && userID != ""
}

// Size returns the number of allowed chats and users
func (a *AllowList) Size() (chats, users int) {
	if a == nil {
		return 0, 0
	}
	return len(a.chats), len(a.users)
}
