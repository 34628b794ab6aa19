package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	UserKeyPrefix        = "user:%s"
	ProfileCardKeyPrefix = "card:%s"
	KOLProfileKeyPrefix  = "kol:%s:%s"
	QuoteKeyPrefix       = "quote:%s"
	ChangeKeyPrefix      = "change7d:%s"
	UnreadCountKeyPrefix = "notif:unread:%s"
)

const (
	UserTTL        = 5 * time.Minute
	KOLProfileTTL  = 10 * time.Minute
	ChangeTTL      = 30 * time.Minute
	UnreadCountTTL = 2 * time.Minute
)

func UserKey(userID uuid.UUID) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// ProfileCardKey keys hover-card lookups by user id or username.
func ProfileCardKey(idOrUsername string) string {
	return fmt.Sprintf(ProfileCardKeyPrefix, strings.ToLower(idOrUsername))
}

func KOLProfileKey(platform, kolID string) string {
	return fmt.Sprintf(KOLProfileKeyPrefix, platform, kolID)
}

func QuoteKey(symbol string) string {
	return fmt.Sprintf(QuoteKeyPrefix, strings.ToUpper(symbol))
}

func ChangeKey(symbol string) string {
	return fmt.Sprintf(ChangeKeyPrefix, strings.ToUpper(symbol))
}

func UnreadCountKey(userID uuid.UUID) string {
	return fmt.Sprintf(UnreadCountKeyPrefix, userID)
}

// keyFamily returns the prefix before the first colon, used as a metric label.
func keyFamily(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
