package entity

// ChatKind distinguishes the delay/preamble rules §4.4 applies.
type ChatKind string

const (
	ChatKindPrivate    ChatKind = "private"
	ChatKindGroup      ChatKind = "group"
	ChatKindSupergroup ChatKind = "supergroup"
	ChatKindChannel    ChatKind = "channel"
)

// GroupDelayMillis and OtherDelayMillis are the per-message send delays
// Delivery paces item sends to one chat by (§4.4 step 4, §5).
const (
	GroupDelayMillis = 2200
	OtherDelayMillis = 35
)

// SendDelayMillis returns the delay, in milliseconds, Delivery must wait
// after sending a message to a chat of this kind.
func (k ChatKind) SendDelayMillis() int {
	if k == ChatKindGroup || k == ChatKindSupergroup {
		return GroupDelayMillis
	}
	return OtherDelayMillis
}

// Chat is a transport-side destination: a Telegram chat, upserted the
// first time an admin command arrives from it and deleted once the
// transport reports the bot has been blocked, kicked, or the chat itself
// no longer exists (§7 BotBlocked).
type Chat struct {
	ID              int64
	Kind            ChatKind
	Title           string
	Username        string
	FirstName       string
	LastName        string
	Template        string
	FilterWords     []string
	UTCOffsetMin    *int
	PreviewEnabled  bool
}

// MinUTCOffsetMinutes, MaxUTCOffsetMinutes and UTCOffsetStepMinutes bound
// the accepted chat.utc_offset_minutes values (§8 boundary behaviors).
const (
	MinUTCOffsetMinutes  = -720
	MaxUTCOffsetMinutes  = 840
	UTCOffsetStepMinutes = 30
)

// ValidUTCOffsetMinutes reports whether offset is an acceptable
// utc_offset_minutes value.
func ValidUTCOffsetMinutes(offset int) bool {
	if offset < MinUTCOffsetMinutes || offset > MaxUTCOffsetMinutes {
		return false
	}
	return offset%UTCOffsetStepMinutes == 0
}
