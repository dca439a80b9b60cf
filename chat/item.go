package chat

import (
	"strings"
	"time"
)

// ChatItem is one normalized chat event. Exactly one of Superchat and
// Membership is set for paid/membership events; both are nil for plain
// messages. Message may be empty (gift purchase announcements carry no
// body).
type ChatItem struct {
	ID           string
	Author       Author
	Message      []MessagePart
	Superchat    *Superchat
	Membership   *MembershipDetails
	IsMembership bool
	IsVerified   bool
	IsOwner      bool
	IsModerator  bool
	Timestamp    time.Time
}

// Kind labels the item for metrics and storage.
func (it ChatItem) Kind() string {
	switch {
	case it.Superchat != nil:
		return "superchat"
	case it.Membership != nil:
		return "membership"
	default:
		return "text"
	}
}

// PlainText flattens the message body to text, rendering emoji by their
// emoji text.
func (it ChatItem) PlainText() string {
	var b strings.Builder
	for _, p := range it.Message {
		switch v := p.(type) {
		case TextPart:
			b.WriteString(v.Text)
		case EmojiPart:
			b.WriteString(v.EmojiText)
		}
	}
	return b.String()
}

// Author identifies the sender of an item. Badge is set only for
// custom membership-tier badges; the standard owner/verified/moderator
// badges surface as flags on ChatItem instead.
type Author struct {
	Name      string
	ChannelID string
	Thumbnail string
	Badge     *Badge
}

// Badge is a custom membership-tier badge image with its tooltip label.
type Badge struct {
	Thumbnail string
	Label     string
}

// MessagePart is one segment of a message body, in render order.
type MessagePart interface {
	isMessagePart()
}

type TextPart struct {
	Text string
}

func (TextPart) isMessagePart() {}

type ImagePart struct {
	URL string
	Alt string
}

func (ImagePart) isMessagePart() {}

// EmojiPart is an ImagePart specialized for emoji runs. EmojiText is
// the textual stand-in: the shortcut for custom emoji, the glyph for
// standard ones.
type EmojiPart struct {
	ImagePart
	EmojiText string
	IsCustom  bool
}

func (EmojiPart) isMessagePart() {}

// Superchat describes a paid message or paid sticker. Sticker events
// populate only BodyBackgroundColor and Sticker; text superchats also
// carry the header colors.
type Superchat struct {
	AmountString          string
	Amount                float64
	Currency              string
	BodyBackgroundColor   string
	HeaderBackgroundColor string
	HeaderTextColor       string
	BodyTextColor         string
	AuthorNameTextColor   string
	Sticker               *ImagePart
}

// MembershipEventType classifies a membership event. The protocol has
// no explicit type field, so classification is heuristic (see
// membership.go).
type MembershipEventType int

const (
	MembershipUnknown MembershipEventType = iota
	MembershipNew
	MembershipMilestone
	MembershipGiftPurchase
	MembershipGiftRedemption
)

func (t MembershipEventType) String() string {
	switch t {
	case MembershipNew:
		return "new"
	case MembershipMilestone:
		return "milestone"
	case MembershipGiftPurchase:
		return "gift_purchase"
	case MembershipGiftRedemption:
		return "gift_redemption"
	default:
		return "unknown"
	}
}

// MembershipDetails carries the reconstructed membership semantics.
// Field population depends on EventType: milestone months only for
// milestones, gifter/count only for gift purchases, recipient only for
// redemptions.
type MembershipDetails struct {
	EventType         MembershipEventType
	LevelName         string
	HeaderPrimaryText string
	HeaderSubtext     string
	MilestoneMonths   int
	GifterUsername    string
	GiftCount         int
	RecipientUsername string
}
