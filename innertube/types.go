package innertube

import "encoding/json"

// ChatResponse is the top-level payload returned by the live chat
// continuation endpoint.
type ChatResponse struct {
	ContinuationContents *ContinuationContents `json:"continuationContents"`
}

// Actions returns the action list of the response, or nil when the
// payload carries no continuation contents.
func (r *ChatResponse) Actions() []Action {
	if r == nil || r.ContinuationContents == nil {
		return nil
	}
	return r.ContinuationContents.LiveChatContinuation.Actions
}

// NextContinuation returns the continuation token to use for the next
// poll. Invalidation-style continuations are preferred over timed ones.
// An empty string means the stream ended or the continuation was lost.
func (r *ChatResponse) NextContinuation() string {
	if r == nil || r.ContinuationContents == nil {
		return ""
	}
	var timed string
	for _, c := range r.ContinuationContents.LiveChatContinuation.Continuations {
		if c.InvalidationContinuationData != nil && c.InvalidationContinuationData.Continuation != "" {
			return c.InvalidationContinuationData.Continuation
		}
		if timed == "" && c.TimedContinuationData != nil {
			timed = c.TimedContinuationData.Continuation
		}
	}
	return timed
}

type ContinuationContents struct {
	LiveChatContinuation LiveChatContinuation `json:"liveChatContinuation"`
}

type LiveChatContinuation struct {
	Continuations []Continuation `json:"continuations"`
	Actions       []Action       `json:"actions"`
}

type Continuation struct {
	InvalidationContinuationData *ContinuationData `json:"invalidationContinuationData"`
	TimedContinuationData        *ContinuationData `json:"timedContinuationData"`
}

type ContinuationData struct {
	Continuation string `json:"continuation"`
	TimeoutMs    int    `json:"timeoutMs"`
}

// Action is one entry of the actions array. Only addChatItemAction is
// handled; other action kinds decode to a zero value and are skipped.
type Action struct {
	AddChatItemAction *AddChatItemAction `json:"addChatItemAction"`
}

type AddChatItemAction struct {
	Item Item `json:"item"`
}

// Item holds exactly one of the recognized renderer shapes. The key name
// on the wire determines the variant; unrecognized keys are dropped by
// the decoder, which is how forward compatibility with schema drift is
// kept intentional.
type Item struct {
	TextMessage    *TextMessageRenderer    `json:"liveChatTextMessageRenderer"`
	PaidMessage    *PaidMessageRenderer    `json:"liveChatPaidMessageRenderer"`
	PaidSticker    *PaidStickerRenderer    `json:"liveChatPaidStickerRenderer"`
	MembershipItem *MembershipItemRenderer `json:"liveChatMembershipItemRenderer"`
	GiftPurchase   *GiftPurchaseRenderer   `json:"liveChatSponsorshipsGiftPurchaseAnnouncementRenderer"`
	GiftRedemption *GiftRedemptionRenderer `json:"liveChatSponsorshipsGiftRedemptionAnnouncementRenderer"`

	// Recognized but deliberately unhandled.
	ViewerEngagement json.RawMessage `json:"liveChatViewerEngagementMessageRenderer"`
}

// Message is a runs-based rich text body.
type Message struct {
	Runs []Run `json:"runs"`
}

// Run is one segment of a message: either plain text or an emoji.
type Run struct {
	Text  string `json:"text"`
	Emoji *Emoji `json:"emoji"`
}

type Emoji struct {
	EmojiID       string   `json:"emojiId"`
	Shortcuts     []string `json:"shortcuts"`
	SearchTerms   []string `json:"searchTerms"`
	IsCustomEmoji bool     `json:"isCustomEmoji"`
	Image         Image    `json:"image"`
}

type Image struct {
	Thumbnails    []Thumbnail    `json:"thumbnails"`
	Accessibility *Accessibility `json:"accessibility"`
}

// LastThumbnailURL returns the URL of the last thumbnail in the set.
// Thumbnails are ordered ascending by size, so last is highest
// resolution.
func (im Image) LastThumbnailURL() string {
	if len(im.Thumbnails) == 0 {
		return ""
	}
	return im.Thumbnails[len(im.Thumbnails)-1].URL
}

// Label returns the accessibility label, if any.
func (im Image) Label() string {
	if im.Accessibility == nil {
		return ""
	}
	return im.Accessibility.AccessibilityData.Label
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Accessibility struct {
	AccessibilityData AccessibilityData `json:"accessibilityData"`
}

type AccessibilityData struct {
	Label string `json:"label"`
}

// Text is the protocol's dual-shaped text value: either a simpleText
// string or a runs array.
type Text struct {
	SimpleText string `json:"simpleText"`
	Runs       []Run  `json:"runs"`
}

// String flattens the value to plain text, concatenating run text and
// standard emoji glyphs.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	if t.SimpleText != "" {
		return t.SimpleText
	}
	out := ""
	for _, r := range t.Runs {
		if r.Text != "" {
			out += r.Text
		} else if r.Emoji != nil {
			out += r.Emoji.EmojiID
		}
	}
	return out
}

type AuthorBadge struct {
	LiveChatAuthorBadgeRenderer AuthorBadgeRenderer `json:"liveChatAuthorBadgeRenderer"`
}

type AuthorBadgeRenderer struct {
	CustomThumbnail *Image `json:"customThumbnail"`
	Icon            *Icon  `json:"icon"`
	Tooltip         string `json:"tooltip"`
}

type Icon struct {
	IconType string `json:"iconType"`
}

type TextMessageRenderer struct {
	ID                      string        `json:"id"`
	Message                 *Message      `json:"message"`
	AuthorName              *Text         `json:"authorName"`
	AuthorPhoto             *Image        `json:"authorPhoto"`
	AuthorBadges            []AuthorBadge `json:"authorBadges"`
	AuthorExternalChannelID string        `json:"authorExternalChannelId"`
	TimestampUsec           string        `json:"timestampUsec"`
}

type PaidMessageRenderer struct {
	ID                      string        `json:"id"`
	Message                 *Message      `json:"message"`
	AuthorName              *Text         `json:"authorName"`
	AuthorPhoto             *Image        `json:"authorPhoto"`
	AuthorBadges            []AuthorBadge `json:"authorBadges"`
	AuthorExternalChannelID string        `json:"authorExternalChannelId"`
	TimestampUsec           string        `json:"timestampUsec"`
	PurchaseAmountText      *Text         `json:"purchaseAmountText"`
	HeaderBackgroundColor   int64         `json:"headerBackgroundColor"`
	HeaderTextColor         int64         `json:"headerTextColor"`
	BodyBackgroundColor     int64         `json:"bodyBackgroundColor"`
	BodyTextColor           int64         `json:"bodyTextColor"`
	AuthorNameTextColor     int64         `json:"authorNameTextColor"`
}

type PaidStickerRenderer struct {
	ID                      string        `json:"id"`
	AuthorName              *Text         `json:"authorName"`
	AuthorPhoto             *Image        `json:"authorPhoto"`
	AuthorBadges            []AuthorBadge `json:"authorBadges"`
	AuthorExternalChannelID string        `json:"authorExternalChannelId"`
	TimestampUsec           string        `json:"timestampUsec"`
	PurchaseAmountText      *Text         `json:"purchaseAmountText"`
	Sticker                 Image         `json:"sticker"`
	BackgroundColor         int64         `json:"backgroundColor"`
}

type MembershipItemRenderer struct {
	ID                      string        `json:"id"`
	Message                 *Message      `json:"message"`
	HeaderPrimaryText       *Text         `json:"headerPrimaryText"`
	HeaderSubtext           *Text         `json:"headerSubtext"`
	AuthorName              *Text         `json:"authorName"`
	AuthorPhoto             *Image        `json:"authorPhoto"`
	AuthorBadges            []AuthorBadge `json:"authorBadges"`
	AuthorExternalChannelID string        `json:"authorExternalChannelId"`
	TimestampUsec           string        `json:"timestampUsec"`
}

type GiftPurchaseRenderer struct {
	ID                      string             `json:"id"`
	AuthorExternalChannelID string             `json:"authorExternalChannelId"`
	TimestampUsec           string             `json:"timestampUsec"`
	Header                  GiftPurchaseHeader `json:"header"`
}

type GiftPurchaseHeader struct {
	LiveChatSponsorshipsHeaderRenderer SponsorshipsHeaderRenderer `json:"liveChatSponsorshipsHeaderRenderer"`
}

// SponsorshipsHeaderRenderer carries the authoritative gifter identity
// for gift purchase announcements.
type SponsorshipsHeaderRenderer struct {
	AuthorName   *Text         `json:"authorName"`
	AuthorPhoto  *Image        `json:"authorPhoto"`
	AuthorBadges []AuthorBadge `json:"authorBadges"`
	PrimaryText  *Text         `json:"primaryText"`
	Image        *Image        `json:"image"`
}

type GiftRedemptionRenderer struct {
	ID                      string        `json:"id"`
	Message                 *Message      `json:"message"`
	AuthorName              *Text         `json:"authorName"`
	AuthorPhoto             *Image        `json:"authorPhoto"`
	AuthorBadges            []AuthorBadge `json:"authorBadges"`
	AuthorExternalChannelID string        `json:"authorExternalChannelId"`
	TimestampUsec           string        `json:"timestampUsec"`
}
