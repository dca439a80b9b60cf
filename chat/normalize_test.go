package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnwee/chattail/innertube"
)

func decodeAction(t *testing.T, raw string) innertube.Action {
	t.Helper()
	var a innertube.Action
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	return a
}

func TestNormalizeTextMessage(t *testing.T) {
	action := decodeAction(t, `{"addChatItemAction":{"item":{"liveChatTextMessageRenderer":{
		"id":"msg1",
		"authorName":{"simpleText":"viewer"},
		"authorPhoto":{"thumbnails":[{"url":"small.jpg"},{"url":"big.jpg"}]},
		"authorExternalChannelId":"UCabc",
		"authorBadges":[
			{"liveChatAuthorBadgeRenderer":{"icon":{"iconType":"MODERATOR"},"tooltip":"Moderator"}},
			{"liveChatAuthorBadgeRenderer":{"customThumbnail":{"thumbnails":[{"url":"badge.png"}]},"tooltip":"Member (1 year)"}}
		],
		"message":{"runs":[{"text":"hello "},{"emoji":{"emojiId":"🐱","isCustomEmoji":false,"shortcuts":[":cat:"],"image":{"thumbnails":[{"url":"cat.png"}]}}}]},
		"timestampUsec":"1700000000000000"
	}}}}`)

	item, ok := Normalize(action)
	require.True(t, ok)
	assert.Equal(t, "msg1", item.ID)
	assert.Equal(t, "text", item.Kind())
	assert.Equal(t, "viewer", item.Author.Name)
	assert.Equal(t, "UCabc", item.Author.ChannelID)
	assert.Equal(t, "big.jpg", item.Author.Thumbnail)
	assert.True(t, item.IsModerator)
	assert.True(t, item.IsMembership)
	assert.False(t, item.IsOwner)
	require.NotNil(t, item.Author.Badge)
	assert.Equal(t, "Member (1 year)", item.Author.Badge.Label)
	assert.Equal(t, "badge.png", item.Author.Badge.Thumbnail)

	require.Len(t, item.Message, 2)
	assert.Equal(t, TextPart{Text: "hello "}, item.Message[0])
	emoji, isEmoji := item.Message[1].(EmojiPart)
	require.True(t, isEmoji)
	assert.Equal(t, "🐱", emoji.EmojiText) // standard emoji keep the glyph
	assert.Equal(t, ":cat:", emoji.Alt)
	assert.Equal(t, "cat.png", emoji.URL)
	assert.False(t, emoji.IsCustom)

	assert.Equal(t, "hello 🐱", item.PlainText())
	assert.Equal(t, time.UnixMicro(1700000000000000), item.Timestamp)
}

func TestNormalizeCustomEmojiFallsBackToBracketedID(t *testing.T) {
	action := decodeAction(t, `{"addChatItemAction":{"item":{"liveChatTextMessageRenderer":{
		"id":"msg2",
		"authorName":{"simpleText":"viewer"},
		"message":{"runs":[{"emoji":{"emojiId":"UCx/abc123","isCustomEmoji":true,"image":{"thumbnails":[{"url":"custom.png"}]}}}]},
		"timestampUsec":"1700000000000000"
	}}}}`)

	item, ok := Normalize(action)
	require.True(t, ok)
	require.Len(t, item.Message, 1)
	emoji := item.Message[0].(EmojiPart)
	assert.Equal(t, "[:UCx/abc123:]", emoji.EmojiText)
	assert.True(t, emoji.IsCustom)
}

func TestNormalizePaidMessage(t *testing.T) {
	action := decodeAction(t, `{"addChatItemAction":{"item":{"liveChatPaidMessageRenderer":{
		"id":"sc1",
		"authorName":{"simpleText":"fan"},
		"authorExternalChannelId":"UCfan",
		"purchaseAmountText":{"simpleText":"$9.99"},
		"message":{"runs":[{"text":"take my money"}]},
		"headerBackgroundColor":4294947584,
		"headerTextColor":4278190080,
		"bodyBackgroundColor":4294953512,
		"bodyTextColor":4278190080,
		"authorNameTextColor":3003121664,
		"timestampUsec":"1700000000000000"
	}}}}`)

	item, ok := Normalize(action)
	require.True(t, ok)
	assert.Equal(t, "superchat", item.Kind())
	require.NotNil(t, item.Superchat)
	assert.Equal(t, "$9.99", item.Superchat.AmountString)
	assert.Equal(t, 9.99, item.Superchat.Amount)
	assert.Equal(t, "USD", item.Superchat.Currency)
	assert.Equal(t, "FFCA28", item.Superchat.BodyBackgroundColor)
	assert.Equal(t, "000000", item.Superchat.BodyTextColor)
	assert.Equal(t, "FFB300", item.Superchat.HeaderBackgroundColor)
	assert.Nil(t, item.Superchat.Sticker)
	assert.Equal(t, "take my money", item.PlainText())
}

func TestNormalizePaidSticker(t *testing.T) {
	action := decodeAction(t, `{"addChatItemAction":{"item":{"liveChatPaidStickerRenderer":{
		"id":"st1",
		"authorName":{"simpleText":"fan"},
		"purchaseAmountText":{"simpleText":"￥500"},
		"sticker":{"thumbnails":[{"url":"sticker-small.png"},{"url":"sticker-big.png"}],
			"accessibility":{"accessibilityData":{"label":"dancing dog"}}},
		"backgroundColor":4280150454,
		"timestampUsec":"1700000000000000"
	}}}}`)

	item, ok := Normalize(action)
	require.True(t, ok)
	assert.Equal(t, "superchat", item.Kind())
	require.NotNil(t, item.Superchat)
	assert.Equal(t, 500.0, item.Superchat.Amount)
	assert.Equal(t, "JPY", item.Superchat.Currency)
	require.NotNil(t, item.Superchat.Sticker)
	assert.Equal(t, "sticker-big.png", item.Superchat.Sticker.URL)
	assert.Equal(t, "dancing dog", item.Superchat.Sticker.Alt)
	assert.Empty(t, item.Message)
}

func TestNormalizeMembershipNew(t *testing.T) {
	action := decodeAction(t, `{"addChatItemAction":{"item":{"liveChatMembershipItemRenderer":{
		"id":"mem1",
		"authorName":{"simpleText":"newfan"},
		"authorBadges":[{"liveChatAuthorBadgeRenderer":{"customThumbnail":{"thumbnails":[{"url":"b.png"}]},"tooltip":"Member"}}],
		"headerPrimaryText":{"runs":[{"text":"Welcome to "},{"text":"Super Fans"},{"text":" membership"}]},
		"headerSubtext":{"simpleText":"New member"},
		"timestampUsec":"1700000000000000"
	}}}}`)

	item, ok := Normalize(action)
	require.True(t, ok)
	assert.Equal(t, "membership", item.Kind())
	require.NotNil(t, item.Membership)
	assert.Equal(t, MembershipNew, item.Membership.EventType)
	// Generic badge label is refined from the welcome header.
	assert.Equal(t, "Super Fans", item.Membership.LevelName)
	assert.Empty(t, item.Message)
}

func TestNormalizeMembershipMilestone(t *testing.T) {
	action := decodeAction(t, `{"addChatItemAction":{"item":{"liveChatMembershipItemRenderer":{
		"id":"mem2",
		"authorName":{"simpleText":"loyalfan"},
		"authorBadges":[{"liveChatAuthorBadgeRenderer":{"customThumbnail":{"thumbnails":[{"url":"b.png"}]},"tooltip":"Member (1 year)"}}],
		"headerPrimaryText":{"runs":[{"text":"Member for 27 months"}]},
		"message":{"runs":[{"text":"still here"}]},
		"timestampUsec":"1700000000000000"
	}}}}`)

	item, ok := Normalize(action)
	require.True(t, ok)
	require.NotNil(t, item.Membership)
	assert.Equal(t, MembershipMilestone, item.Membership.EventType)
	assert.Equal(t, 27, item.Membership.MilestoneMonths)
	assert.Equal(t, "Member (1 year)", item.Membership.LevelName)
	assert.Equal(t, "still here", item.PlainText())
}

func TestNormalizeGiftPurchase(t *testing.T) {
	action := decodeAction(t, `{"addChatItemAction":{"item":{"liveChatSponsorshipsGiftPurchaseAnnouncementRenderer":{
		"id":"gp1",
		"authorExternalChannelId":"UCgifter",
		"timestampUsec":"1700000000000000",
		"header":{"liveChatSponsorshipsHeaderRenderer":{
			"authorName":{"simpleText":"generous"},
			"authorPhoto":{"thumbnails":[{"url":"g.png"}]},
			"primaryText":{"runs":[{"text":"Sent 20 "},{"text":"RaidAway+"},{"text":" gift memberships"}]}
		}}
	}}}}`)

	item, ok := Normalize(action)
	require.True(t, ok)
	require.NotNil(t, item.Membership)
	assert.Equal(t, MembershipGiftPurchase, item.Membership.EventType)
	// Author identity comes from the nested header, channel id from the
	// outer renderer.
	assert.Equal(t, "generous", item.Author.Name)
	assert.Equal(t, "UCgifter", item.Author.ChannelID)
	assert.Equal(t, "generous", item.Membership.GifterUsername)
	assert.Equal(t, 20, item.Membership.GiftCount)
}

func TestNormalizeGiftRedemption(t *testing.T) {
	action := decodeAction(t, `{"addChatItemAction":{"item":{"liveChatSponsorshipsGiftRedemptionAnnouncementRenderer":{
		"id":"gr1",
		"authorName":{"simpleText":"lucky"},
		"authorExternalChannelId":"UClucky",
		"message":{"runs":[{"text":"was gifted a membership by "},{"text":"generous"}]},
		"timestampUsec":"1700000000000000"
	}}}}`)

	item, ok := Normalize(action)
	require.True(t, ok)
	require.NotNil(t, item.Membership)
	assert.Equal(t, MembershipGiftRedemption, item.Membership.EventType)
	assert.Equal(t, "lucky", item.Membership.RecipientUsername)
	assert.Equal(t, "generous", item.Membership.GifterUsername)
}

func TestNormalizeSkipsUnhandledShapes(t *testing.T) {
	cases := map[string]string{
		"no add action":     `{"markChatItemAsDeletedAction":{}}`,
		"viewer engagement": `{"addChatItemAction":{"item":{"liveChatViewerEngagementMessageRenderer":{"id":"x"}}}}`,
		"unknown renderer":  `{"addChatItemAction":{"item":{"liveChatFutureRenderer":{"id":"y"}}}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := Normalize(decodeAction(t, raw))
			assert.False(t, ok)
		})
	}
}

func TestNormalizeBadTimestampFallsBackToNow(t *testing.T) {
	action := decodeAction(t, `{"addChatItemAction":{"item":{"liveChatTextMessageRenderer":{
		"id":"msg3","authorName":{"simpleText":"v"},"message":{"runs":[{"text":"hi"}]},"timestampUsec":"garbage"
	}}}}`)
	before := time.Now()
	item, ok := Normalize(action)
	require.True(t, ok)
	assert.False(t, item.Timestamp.Before(before))
}
