package chat

import (
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/chattail/innertube"
)

// Normalize converts one raw wire action into a ChatItem. The second
// return is false when the action carries no recognized payload; that
// is not an error, callers skip such actions silently.
//
// Renderer variants are checked in a fixed priority order and are
// mutually exclusive on the wire: paid message, paid sticker,
// membership item, gift purchase, gift redemption, plain text.
func Normalize(action innertube.Action) (ChatItem, bool) {
	if action.AddChatItemAction == nil {
		return ChatItem{}, false
	}
	item := action.AddChatItemAction.Item
	switch {
	case item.PaidMessage != nil:
		return normalizePaidMessage(item.PaidMessage), true
	case item.PaidSticker != nil:
		return normalizePaidSticker(item.PaidSticker), true
	case item.MembershipItem != nil:
		return normalizeMembershipItem(item.MembershipItem), true
	case item.GiftPurchase != nil:
		return normalizeGiftPurchase(item.GiftPurchase), true
	case item.GiftRedemption != nil:
		return normalizeGiftRedemption(item.GiftRedemption), true
	case item.TextMessage != nil:
		return normalizeTextMessage(item.TextMessage), true
	default:
		// Recognized-but-unhandled shapes (viewer engagement banners)
		// and unknown shapes both land here.
		return ChatItem{}, false
	}
}

// badgeFlags are the standard author flags derived from badge icon
// types, plus the custom membership badge when present.
type badgeFlags struct {
	membership bool
	owner      bool
	verified   bool
	moderator  bool
	badge      *Badge
}

// classifyBadges walks the badge list. A badge with a custom image is a
// membership-tier badge; the first one populates the author badge.
// Icon badges select the standard flags by exact icon-type match;
// unknown icon types are ignored.
func classifyBadges(badges []innertube.AuthorBadge) badgeFlags {
	var f badgeFlags
	for _, b := range badges {
		r := b.LiveChatAuthorBadgeRenderer
		if r.CustomThumbnail != nil {
			f.membership = true
			if f.badge == nil {
				f.badge = &Badge{
					Thumbnail: r.CustomThumbnail.LastThumbnailURL(),
					Label:     r.Tooltip,
				}
			}
			continue
		}
		if r.Icon == nil {
			continue
		}
		switch r.Icon.IconType {
		case "OWNER":
			f.owner = true
		case "VERIFIED":
			f.verified = true
		case "MODERATOR":
			f.moderator = true
		}
	}
	return f
}

func resolveAuthor(name *innertube.Text, photo *innertube.Image, channelID string, flags badgeFlags) Author {
	a := Author{
		Name:      name.String(),
		ChannelID: channelID,
		Badge:     flags.badge,
	}
	if photo != nil {
		a.Thumbnail = photo.LastThumbnailURL()
	}
	return a
}

// convertRuns turns a runs-based body into ordered message parts.
func convertRuns(msg *innertube.Message) []MessagePart {
	if msg == nil || len(msg.Runs) == 0 {
		return nil
	}
	parts := make([]MessagePart, 0, len(msg.Runs))
	for _, run := range msg.Runs {
		if run.Emoji != nil {
			parts = append(parts, convertEmoji(run.Emoji))
			continue
		}
		parts = append(parts, TextPart{Text: run.Text})
	}
	return parts
}

func convertEmoji(e *innertube.Emoji) EmojiPart {
	alt := firstNonEmpty(first(e.Shortcuts), first(e.SearchTerms))
	text := alt
	if e.IsCustomEmoji {
		if text == "" {
			text = "[:" + e.EmojiID + ":]"
		}
	} else {
		// Standard emoji carry the literal glyph as their id.
		text = e.EmojiID
	}
	return EmojiPart{
		ImagePart: ImagePart{
			// Thumbnails are ordered ascending by size; last is the
			// highest resolution.
			URL: e.Image.LastThumbnailURL(),
			Alt: alt,
		},
		EmojiText: text,
		IsCustom:  e.IsCustomEmoji,
	}
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

// parseTimestampUsec parses a microsecond-since-epoch string, falling
// back to the current time. Never fatal.
func parseTimestampUsec(s string) time.Time {
	usec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.UnixMicro(usec)
}

func normalizeTextMessage(r *innertube.TextMessageRenderer) ChatItem {
	flags := classifyBadges(r.AuthorBadges)
	return ChatItem{
		ID:           r.ID,
		Author:       resolveAuthor(r.AuthorName, r.AuthorPhoto, r.AuthorExternalChannelID, flags),
		Message:      convertRuns(r.Message),
		IsMembership: flags.membership,
		IsOwner:      flags.owner,
		IsVerified:   flags.verified,
		IsModerator:  flags.moderator,
		Timestamp:    parseTimestampUsec(r.TimestampUsec),
	}
}

func normalizePaidMessage(r *innertube.PaidMessageRenderer) ChatItem {
	flags := classifyBadges(r.AuthorBadges)
	amountText := r.PurchaseAmountText.String()
	amount, currency := ParseAmount(amountText)
	return ChatItem{
		ID:      r.ID,
		Author:  resolveAuthor(r.AuthorName, r.AuthorPhoto, r.AuthorExternalChannelID, flags),
		Message: convertRuns(r.Message),
		Superchat: &Superchat{
			AmountString:          amountText,
			Amount:                amount,
			Currency:              currency,
			BodyBackgroundColor:   DecodeARGB(r.BodyBackgroundColor),
			HeaderBackgroundColor: DecodeARGB(r.HeaderBackgroundColor),
			HeaderTextColor:       DecodeARGB(r.HeaderTextColor),
			BodyTextColor:         DecodeARGB(r.BodyTextColor),
			AuthorNameTextColor:   DecodeARGB(r.AuthorNameTextColor),
		},
		IsMembership: flags.membership,
		IsOwner:      flags.owner,
		IsVerified:   flags.verified,
		IsModerator:  flags.moderator,
		Timestamp:    parseTimestampUsec(r.TimestampUsec),
	}
}

func normalizePaidSticker(r *innertube.PaidStickerRenderer) ChatItem {
	flags := classifyBadges(r.AuthorBadges)
	amountText := r.PurchaseAmountText.String()
	amount, currency := ParseAmount(amountText)
	return ChatItem{
		ID:     r.ID,
		Author: resolveAuthor(r.AuthorName, r.AuthorPhoto, r.AuthorExternalChannelID, flags),
		Superchat: &Superchat{
			AmountString:        amountText,
			Amount:              amount,
			Currency:            currency,
			BodyBackgroundColor: DecodeARGB(r.BackgroundColor),
			Sticker: &ImagePart{
				URL: r.Sticker.LastThumbnailURL(),
				Alt: r.Sticker.Label(),
			},
		},
		IsMembership: flags.membership,
		IsOwner:      flags.owner,
		IsVerified:   flags.verified,
		IsModerator:  flags.moderator,
		Timestamp:    parseTimestampUsec(r.TimestampUsec),
	}
}

func normalizeMembershipItem(r *innertube.MembershipItemRenderer) ChatItem {
	flags := classifyBadges(r.AuthorBadges)
	primary := r.HeaderPrimaryText.String()
	subtext := r.HeaderSubtext.String()

	details := &MembershipDetails{
		EventType:         classifyMembership(primary, subtext),
		HeaderPrimaryText: primary,
		HeaderSubtext:     subtext,
	}
	if flags.badge != nil {
		details.LevelName = flags.badge.Label
	}

	item := ChatItem{
		ID:           r.ID,
		Author:       resolveAuthor(r.AuthorName, r.AuthorPhoto, r.AuthorExternalChannelID, flags),
		Membership:   details,
		IsMembership: flags.membership,
		IsOwner:      flags.owner,
		IsVerified:   flags.verified,
		IsModerator:  flags.moderator,
		Timestamp:    parseTimestampUsec(r.TimestampUsec),
	}

	switch details.EventType {
	case MembershipNew:
		// New-member items have no body. A generic "Member" badge label
		// is refined from the welcome header when possible.
		if details.LevelName == "" || details.LevelName == "Member" {
			if lvl := welcomeLevelName(primary); lvl != "" {
				details.LevelName = lvl
			}
		}
	case MembershipMilestone:
		details.MilestoneMonths = milestoneMonths(primary)
		item.Message = convertRuns(r.Message)
	}
	return item
}

func normalizeGiftPurchase(r *innertube.GiftPurchaseRenderer) ChatItem {
	// The authoritative author of a gift purchase is the gifter in the
	// nested header; the outer authorExternalChannelId is kept only as
	// the best-available channel id.
	hdr := r.Header.LiveChatSponsorshipsHeaderRenderer
	flags := classifyBadges(hdr.AuthorBadges)
	author := resolveAuthor(hdr.AuthorName, hdr.AuthorPhoto, r.AuthorExternalChannelID, flags)
	primary := hdr.PrimaryText.String()

	details := &MembershipDetails{
		EventType:         MembershipGiftPurchase,
		HeaderPrimaryText: primary,
		GifterUsername:    author.Name,
		GiftCount:         giftCount(primary),
	}
	if flags.badge != nil {
		details.LevelName = flags.badge.Label
	}
	return ChatItem{
		ID:           r.ID,
		Author:       author,
		Membership:   details,
		IsMembership: flags.membership,
		IsOwner:      flags.owner,
		IsVerified:   flags.verified,
		IsModerator:  flags.moderator,
		Timestamp:    parseTimestampUsec(r.TimestampUsec),
	}
}

func normalizeGiftRedemption(r *innertube.GiftRedemptionRenderer) ChatItem {
	flags := classifyBadges(r.AuthorBadges)
	author := resolveAuthor(r.AuthorName, r.AuthorPhoto, r.AuthorExternalChannelID, flags)

	composed, lastText := flattenRuns(r.Message)
	details := &MembershipDetails{
		EventType:         MembershipGiftRedemption,
		HeaderPrimaryText: composed,
		RecipientUsername: author.Name,
		GifterUsername:    redemptionGifter(composed, lastText),
	}
	if flags.badge != nil {
		details.LevelName = flags.badge.Label
	}
	return ChatItem{
		ID:           r.ID,
		Author:       author,
		Membership:   details,
		IsMembership: flags.membership,
		IsOwner:      flags.owner,
		IsVerified:   flags.verified,
		IsModerator:  flags.moderator,
		Timestamp:    parseTimestampUsec(r.TimestampUsec),
	}
}

// flattenRuns renders runs to plain text and also returns the text of
// the last text run, which gift redemption gifter extraction needs.
func flattenRuns(msg *innertube.Message) (composed, lastText string) {
	if msg == nil {
		return "", ""
	}
	var b strings.Builder
	for _, run := range msg.Runs {
		if run.Emoji != nil {
			b.WriteString(run.Emoji.EmojiID)
			continue
		}
		b.WriteString(run.Text)
		if run.Text != "" {
			lastText = run.Text
		}
	}
	return b.String(), lastText
}
