package chat

import (
	"regexp"
	"strconv"
	"strings"
)

// Free-text inference for membership and gift semantics. The upstream
// protocol carries no structured event type, so these patterns ARE the
// behavioral contract. The platform phrases headers inconsistently in
// the wild; the patterns here are the minimum set, with conservative
// fallbacks, and anything that matches none of them classifies as
// MembershipUnknown rather than failing.

var (
	milestonePattern    = regexp.MustCompile(`(?i)member for (\d+) months?`)
	welcomeLevelPattern = regexp.MustCompile(`Welcome to (.+?) membership`)
	giftSentPattern     = regexp.MustCompile(`^Sent (\d+) .*?gift memberships?$`)
	giftGiftedPattern   = regexp.MustCompile(`Gifted (\d+|a) .*?membership`)
	giftedYouPattern    = regexp.MustCompile(`^(.*?) gifted you`)
)

// classifyMembership infers the event type from the membership item's
// header text.
func classifyMembership(primary, subtext string) MembershipEventType {
	if strings.HasPrefix(primary, "Welcome") || strings.HasPrefix(subtext, "New member") {
		return MembershipNew
	}
	if strings.Contains(strings.ToLower(primary), "member for") {
		return MembershipMilestone
	}
	return MembershipUnknown
}

// milestoneMonths extracts the month count from milestone header text,
// or 0 when absent.
func milestoneMonths(primary string) int {
	m := milestonePattern.FindStringSubmatch(primary)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// welcomeLevelName re-derives the membership level from a
// "Welcome to {level} membership" header. Returns "" when the pattern
// is absent.
func welcomeLevelName(primary string) string {
	m := welcomeLevelPattern.FindStringSubmatch(primary)
	if m == nil {
		return ""
	}
	return m[1]
}

// giftCount extracts the number of gifted memberships from a gift
// purchase header. Tried in order: the anchored "Sent N ... gift
// memberships" form, the "Gifted N|a ... membership" form (a literal
// "a" counts as one), then a bare "gift" substring defaulting to one.
func giftCount(primary string) int {
	if m := giftSentPattern.FindStringSubmatch(primary); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := giftGiftedPattern.FindStringSubmatch(primary); m != nil {
		if m[1] == "a" {
			return 1
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if strings.Contains(primary, "gift") {
		return 1
	}
	return 0
}

// redemptionGifter extracts the gifter's name from a gift redemption
// message. The last text run is the best-effort value; when the
// composed text matches "{name} gifted you", the captured name wins.
func redemptionGifter(composed, lastTextRun string) string {
	if m := giftedYouPattern.FindStringSubmatch(composed); m != nil {
		return m[1]
	}
	return lastTextRun
}
