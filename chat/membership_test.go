package chat

import "testing"

func TestClassifyMembership(t *testing.T) {
	cases := []struct {
		name    string
		primary string
		subtext string
		want    MembershipEventType
	}{
		{"welcome header", "Welcome to Super Fans membership", "", MembershipNew},
		{"new member subtext", "", "New member", MembershipNew},
		{"milestone", "Member for 27 months", "", MembershipMilestone},
		{"milestone mixed case", "member for 2 months", "", MembershipMilestone},
		{"unrecognized", "Upgraded membership", "", MembershipUnknown},
		{"empty", "", "", MembershipUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classifyMembership(c.primary, c.subtext); got != c.want {
				t.Errorf("classifyMembership(%q, %q) = %v, want %v", c.primary, c.subtext, got, c.want)
			}
		})
	}
}

func TestMilestoneMonths(t *testing.T) {
	cases := []struct {
		primary string
		want    int
	}{
		{"Member for 27 months", 27},
		{"Member for 1 month", 1},
		{"member for 6 months", 6},
		{"Welcome to membership", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := milestoneMonths(c.primary); got != c.want {
			t.Errorf("milestoneMonths(%q) = %d, want %d", c.primary, got, c.want)
		}
	}
}

func TestWelcomeLevelName(t *testing.T) {
	cases := []struct {
		primary string
		want    string
	}{
		{"Welcome to Super Fans membership", "Super Fans"},
		{"Welcome to RaidAway+ membership!", "RaidAway+"},
		{"Member for 3 months", ""},
	}
	for _, c := range cases {
		if got := welcomeLevelName(c.primary); got != c.want {
			t.Errorf("welcomeLevelName(%q) = %q, want %q", c.primary, got, c.want)
		}
	}
}

func TestGiftCount(t *testing.T) {
	cases := []struct {
		primary string
		want    int
	}{
		{"Sent 20 RaidAway+ gift memberships", 20},
		{"Sent 1 Super Fans gift membership", 1},
		{"Sent 5 gift memberships", 5},
		{"Gifted 5 Super Fans memberships", 5},
		{"Gifted a membership", 1},
		{"sent some gift things", 1}, // bare "gift" substring
		{"Member for 3 months", 0},
	}
	for _, c := range cases {
		if got := giftCount(c.primary); got != c.want {
			t.Errorf("giftCount(%q) = %d, want %d", c.primary, got, c.want)
		}
	}
}

func TestRedemptionGifter(t *testing.T) {
	if got := redemptionGifter("SomeUser gifted you a membership", "fallback"); got != "SomeUser" {
		t.Errorf("got %q, want SomeUser", got)
	}
	if got := redemptionGifter("was gifted a membership by", "SomeUser"); got != "SomeUser" {
		t.Errorf("fallback got %q, want SomeUser", got)
	}
}
