package users

// Tier is the membership level granted by the identity provider's group claim.
type Tier string

const (
	TierViewer  Tier = "viewer"  // Can generate and browse own history
	TierMember  Tier = "member"  // Adds sharing
	TierPremium Tier = "premium" // Adds sharing and premium content
	// TierUnassigned means the token carries none of the known groups. It is
	// reported as-is rather than mapped to any real tier.
	TierUnassigned Tier = "unassigned"
)

// tierRank orders tiers so a user in several groups gets the highest.
var tierRank = map[Tier]int{
	TierUnassigned: 0,
	TierViewer:     1,
	TierMember:     2,
	TierPremium:    3,
}

// TierFromGroups picks the highest known tier among groups.
func TierFromGroups(groups []string) Tier {
	best := TierUnassigned
	for _, g := range groups {
		t := Tier(g)
		rank, known := tierRank[t]
		if known && rank > tierRank[best] {
			best = t
		}
	}
	return best
}

// CanShare reports whether the tier may publish activities to other users.
func (t Tier) CanShare() bool {
	return t == TierMember || t == TierPremium
}

func (t Tier) String() string {
	return string(t)
}
