package rules

import "github.com/ViceKink/vice-kink-backend/internal/domain/enums"

const AdWatchReward = 1

var defaultFeatureCosts = map[enums.CoinFeature]int{
	enums.CoinFeatureRevealProfile: 1,
	enums.CoinFeatureRevealImage:   1,
	enums.CoinFeatureBoostProfile:  5,
}

// FeatureCost returns the coin price of a gated feature, or ok=false for an
// unknown feature tag.
func FeatureCost(feature enums.CoinFeature) (int, bool) {
	cost, ok := defaultFeatureCosts[feature]
	return cost, ok
}
