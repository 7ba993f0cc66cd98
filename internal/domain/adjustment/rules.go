package adjustment

// TargetRules decides which adjustment types may be applied to which
// targets. The current business policy allows every combination, so the
// registry starts empty (default allow); future restrictions are added by
// registering denials instead of changing call sites.
type TargetRules struct {
	denied map[AdjustmentTarget]map[AdjustmentType]bool
}

// NewTargetRules creates a rule registry that allows every combination
func NewTargetRules() *TargetRules {
	return &TargetRules{
		denied: make(map[AdjustmentTarget]map[AdjustmentType]bool),
	}
}

// Deny registers a target/type combination as disallowed
func (r *TargetRules) Deny(target AdjustmentTarget, adjustmentType AdjustmentType) *TargetRules {
	if r.denied[target] == nil {
		r.denied[target] = make(map[AdjustmentType]bool)
	}
	r.denied[target][adjustmentType] = true
	return r
}

// Allow removes a previously registered denial
func (r *TargetRules) Allow(target AdjustmentTarget, adjustmentType AdjustmentType) *TargetRules {
	if types, ok := r.denied[target]; ok {
		delete(types, adjustmentType)
	}
	return r
}

// IsAllowed reports whether the target/type combination is permitted
func (r *TargetRules) IsAllowed(target AdjustmentTarget, adjustmentType AdjustmentType) bool {
	if types, ok := r.denied[target]; ok {
		return !types[adjustmentType]
	}
	return true
}

// defaultTargetRules is the package-wide policy. It is populated at
// initialization and treated as read-only afterwards.
var defaultTargetRules = NewTargetRules()

// IsValidTargetCombination reports whether an adjustment type may target
// the given scope under the default policy.
func IsValidTargetCombination(target AdjustmentTarget, adjustmentType AdjustmentType) bool {
	return defaultTargetRules.IsAllowed(target, adjustmentType)
}
