package rfm

import (
	"fmt"
)

// Field names a scored-record attribute a predicate can test.
type Field string

// Fields addressable by segmentation rules.
const (
	FieldRQuartile Field = "r_quartile"
	FieldFQuartile Field = "f_quartile"
	FieldMQuartile Field = "m_quartile"
	FieldRFMScore  Field = "rfm_score"
	FieldRFMGroup  Field = "rfm_group"
)

// Condition tests one field of a scored record. Exactly one predicate kind
// must be set: Equals, OneOf, or a Min/Max range. Range bounds are inclusive;
// a lone Min applies >=, a lone Max applies <=.
type Condition struct {
	Field  Field    `yaml:"field"`
	Equals any      `yaml:"equals,omitempty"`
	OneOf  []any    `yaml:"one_of,omitempty"`
	Min    *float64 `yaml:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty"`
}

// Rule is a conjunction of conditions: all must hold for the rule to match.
type Rule struct {
	Conditions []Condition `yaml:"conditions"`
}

// Segment names a marketing segment and the rules that select it. A segment
// matches when ANY of its rules is satisfied.
type Segment struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// RuleSet is the ordered list of segments. Order matters: classification is
// first-match-wins, so earlier segments shadow later ones.
type RuleSet struct {
	Segments []Segment `yaml:"segments"`
}

// UnknownSegment is assigned when no configured rule matches a customer.
const UnknownSegment = "Unknown"

// Validate checks every condition references a known field and carries
// exactly one predicate kind. Rule sets are validated once at load time.
func (rs RuleSet) Validate() error {
	for _, seg := range rs.Segments {
		if seg.Name == "" {
			return fmt.Errorf("segment with empty name")
		}
		if len(seg.Rules) == 0 {
			return fmt.Errorf("segment %q has no rules", seg.Name)
		}
		for _, rule := range seg.Rules {
			if len(rule.Conditions) == 0 {
				return fmt.Errorf("segment %q has a rule with no conditions", seg.Name)
			}
			for _, cond := range rule.Conditions {
				if err := cond.validate(); err != nil {
					return fmt.Errorf("segment %q: %w", seg.Name, err)
				}
			}
		}
	}
	return nil
}

func (c Condition) validate() error {
	switch c.Field {
	case FieldRQuartile, FieldFQuartile, FieldMQuartile, FieldRFMScore, FieldRFMGroup:
	default:
		return fmt.Errorf("unknown field %q", c.Field)
	}

	kinds := 0
	if c.Equals != nil {
		kinds++
	}
	if c.OneOf != nil {
		kinds++
	}
	if c.Min != nil || c.Max != nil {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("condition on %q must have exactly one of equals, one_of, or min/max", c.Field)
	}
	if c.Field == FieldRFMGroup && (c.Min != nil || c.Max != nil) {
		return fmt.Errorf("rfm_group does not support range predicates")
	}
	return nil
}

// Classify returns the segment for a scored record: the first segment in
// definition order with a satisfied rule, or UnknownSegment.
func (rs RuleSet) Classify(sc Score) string {
	for _, seg := range rs.Segments {
		for _, rule := range seg.Rules {
			if rule.matches(sc) {
				return seg.Name
			}
		}
	}
	return UnknownSegment
}

func (r Rule) matches(sc Score) bool {
	for _, cond := range r.Conditions {
		if !cond.matches(sc) {
			return false
		}
	}
	return true
}

func (c Condition) matches(sc Score) bool {
	if c.Field == FieldRFMGroup {
		group := sc.RFMGroup
		switch {
		case c.Equals != nil:
			return stringValue(c.Equals) == group
		case c.OneOf != nil:
			for _, v := range c.OneOf {
				if stringValue(v) == group {
					return true
				}
			}
			return false
		default:
			return false
		}
	}

	value := float64(c.numericField(sc))
	switch {
	case c.Equals != nil:
		want, ok := toNumber(c.Equals)
		return ok && want == value
	case c.OneOf != nil:
		for _, v := range c.OneOf {
			if want, ok := toNumber(v); ok && want == value {
				return true
			}
		}
		return false
	default:
		if c.Min != nil && value < *c.Min {
			return false
		}
		if c.Max != nil && value > *c.Max {
			return false
		}
		return true
	}
}

func (c Condition) numericField(sc Score) int {
	switch c.Field {
	case FieldRQuartile:
		return sc.RQuartile
	case FieldFQuartile:
		return sc.FQuartile
	case FieldMQuartile:
		return sc.MQuartile
	default:
		return sc.RFMScore
	}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func atLeast(f Field, min float64) Condition {
	return Condition{Field: f, Min: &min}
}

func atMost(f Field, max float64) Condition {
	return Condition{Field: f, Max: &max}
}

func between(f Field, min, max float64) Condition {
	return Condition{Field: f, Min: &min, Max: &max}
}

// DefaultRuleSet mirrors the production segment catalogue: eleven segments
// from champions down to lost, evaluated in that order.
func DefaultRuleSet() RuleSet {
	segment := func(name string, conds ...Condition) Segment {
		return Segment{Name: name, Rules: []Rule{{Conditions: conds}}}
	}

	return RuleSet{Segments: []Segment{
		segment("champions",
			atLeast(FieldRQuartile, 4),
			atLeast(FieldFQuartile, 4),
			atLeast(FieldMQuartile, 4),
		),
		segment("loyal_customers",
			atLeast(FieldRQuartile, 3),
			atLeast(FieldFQuartile, 3),
			atLeast(FieldMQuartile, 3),
		),
		segment("potential_loyalists",
			atLeast(FieldRQuartile, 4),
			between(FieldFQuartile, 2, 3),
			between(FieldMQuartile, 2, 3),
		),
		segment("new_customers",
			atLeast(FieldRQuartile, 4),
			atMost(FieldFQuartile, 1),
		),
		segment("promising",
			atLeast(FieldRQuartile, 3),
			atMost(FieldFQuartile, 2),
			atLeast(FieldMQuartile, 3),
		),
		segment("needing_attention",
			between(FieldRQuartile, 2, 3),
			between(FieldFQuartile, 2, 3),
			between(FieldMQuartile, 2, 3),
		),
		segment("about_to_sleep",
			atMost(FieldRQuartile, 2),
			between(FieldFQuartile, 2, 3),
			between(FieldMQuartile, 2, 3),
		),
		segment("cant_lose",
			atMost(FieldRQuartile, 2),
			atLeast(FieldFQuartile, 3),
			atLeast(FieldMQuartile, 3),
		),
		segment("at_risk",
			atMost(FieldRQuartile, 2),
			between(FieldFQuartile, 2, 3),
		),
		segment("hibernating",
			atMost(FieldRQuartile, 1),
			atMost(FieldFQuartile, 2),
			atMost(FieldMQuartile, 2),
		),
		segment("lost",
			atMost(FieldRQuartile, 1),
			atMost(FieldFQuartile, 1),
		),
	}}
}
