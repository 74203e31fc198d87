package rfm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func scoreFixture(r, f, m int) Score {
	return Score{
		Metrics:   Metrics{CustomerID: "c"},
		RQuartile: r,
		FQuartile: f,
		MQuartile: m,
		RFMScore:  r*100 + f*10 + m,
		RFMGroup:  string([]byte{byte('0' + r), byte('0' + f), byte('0' + m)}),
	}
}

func TestConditionPredicates(t *testing.T) {
	sc := scoreFixture(4, 3, 2)

	cases := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals match", Condition{Field: FieldRQuartile, Equals: 4}, true},
		{"equals miss", Condition{Field: FieldRQuartile, Equals: 1}, false},
		{"equals string coercion", Condition{Field: FieldFQuartile, Equals: "3"}, true},
		{"one_of match", Condition{Field: FieldRFMScore, OneOf: []any{111, 432, 444}}, true},
		{"one_of miss", Condition{Field: FieldRFMScore, OneOf: []any{111, 222}}, false},
		{"min only", atLeast(FieldMQuartile, 2), true},
		{"min excludes", atLeast(FieldMQuartile, 3), false},
		{"max only", atMost(FieldMQuartile, 2), true},
		{"range inclusive low", between(FieldFQuartile, 3, 4), true},
		{"range inclusive high", between(FieldFQuartile, 1, 3), true},
		{"range miss", between(FieldFQuartile, 4, 4), false},
		{"group equals", Condition{Field: FieldRFMGroup, Equals: "432"}, true},
		{"group one_of", Condition{Field: FieldRFMGroup, OneOf: []any{"111", "432"}}, true},
		{"group miss", Condition{Field: FieldRFMGroup, Equals: "111"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cond.matches(sc))
		})
	}
}

func TestRuleConjunction(t *testing.T) {
	rule := Rule{Conditions: []Condition{
		atLeast(FieldRQuartile, 4),
		atLeast(FieldFQuartile, 4),
	}}
	assert.True(t, rule.matches(scoreFixture(4, 4, 1)))
	assert.False(t, rule.matches(scoreFixture(4, 3, 4)))
}

func TestSegmentRuleDisjunction(t *testing.T) {
	rs := RuleSet{Segments: []Segment{{
		Name: "either",
		Rules: []Rule{
			{Conditions: []Condition{{Field: FieldRFMGroup, Equals: "444"}}},
			{Conditions: []Condition{{Field: FieldRFMGroup, Equals: "111"}}},
		},
	}}}
	assert.Equal(t, "either", rs.Classify(scoreFixture(1, 1, 1)))
	assert.Equal(t, "either", rs.Classify(scoreFixture(4, 4, 4)))
	assert.Equal(t, UnknownSegment, rs.Classify(scoreFixture(2, 2, 2)))
}

func TestRuleSetValidate(t *testing.T) {
	cases := []struct {
		name string
		rs   RuleSet
	}{
		{"unknown field", RuleSet{Segments: []Segment{{
			Name:  "bad",
			Rules: []Rule{{Conditions: []Condition{{Field: "lifetime", Equals: 1}}}},
		}}}},
		{"no predicate", RuleSet{Segments: []Segment{{
			Name:  "bad",
			Rules: []Rule{{Conditions: []Condition{{Field: FieldRQuartile}}}},
		}}}},
		{"two predicates", RuleSet{Segments: []Segment{{
			Name:  "bad",
			Rules: []Rule{{Conditions: []Condition{{Field: FieldRQuartile, Equals: 1, OneOf: []any{1}}}}},
		}}}},
		{"group range", RuleSet{Segments: []Segment{{
			Name:  "bad",
			Rules: []Rule{{Conditions: []Condition{between(FieldRFMGroup, 1, 2)}}}},
		}}},
		{"empty rules", RuleSet{Segments: []Segment{{Name: "bad"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.rs.Validate())
		})
	}

	require.NoError(t, DefaultRuleSet().Validate())
}

func TestRuleSetYAML(t *testing.T) {
	doc := `
segments:
  - name: vip
    rules:
      - conditions:
          - field: rfm_score
            equals: 444
  - name: any
    rules:
      - conditions:
          - field: rfm_score
            min: 111
            max: 444
`
	var rs RuleSet
	require.NoError(t, yaml.Unmarshal([]byte(doc), &rs))
	require.NoError(t, rs.Validate())
	require.Len(t, rs.Segments, 2)

	assert.Equal(t, "vip", rs.Classify(scoreFixture(4, 4, 4)))
	assert.Equal(t, "any", rs.Classify(scoreFixture(2, 3, 1)))
}
