package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// Rule is one explicit permission grant: an action on a resource type,
// e.g. {"api", "export"} or {"project", "look"}. Matching is exact —
// no wildcard and no implication between actions.
type Rule struct {
	ResourceType string `json:"resource_type"`
	Action       string `json:"action"`
}

// RuleSet holds a member's grants with value-equality lookup.
type RuleSet map[Rule]struct{}

func NewRuleSet(rules ...Rule) RuleSet {
	s := make(RuleSet, len(rules))
	for _, r := range rules {
		s[r] = struct{}{}
	}
	return s
}

func (s RuleSet) Has(r Rule) bool {
	_, ok := s[r]
	return ok
}

func (s RuleSet) Add(r Rule) {
	s[r] = struct{}{}
}

// MarshalJSON renders the set as a stable list, since struct map keys
// have no JSON form.
func (s RuleSet) MarshalJSON() ([]byte, error) {
	rules := make([]Rule, 0, len(s))
	for r := range s {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].ResourceType != rules[j].ResourceType {
			return rules[i].ResourceType < rules[j].ResourceType
		}
		return rules[i].Action < rules[j].Action
	})
	return json.Marshal(rules)
}

// Member joins an account to a project. Membership alone grants
// nothing; every permission is an explicit entry in Rules.
type Member struct {
	ID        string    `json:"id"`
	ProjectID int64     `json:"project_id"`
	AccountID string    `json:"account_id"`
	Rules     RuleSet   `json:"rules"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (m *Member) HasRule(resourceType, action string) bool {
	return m.Rules.Has(Rule{ResourceType: resourceType, Action: action})
}
