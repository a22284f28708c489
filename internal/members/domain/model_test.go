package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleSet(t *testing.T) {
	set := NewRuleSet(
		Rule{ResourceType: "api", Action: "export"},
	)

	assert.True(t, set.Has(Rule{ResourceType: "api", Action: "export"}))
	assert.False(t, set.Has(Rule{ResourceType: "api", Action: "edit"}))
	assert.False(t, set.Has(Rule{ResourceType: "project", Action: "export"}))

	set.Add(Rule{ResourceType: "project", Action: "look"})
	assert.True(t, set.Has(Rule{ResourceType: "project", Action: "look"}))

	// Adding twice keeps set semantics.
	set.Add(Rule{ResourceType: "project", Action: "look"})
	assert.Len(t, set, 2)
}

func TestMemberHasRule(t *testing.T) {
	m := &Member{
		ID:        "mem-1",
		ProjectID: 1,
		AccountID: "acct-1",
		Rules:     NewRuleSet(Rule{ResourceType: "api", Action: "export"}),
	}

	assert.True(t, m.HasRule("api", "export"))
	assert.False(t, m.HasRule("project", "look"))
}
