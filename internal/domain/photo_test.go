package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesTags(t *testing.T) {
	ab := Photo{StatusID: "1", Tags: []string{"a", "b"}}
	a := Photo{StatusID: "2", Tags: []string{"a"}}
	bc := Photo{StatusID: "3", Tags: []string{"b", "c"}}
	query := []string{"a", "b"}

	assert.True(t, ab.MatchesTags(query, TagModeAll))
	assert.False(t, a.MatchesTags(query, TagModeAll))
	assert.False(t, bc.MatchesTags(query, TagModeAll))

	assert.True(t, ab.MatchesTags(query, TagModeAny))
	assert.True(t, a.MatchesTags(query, TagModeAny))
	assert.True(t, bc.MatchesTags(query, TagModeAny))

	assert.True(t, a.MatchesTags(nil, TagModeAll))
}

func TestHasTagIgnoresCase(t *testing.T) {
	p := Photo{Tags: []string{"retrocomputing"}}
	assert.True(t, p.HasTag("RetroComputing"))
}

func TestCompareStatusIDs(t *testing.T) {
	assert.Equal(t, 1, CompareStatusIDs("110000000000000001", "99999999999999999"))
	assert.Equal(t, -1, CompareStatusIDs("9", "10"))
	assert.Equal(t, 0, CompareStatusIDs("42", "42"))
	assert.Equal(t, 0, CompareStatusIDs("042", "42"))
	assert.Equal(t, -1, CompareStatusIDs("abc", "abd"))
}
