package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTags(t *testing.T) {
	got := Tags([]string{"#Italy", "france", "#RetroComputing"})
	assert.Equal(t, []string{"italy", "france", "retrocomputing"}, got)
}

func TestTagsDedupAndEmpty(t *testing.T) {
	got := Tags([]string{" #Travel ", "travel", "##TRAVEL", "#", "", "  "})
	assert.Equal(t, []string{"travel"}, got)
	assert.NotNil(t, Tags(nil))
	assert.Empty(t, Tags(nil))
}

func TestTagUnicodeFolding(t *testing.T) {
	// fullwidth letters fold to ASCII under NFKC
	assert.Equal(t, "abc", Tag("#ＡＢＣ"))
	assert.Equal(t, "café", Tag("Café"))
}

func TestHandle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@Alice@Example.Social", "alice@example.social"},
		{"alice@example.social", "alice@example.social"},
		{"@bob", "bob"},
		{"109876543210", "109876543210"},
		{"  @carol@host  ", "carol@host"},
		{"@", ""},
		{"a@", ""},
		{"a@b@c", ""},
		{"two words", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Handle(tt.in))
		})
	}
}

func TestHandles(t *testing.T) {
	got := Handles([]string{"@Alice@host", "alice@HOST", "", "bob"})
	assert.Equal(t, []string{"alice@host", "bob"}, got)
}

func TestIsAccountID(t *testing.T) {
	assert.True(t, IsAccountID("1234"))
	assert.False(t, IsAccountID("12a"))
	assert.False(t, IsAccountID(""))
}
