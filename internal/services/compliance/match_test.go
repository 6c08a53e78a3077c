package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		keywords []string
		want     string
		wantHit  bool
	}{
		{
			name:     "plain match",
			content:  "shkëlqyeshëm për agjenci",
			keywords: []string{"agjenci"},
			want:     "agjenci",
			wantHit:  true,
		},
		{
			name:     "case insensitive on both sides",
			content:  "Contact our AGENCY today",
			keywords: []string{"Agency"},
			want:     "Agency",
			wantHit:  true,
		},
		{
			// Substring containment has no word boundaries. This false positive is accepted behaviour.
			name:     "substring inside an unrelated word",
			content:  "Reagents stored on site",
			keywords: []string{"agent"},
			want:     "agent",
			wantHit:  true,
		},
		{
			name:     "no match",
			content:  "Sunny flat near the park",
			keywords: []string{"agjenci", "broker"},
			wantHit:  false,
		},
		{
			name:     "empty keyword never matches",
			content:  "anything at all",
			keywords: []string{"", "   "},
			wantHit:  false,
		},
		{
			name:     "no keywords",
			content:  "anything at all",
			keywords: nil,
			wantHit:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := Match(tt.content, tt.keywords)
			assert.Equal(t, tt.wantHit, hit)
			assert.Equal(t, tt.want, got)
		})
	}
}
