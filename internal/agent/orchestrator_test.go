package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRoutesByKeyword(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "trial keywords hit the database agent",
			query: "What phase 3 trials are running for semaglutide?",
			want:  []string{"database"},
		},
		{
			name:  "publication keywords hit the literature agent",
			query: "Recent papers on aspirin",
			want:  []string{"literature"},
		},
		{
			name:  "safety keywords hit the scraper agent",
			query: "adverse reactions reported for metformin",
			want:  []string{"scraper"},
		},
		{
			name:  "market keywords hit the chart-data agent",
			query: "stock price of the sponsor",
			want:  []string{"chart-data"},
		},
		{
			name:  "mixed query fans out to several agents",
			query: "show trials and papers and the stock chart for keytruda",
			want:  []string{"database", "literature", "chart-data"},
		},
		{
			name:  "unmatched query defaults to the database agent",
			query: "tell me about semaglutide",
			want:  []string{"database"},
		},
		{
			name:  "keywords match whole words only",
			query: "informational uncharted overview",
			want:  []string{"database"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.query))
		})
	}
}

func TestCacheKeyNormalizesQuery(t *testing.T) {
	assert.Equal(t, cacheKey("Trials for Aspirin"), cacheKey("  trials for aspirin "))
	assert.NotEqual(t, cacheKey("trials for aspirin"), cacheKey("papers for aspirin"))
}
