package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"case folding", "PEMBROLIZUMAB", "pembrolizumab"},
		{"dosage with space", "Aspirin 81 mg", "aspirin"},
		{"dosage without space", "metformin 500mg", "metformin"},
		{"compound dosage", "Pembrolizumab 100mg/4ml Injection", "pembrolizumab"},
		{"percentage strength", "hydrocortisone 1% cream", "hydrocortisone"},
		{"iu units", "Insulin Glargine 100 IU", "insulin glargine"},
		{"formulation words", "Omeprazole Delayed Release Capsules", "omeprazole"},
		{"release suffix", "bupropion XR", "bupropion"},
		{"oral solution", "Ondansetron Oral Solution 4 mg", "ondansetron"},
		{"parenthetical clause", "Semaglutide (2.4 mg, injection)", "semaglutide"},
		{"bare trailing number", "warfarin 5", "warfarin"},
		{"multi word preserved", "sodium chloride", "sodium chloride"},
		{"surrounding whitespace", "  Atorvastatin 20 MG Tablets  ", "atorvastatin"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeFallsBackToOriginal(t *testing.T) {
	// A name made entirely of stripped tokens must not normalize to "".
	assert.Equal(t, "500mg tablets", Normalize("500mg Tablets"))
	assert.Equal(t, "", Normalize("   "))
}

func TestUniqueGroupsVariantsUnderOneKey(t *testing.T) {
	records := []Record{
		{ID: 1, Name: "Pembrolizumab 25 MG Injection"},
		{ID: 2, Name: "Nivolumab"},
		{ID: 3, Name: "pembrolizumab"},
		{ID: 4, Name: "PEMBROLIZUMAB 100mg/4ml"},
		{ID: 5, Name: "Nivolumab 10 mg/ml"},
	}

	groups := Unique(records)
	require.Len(t, groups, 2)

	pembro := groups[0]
	assert.Equal(t, "pembrolizumab", pembro.Key)
	assert.Equal(t, int64(1), pembro.Representative.ID)
	assert.Equal(t, "Pembrolizumab 25 MG Injection", pembro.Representative.Name)
	assert.Equal(t, []string{
		"Pembrolizumab 25 MG Injection",
		"pembrolizumab",
		"PEMBROLIZUMAB 100mg/4ml",
	}, pembro.Variants)

	nivo := groups[1]
	assert.Equal(t, "nivolumab", nivo.Key)
	assert.Equal(t, int64(2), nivo.Representative.ID)
	assert.Len(t, nivo.Variants, 2)
}

func TestUniquePreservesFirstSeenOrder(t *testing.T) {
	records := []Record{
		{ID: 10, Name: "Zolpidem"},
		{ID: 11, Name: "Aspirin 81 mg"},
		{ID: 12, Name: "zolpidem 5mg tablets"},
		{ID: 13, Name: "Metformin"},
	}

	groups := Unique(records)
	require.Len(t, groups, 3)
	assert.Equal(t, "zolpidem", groups[0].Key)
	assert.Equal(t, "aspirin", groups[1].Key)
	assert.Equal(t, "metformin", groups[2].Key)
}

func TestUniqueSkipsDuplicateRawStrings(t *testing.T) {
	records := []Record{
		{ID: 1, Name: "Aspirin"},
		{ID: 2, Name: "Aspirin"},
	}

	groups := Unique(records)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Aspirin"}, groups[0].Variants)
	assert.Equal(t, int64(1), groups[0].Representative.ID)
}

func TestUniqueIsIdempotent(t *testing.T) {
	records := []Record{
		{ID: 1, Name: "Pembrolizumab 25 MG Injection"},
		{ID: 2, Name: "pembrolizumab"},
		{ID: 3, Name: "Nivolumab Injection"},
		{ID: 4, Name: "Aspirin 81mg"},
	}

	first := Unique(records)

	// Re-group the representatives of an already collapsed input.
	collapsed := make([]Record, 0, len(first))
	for _, g := range first {
		collapsed = append(collapsed, g.Representative)
	}
	second := Unique(collapsed)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
		assert.Equal(t, first[i].Representative, second[i].Representative)
	}
}

func TestUniqueDropsEmptyNames(t *testing.T) {
	groups := Unique([]Record{{ID: 1, Name: ""}, {ID: 2, Name: "Aspirin"}})
	require.Len(t, groups, 1)
	assert.Equal(t, "aspirin", groups[0].Key)
}
