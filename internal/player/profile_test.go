package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	p := Profile{}.Normalize()

	assert.NotEmpty(t, p.ID, "missing id should be generated")
	assert.Equal(t, DefaultCommunicationStyle, p.CommunicationStyle)
	assert.Equal(t, DefaultPlatform, p.PlatformPreference)
	assert.Equal(t, DefaultLanguage, p.Language)
	assert.Equal(t, DefaultTheme, p.ThemePreference)
	assert.Equal(t, []string{DefaultPlayTime}, p.PlayTimes)
	assert.Equal(t, DefaultSkillLevel, p.SkillLevel)
	assert.Equal(t, DefaultContentTolerance, p.ContentTolerance)
	assert.Nil(t, p.PastBehavior)
}

func TestNormalizeKeepsProvidedValues(t *testing.T) {
	p := Profile{
		ID:                 "p1",
		Interests:          []string{"RPG", "Strategy"},
		CommunicationStyle: "chatty",
		PlatformPreference: "pc",
		Language:           "fr",
		ThemePreference:    "Dark",
		PlayTimes:          []string{"evening"},
		SkillLevel:         7,
		ContentTolerance:   3,
	}.Normalize()

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, []string{"RPG", "Strategy"}, p.Interests)
	assert.Equal(t, "chatty", p.CommunicationStyle)
	assert.Equal(t, "fr", p.Language)
	assert.Equal(t, []string{"evening"}, p.PlayTimes)
	assert.Equal(t, 7, p.SkillLevel)
	assert.Equal(t, 3, p.ContentTolerance)
}

func TestNormalizeClampsRatings(t *testing.T) {
	cases := []struct {
		name string
		in   int
		want int
	}{
		{"absent defaults", 0, DefaultSkillLevel},
		{"below range", -3, MinRating},
		{"above range", 42, MaxRating},
		{"in range", 8, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Profile{SkillLevel: tc.in, ContentTolerance: tc.in}.Normalize()
			assert.Equal(t, tc.want, p.SkillLevel)
			assert.Equal(t, tc.want, p.ContentTolerance)
		})
	}
}

func TestNormalizeCopiesMutableFields(t *testing.T) {
	interests := []string{"RPG"}
	behavior := &PastBehavior{ToxicityReports: 1}
	original := Profile{ID: "p1", Interests: interests, PastBehavior: behavior, Metadata: map[string]string{"k": "v"}}

	normalized := original.Normalize()

	interests[0] = "changed"
	behavior.ToxicityReports = 99
	original.Metadata["k"] = "changed"

	assert.Equal(t, []string{"RPG"}, normalized.Interests)
	assert.Equal(t, 1, normalized.PastBehavior.ToxicityReports)
	assert.Equal(t, "v", normalized.Metadata["k"])
}

func TestToxicityReports(t *testing.T) {
	assert.Equal(t, 0, Profile{}.ToxicityReports())
	assert.Equal(t, 3, Profile{PastBehavior: &PastBehavior{ToxicityReports: 3}}.ToxicityReports())
}

func TestNormalizeAllPreservesOrder(t *testing.T) {
	out := NormalizeAll([]Profile{{ID: "a"}, {ID: "b"}})
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}
