package player

import (
	"github.com/google/uuid"
)

// Defaults applied during normalization when a field is absent.
const (
	DefaultCommunicationStyle = "neutral"
	DefaultPlatform           = "any"
	DefaultLanguage           = "en"
	DefaultTheme              = "Neutral"
	DefaultPlayTime           = "anytime"
	DefaultSkillLevel         = 5
	DefaultContentTolerance   = 5
)

// Valid range for skillLevel and contentTolerance.
const (
	MinRating = 1
	MaxRating = 10
)

// PastBehavior carries moderation history used for risk flagging.
// Absence implies zero risk contribution.
type PastBehavior struct {
	ToxicityReports int `json:"toxicityReports"`
	FriendRequests  int `json:"friendRequests"`
}

// Profile describes one player's matching attributes. Profiles are
// immutable once normalized and handed to the grouping engine.
//
// Recognized fields are fixed; anything else a caller wants to carry
// goes into Metadata, which the engine never inspects.
type Profile struct {
	ID                 string            `json:"id"`
	Interests          []string          `json:"interests,omitempty"`
	CommunicationStyle string            `json:"communicationStyle,omitempty"`
	PlatformPreference string            `json:"platformPreference,omitempty"`
	Language           string            `json:"language,omitempty"`
	ThemePreference    string            `json:"themePreference,omitempty"`
	PlayTimes          []string          `json:"playTimes,omitempty"`
	SkillLevel         int               `json:"skillLevel,omitempty"`
	ContentTolerance   int               `json:"contentTolerance,omitempty"`
	PastBehavior       *PastBehavior     `json:"pastBehavior,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Normalize fills in defaults for absent fields, generates a missing
// id, and clamps the numeric ratings to [MinRating, MaxRating]. It
// returns a copy; the receiver is left untouched. Clamping happens
// here, at the boundary, so scoring arithmetic never sees wild values.
func (p Profile) Normalize() Profile {
	out := p

	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CommunicationStyle == "" {
		out.CommunicationStyle = DefaultCommunicationStyle
	}
	if out.PlatformPreference == "" {
		out.PlatformPreference = DefaultPlatform
	}
	if out.Language == "" {
		out.Language = DefaultLanguage
	}
	if out.ThemePreference == "" {
		out.ThemePreference = DefaultTheme
	}

	// Copy slices so the caller's backing arrays can't mutate a
	// profile after the engine has taken it. Insertion order is kept
	// for display; scoring itself is order-insensitive.
	out.Interests = append([]string(nil), p.Interests...)
	if len(p.PlayTimes) == 0 {
		out.PlayTimes = []string{DefaultPlayTime}
	} else {
		out.PlayTimes = append([]string(nil), p.PlayTimes...)
	}

	out.SkillLevel = clampRating(p.SkillLevel, DefaultSkillLevel)
	out.ContentTolerance = clampRating(p.ContentTolerance, DefaultContentTolerance)

	if p.PastBehavior != nil {
		behavior := *p.PastBehavior
		out.PastBehavior = &behavior
	}
	if p.Metadata != nil {
		out.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}

	return out
}

// ToxicityReports returns the report count, zero when no history exists.
func (p Profile) ToxicityReports() int {
	if p.PastBehavior == nil {
		return 0
	}
	return p.PastBehavior.ToxicityReports
}

// NormalizeAll normalizes every profile in order.
func NormalizeAll(profiles []Profile) []Profile {
	out := make([]Profile, len(profiles))
	for i, p := range profiles {
		out[i] = p.Normalize()
	}
	return out
}

func clampRating(v, fallback int) int {
	// Zero means the field was absent from the payload.
	if v == 0 {
		return fallback
	}
	if v < MinRating {
		return MinRating
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}
