package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Screening profile names recorded by the upstream screener
const (
	ProfileUndervaluedQuality = "undervalued_quality" // 저평가 우량주
	ProfileValueBasic         = "value_basic"
	ProfileValueStrict        = "value_strict"
	ProfileGrowthQuality      = "growth_quality"
	ProfileMomentum           = "momentum"
	ProfileSwing              = "swing"
)

// KnownProfiles lists the profiles reported by the stats endpoint.
// Queries accept any profile name; unknown names simply match nothing.
var KnownProfiles = []string{
	ProfileUndervaluedQuality,
	ProfileValueBasic,
	ProfileValueStrict,
	ProfileGrowthQuality,
	ProfileMomentum,
	ProfileSwing,
}

// EncodeProfiles renders a tag collection as a JSON array for document stores.
// A nil collection encodes as "[]".
func EncodeProfiles(profiles []string) ([]byte, error) {
	if profiles == nil {
		profiles = []string{}
	}
	data, err := json.Marshal(profiles)
	if err != nil {
		return nil, fmt.Errorf("encode profiles: %w", err)
	}
	return data, nil
}

// DecodeProfiles parses a JSON array tag collection. Empty input and JSON null
// decode to an empty collection.
func DecodeProfiles(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []string{}, nil
	}

	var profiles []string
	if err := json.Unmarshal(trimmed, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if profiles == nil {
		profiles = []string{}
	}
	return profiles, nil
}

// EncodeProfileNeedle renders a single profile as the JSON scalar used by
// document-contains predicates
func EncodeProfileNeedle(profile string) (string, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return string(data), nil
}

// NormalizeProfiles returns the distinct tags sorted by name.
// Stores are not required to call it; membership tests tolerate duplicates.
func NormalizeProfiles(profiles []string) []string {
	seen := make(map[string]struct{}, len(profiles))
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NormalizeTicker trims and upper-cases a ticker at the request boundary
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
