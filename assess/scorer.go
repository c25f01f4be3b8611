package assess

import (
	"context"
	"sort"
	"strings"

	"github.com/narasim-teja/tars/types"
)

// Analysis is the vision collaborator's reading of the image: a free-text
// description plus tag hints. The collaborator itself is external; tests
// and offline runs inject a fixed implementation.
type Analysis struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Analyzer is the vision-analysis collaborator contract.
type Analyzer interface {
	Analyze(ctx context.Context, ev *types.Evidence) (*Analysis, error)
}

// Mechanism selection thresholds over the total score.
const (
	communityVoteThreshold = 80
	hybridThreshold        = 60
)

type categoryDef struct {
	name     string
	keywords []string
}

// Fixed category vocabulary. Order is the tiebreak for the category label.
var categories = []categoryDef{
	{"infrastructure", []string{"road", "bridge", "building", "pothole", "pipe", "power line", "collapse", "drainage"}},
	{"environment", []string{"flood", "fire", "pollution", "waste", "spill", "erosion", "deforestation", "smoke"}},
	{"safety", []string{"hazard", "danger", "injury", "accident", "unsafe", "emergency", "exposed", "collapse"}},
	{"communityNeed", []string{"school", "hospital", "clinic", "shelter", "homeless", "community", "displaced"}},
	{"economic", []string{"market", "business", "livelihood", "crop", "farm", "shop", "unemployment"}},
}

// Category labels that force the high urgency tier.
var urgentCategories = map[string]bool{
	"safety":      true,
	"environment": true,
}

var severeConditions = map[string]bool{
	"Rain":         true,
	"Rain showers": true,
	"Snow":         true,
	"Snow showers": true,
	"Thunderstorm": true,
}

// MechanismFor maps a total score to the recommended funding mechanism.
func MechanismFor(total int) types.Mechanism {
	switch {
	case total >= communityVoteThreshold:
		return types.MechanismCommunityVote
	case total >= hybridThreshold:
		return types.MechanismHybrid
	default:
		return types.MechanismTraditional
	}
}

// FundingFor scales the base amount linearly with the total score.
func FundingFor(baseAmount uint64, total int) uint64 {
	return baseAmount * uint64(total) / 100
}

// Score maps evidence, its vision analysis and its context record into a
// bounded impact assessment. Pure and deterministic: identical inputs
// always produce the identical assessment, which makes dedup-safe retries
// possible.
func Score(ev *types.Evidence, analysis *Analysis, rec *types.ContextRecord, baseAmount uint64) types.ImpactAssessment {
	text := ""
	if analysis != nil {
		text = strings.ToLower(analysis.Description + " " + strings.Join(analysis.Tags, " "))
	}

	subs := make(map[string]int, len(categories))
	for _, def := range categories {
		hits := 0
		for _, kw := range def.keywords {
			hits += strings.Count(text, kw)
		}
		score := 0
		if hits > 0 {
			score = 35 + 15*hits
		}
		subs[def.name] = clampScore(score)
	}

	if rec != nil && !rec.Skipped {
		if rec.Weather != nil && severeConditions[rec.Weather.Conditions] {
			subs["environment"] = clampScore(subs["environment"] + 10)
			subs["safety"] = clampScore(subs["safety"] + 10)
		}
		subs["communityNeed"] = clampScore(subs["communityNeed"] + 5*len(rec.News))
	}

	label := categoryLabel(subs)
	total := (subs["infrastructure"] + subs["environment"] + subs["safety"] + subs["communityNeed"] + subs["economic"]) / 5

	urgency := types.UrgencyMedium
	if urgentCategories[label] {
		urgency = types.UrgencyHigh
	}

	a := types.ImpactAssessment{
		TotalScore: total,
		SubScores: types.SubScores{
			Infrastructure: subs["infrastructure"],
			Environment:    subs["environment"],
			Safety:         subs["safety"],
			CommunityNeed:  subs["communityNeed"],
			Economic:       subs["economic"],
		},
		Category:           label,
		Urgency:            urgency,
		AffectedPopulation: uint64(total) * 100,
		Mechanism:          MechanismFor(total),
		FundingAmount:      FundingFor(baseAmount, total),
		Milestones:         milestonesFor(label),
		Stakeholders:       stakeholdersFor(label),
		Actions:            actionsFor(label),
	}
	if analysis != nil {
		a.Description = analysis.Description
	}
	return a
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// categoryLabel picks the highest sub-score with the fixed category order
// as tiebreak, so the label is stable across runs.
func categoryLabel(subs map[string]int) string {
	names := make([]string, 0, len(categories))
	for _, def := range categories {
		names = append(names, def.name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return subs[names[i]] > subs[names[j]]
	})
	return names[0]
}

func actionsFor(label string) []string {
	switch label {
	case "infrastructure":
		return []string{"Dispatch structural assessment team", "Cordon off affected area", "Schedule repair works"}
	case "environment":
		return []string{"Deploy containment measures", "Notify environmental authority", "Monitor affected zone"}
	case "safety":
		return []string{"Alert emergency services", "Secure the site", "Publish public safety notice"}
	case "communityNeed":
		return []string{"Coordinate with local organizations", "Set up relief distribution", "Assess shelter capacity"}
	default:
		return []string{"Engage local businesses", "Assess economic losses", "Plan recovery support"}
	}
}

func milestonesFor(label string) []string {
	return []string{
		"Verification quorum reached",
		"Funds released to beneficiary",
		"Field report on " + label + " remediation",
		"Completion audit",
	}
}

func stakeholdersFor(label string) []string {
	switch label {
	case "infrastructure":
		return []string{"Municipal works department", "Local residents"}
	case "environment":
		return []string{"Environmental agency", "Local residents"}
	case "safety":
		return []string{"Emergency services", "Local residents"}
	case "communityNeed":
		return []string{"Community organizations", "Local residents"}
	default:
		return []string{"Local business association", "Local residents"}
	}
}
