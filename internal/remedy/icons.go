package remedy

import (
	"strings"

	"github.com/samber/lo"
)

const defaultIcon = "📌"

type iconRule struct {
	keyword string
	icon    string
}

// Order matters: the first matching keyword wins.
var iconRules = []iconRule{
	{"overview", "📋"},
	{"treatment", "💊"},
	{"cultural", "🌱"},
	{"prevention", "🛡️"},
	{"important", "⚠️"},
}

// Icon returns the icon for a section title, matching keywords case-insensitively.
func Icon(title string) string {
	lower := strings.ToLower(title)
	rule, ok := lo.Find(iconRules, func(r iconRule) bool {
		return strings.Contains(lower, r.keyword)
	})
	if !ok {
		return defaultIcon
	}
	return rule.icon
}
