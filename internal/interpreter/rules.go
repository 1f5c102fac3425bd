package interpreter

import (
	"fmt"
	"regexp"
	"strings"
)

// rule is one entry in the deterministic fallback parser. A rule fires when
// the lower-cased command contains at least one keyword from every gate
// group AND one of its patterns extracts non-blank values for all capture
// groups. Rules are evaluated in priority order; the first that fires wins.
type rule struct {
	action   Action
	gates    [][]string
	patterns []*regexp.Regexp
	build    func(groups []string) Intent
}

var createVerbs = []string{"create", "make", "add"}

// fallbackRules is the ordered rule table for stage-2 parsing. Keeping the
// gates, extraction templates and priority as data means tuning the parser
// is a table edit, and the table is unit-testable in isolation from dispatch.
var fallbackRules = []rule{
	{
		action: ActionCreatePermission,
		gates:  [][]string{{"permission"}, createVerbs},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:create|make|add).*permission.*for ([\w\s]+)`),
			regexp.MustCompile(`(?i)(?:create|make|add).*permission.*called ['"]?([^'"]+)['"]?`),
			regexp.MustCompile(`(?i)(?:create|make|add).*permission ([\w\s]+)`),
		},
		build: func(groups []string) Intent {
			return Intent{Action: ActionCreatePermission, Name: groups[0]}
		},
	},
	{
		action: ActionCreateRole,
		gates:  [][]string{{"role"}, createVerbs},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:create|make|add).*role.*called ['"]?([^'"]+)['"]?`),
			regexp.MustCompile(`(?i)(?:create|make|add) ([\w\s]+) role`),
			regexp.MustCompile(`(?i)(?:create|make|add).*role ([\w\s]+)`),
		},
		build: func(groups []string) Intent {
			return Intent{Action: ActionCreateRole, Name: groups[0]}
		},
	},
	{
		action: ActionAssignPermission,
		gates:  [][]string{{"give", "let", "allow"}, {"role", "permission"}},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:give|let|allow).*?([\w\s]+?).*permission.*?(?:to )?([\w\s]+)`),
			regexp.MustCompile(`(?i)(?:give|let|allow).*?(?:the )?([\w\s]+?).*?role.*?permission.*?(?:to )?([\w\s]+)`),
		},
		build: func(groups []string) Intent {
			return Intent{Action: ActionAssignPermission, RoleName: groups[0], PermissionName: groups[1]}
		},
	},
}

// parseFallback runs the command through the ordered rule table. It returns
// the intent of the first rule whose gates and extraction both succeed, or
// an error wrapping ErrUnrecognizedCommand when no rule fires.
func parseFallback(command string) (Intent, error) {
	lower := strings.ToLower(strings.TrimSpace(command))

	for _, r := range fallbackRules {
		if !gatesMatch(lower, r.gates) {
			continue
		}

		for _, pattern := range r.patterns {
			groups, ok := extract(pattern, command)
			if ok {
				return r.build(groups), nil
			}
		}
	}

	return Intent{}, fmt.Errorf("%w: %q", ErrUnrecognizedCommand, command)
}

// gatesMatch reports whether the command contains at least one keyword from
// every gate group.
func gatesMatch(lower string, gates [][]string) bool {
	for _, group := range gates {
		if !containsAny(lower, group) {
			return false
		}
	}

	return true
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}

	return false
}

// extract applies the pattern and returns the trimmed capture groups.
// The extraction only succeeds when every group is non-blank.
func extract(pattern *regexp.Regexp, command string) ([]string, bool) {
	match := pattern.FindStringSubmatch(command)
	if match == nil {
		return nil, false
	}

	groups := make([]string, 0, len(match)-1)

	for _, group := range match[1:] {
		group = strings.TrimSpace(group)
		if group == "" {
			return nil, false
		}

		groups = append(groups, group)
	}

	return groups, true
}
