// Package command turns terminal text into tactical orders.
package command

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/wartactics/server/internal/orders"
	"github.com/wartactics/server/internal/world"
)

const (
	unitName = `([A-Za-z]+(?:\s+Squad)?)`
	zoneName = `([A-Za-z]+(?:\s+[A-Za-z]+)?)`
	// HHMMZ or a named time of day.
	deadline = `(\d{4}Z|dawn|dusk|noon|midnight)`
)

var (
	movePattern    = regexp.MustCompile(`(?i)^move\s+` + unitName + `\s+to\s+` + zoneName + `(?:\s+before\s+` + deadline + `)?(?:\s+under\s+(.+))?$`)
	attackPattern  = regexp.MustCompile(`(?i)^attack\s+` + unitName + `\s+with\s+` + unitName + `(?:\s+using\s+(.+))?$`)
	defendPattern  = regexp.MustCompile(`(?i)^defend\s+` + zoneName + `\s+with\s+` + unitName + `$`)
	retreatPattern = regexp.MustCompile(`(?i)^retreat\s+` + unitName + `(?:\s+to\s+` + zoneName + `)?(?:\s+when\s+(.+))?$`)

	conjunction = regexp.MustCompile(`(?i)\s+and\s+`)
)

// Parse matches text against the move, attack, defend and retreat
// templates in that order. It returns false when nothing matches; there is
// no partial or fuzzy matching. Full-width input is folded to ASCII first.
//
//	move <unit> to <zone> [before <time>] [under <modifier> [and <modifier>...]]
//	attack <target> with <unit> [using <modifier> [and <modifier>...]]
//	defend <zone> with <unit>
//	retreat <unit> [to <zone>] [when <condition>]
func Parse(text string) (orders.Order, bool) {
	text = strings.TrimSpace(width.Narrow.String(text))

	if m := movePattern.FindStringSubmatch(text); m != nil {
		o := orders.Order{
			Unit:        strings.TrimSpace(m[1]),
			Action:      orders.Move,
			Destination: world.ZoneID(m[2]),
			Modifiers:   modifiers(m[4]),
		}
		if m[3] != "" {
			if isNamedTime(m[3]) {
				o.TimeConstraint = strings.ToLower(m[3])
			} else {
				o.TimeConstraint = strings.ToUpper(m[3])
			}
		}
		return o, true
	}
	if m := attackPattern.FindStringSubmatch(text); m != nil {
		return orders.Order{
			Unit:      strings.TrimSpace(m[2]),
			Action:    orders.Attack,
			Target:    strings.TrimSpace(m[1]),
			Modifiers: modifiers(m[3]),
		}, true
	}
	if m := defendPattern.FindStringSubmatch(text); m != nil {
		return orders.Order{
			Unit:        strings.TrimSpace(m[2]),
			Action:      orders.Defend,
			Destination: world.ZoneID(m[1]),
		}, true
	}
	if m := retreatPattern.FindStringSubmatch(text); m != nil {
		o := orders.Order{
			Unit:   strings.TrimSpace(m[1]),
			Action: orders.Retreat,
		}
		if m[2] != "" {
			o.Destination = world.ZoneID(m[2])
		}
		if m[3] != "" {
			o.Modifiers = []string{strings.ToLower(m[3])}
		}
		return o, true
	}
	return orders.Order{}, false
}

func modifiers(clause string) []string {
	if clause == "" {
		return nil
	}
	return conjunction.Split(strings.ToLower(clause), -1)
}

func isNamedTime(s string) bool {
	switch strings.ToLower(s) {
	case "dawn", "dusk", "noon", "midnight":
		return true
	}
	return false
}
