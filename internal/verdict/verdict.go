// Package verdict extracts judge decisions from free-form model output and
// combines a panel's decisions into a debate outcome.
package verdict

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
)

var (
	winnerPattern    = regexp.MustCompile(`(?i)Winner:\s*(FOR|AGAINST|TIE)`)
	reasoningPattern = regexp.MustCompile(`(?is)Reasoning:\s*(.+)`)
)

// Result is the structured form of one judge's response.
type Result struct {
	Winner    core.Winner
	Reasoning string
}

// Parse reads a judge response. It never fails: a missing winner line
// yields TIE, and a missing reasoning line yields the whole response with
// the winner line removed.
func Parse(raw string) Result {
	winner := core.WinnerTie
	if m := winnerPattern.FindStringSubmatch(raw); m != nil {
		winner = core.Winner(strings.ToUpper(m[1]))
	}

	var reasoning string
	if m := reasoningPattern.FindStringSubmatch(raw); m != nil {
		reasoning = strings.TrimSpace(m[1])
	} else {
		reasoning = strings.TrimSpace(replaceFirst(winnerPattern, raw, ""))
	}

	return Result{Winner: winner, Reasoning: reasoning}
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}

// Votes counts the winners chosen by a panel.
type Votes struct {
	For     int `json:"for"`
	Against int `json:"against"`
	Tie     int `json:"tie"`
}

// Tally counts winners.
func Tally(winners []core.Winner) Votes {
	var v Votes
	for _, w := range winners {
		switch w {
		case core.WinnerFor:
			v.For++
		case core.WinnerAgainst:
			v.Against++
		default:
			v.Tie++
		}
	}
	return v
}

// Outcome returns the panel decision for the counted votes. TIE votes do
// not count toward either side; an even split between FOR and AGAINST is
// a TIE.
func (v Votes) Outcome() core.Winner {
	switch {
	case v.For > v.Against:
		return core.WinnerFor
	case v.Against > v.For:
		return core.WinnerAgainst
	default:
		return core.WinnerTie
	}
}

// Aggregate decides a debate from exactly one verdict per panel seat.
func Aggregate(verdicts []core.JudgeVerdict) (core.Winner, error) {
	if len(verdicts) != core.PanelSize {
		return "", fmt.Errorf("need %d verdicts, got %d", core.PanelSize, len(verdicts))
	}
	winners := make([]core.Winner, len(verdicts))
	for i, v := range verdicts {
		winners[i] = v.Winner
	}
	return Tally(winners).Outcome(), nil
}
