// Package normalize rewrites informal and dialectal source-language text
// into standard orthography before translation.
//
// The rewrite table is an explicit ordered list, not a map: earlier rules
// must not have their output re-matched by later ones, and longer, more
// specific patterns precede shorter ones that could shadow them. Tables
// are data, not code. They are loaded from versioned TOML, with the
// compiled-in default covering the colloquial Kannada corpus the pipeline
// was built against.
package normalize

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/unicode/norm"
)

// Rule maps one informal form to its standard spelling. Replacement is
// literal, not pattern-based.
type Rule struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// Table is an ordered rewrite rule set. The zero value is a usable no-op
// table.
type Table struct {
	rules []Rule
}

// NewTable builds a table preserving rule order. Both sides of every rule
// are NFC-normalized so visually identical Indic sequences cannot miss.
func NewTable(rules []Rule) Table {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{From: norm.NFC.String(r.From), To: norm.NFC.String(r.To)}
	}
	return Table{rules: out}
}

// Default returns the colloquial→standard Kannada table observed in
// production. Identity entries are kept for auditability; Apply skips
// them.
func Default() Table {
	return NewTable([]Rule{
		{"ಮೊಂಚಿನೆ", "ಮೊದಲು"},
		{"ತುಮ್ಬ", "ತುಂಬ"},
		{"ಸೊಲ್ಪ", "ಸ್ವಲ್ಪ"},
		{"ಯೂಸ್", "ಬಳಸಿ"},
		{"ಇಸ್ಟ್", "ಇಷ್ಟ"},
		{"ನಿವು", "ನೀವು"},
		{"ಹೇಂಗೆ", "ಹೇಗೆ"},
		{"ಎಂತ", "ಏನು"},
		{"ಅದ್ಕೆ", "ಅದಕ್ಕೆ"},
		{"ಇದ್ಕೆ", "ಇದಕ್ಕೆ"},
		{"ಕೊಡ್ರಿ", "ಕೊಡಿ"},
		{"ಮಾಡ್ಕೋ", "ಮಾಡಿಕೊ"},
		{"ಹೋಗ್ಬೇಕು", "ಹೋಗಬೇಕು"},
		{"ಬರ್ತಾ", "ಬರುತ್ತಾ"},
		{"ಮಾಡ್ತೀನಿ", "ಮಾಡುತ್ತೇನೆ"},
		{"ಇಟ್ಕೊ", "ಇಟ್ಟುಕೊ"},
		{"ಗೊತ್ತಿಲ್ಲ", "ಗೊತ್ತಿಲ್ಲ"},
		{"ನಮ್ಮ", "ನಮ್ಮ"},
		{"ಆಯ್ತು", "ಆಯಿತು"},
		{"ಮಾಡ್ಬೇಡ", "ಮಾಡಬೇಡ"},
		{"ನೋಡ್ತಾ", "ನೋಡುತ್ತಾ"},
	})
}

// Apply rewrites text through the table in order, replacing every literal
// occurrence of each rule's informal form. It is deterministic and total;
// for a table passing Validate it is also idempotent. Identity rules are
// skipped entirely.
func (t Table) Apply(text string) string {
	result := norm.NFC.String(text)
	for _, r := range t.rules {
		if r.From == r.To || r.From == "" {
			continue
		}
		result = strings.ReplaceAll(result, r.From, r.To)
	}
	return result
}

// Len returns the number of rules, identity entries included.
func (t Table) Len() int { return len(t.rules) }

// Rules returns a copy of the rule list for display and audit.
func (t Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Conflict describes a pair of rules breaking the idempotence requirement:
// the producer's output contains the trigger's input, so a second pass
// could rewrite text the first pass already produced.
type Conflict struct {
	ProducerIndex int
	TriggerIndex  int
	Producer      Rule
	Trigger       Rule
}

func (c Conflict) String() string {
	return fmt.Sprintf("rule %d output %q re-triggers rule %d (%q → %q)",
		c.ProducerIndex, c.Producer.To, c.TriggerIndex, c.Trigger.From, c.Trigger.To)
}

// Validate reports every producer/trigger pair whose interaction would
// make Apply non-idempotent. Identity and empty rules never fire, so they
// participate on neither side. An empty result means the table is
// well-formed: Apply(Apply(x)) == Apply(x) for all x.
func (t Table) Validate() []Conflict {
	var conflicts []Conflict
	for i, producer := range t.rules {
		if producer.From == producer.To || producer.From == "" || producer.To == "" {
			continue
		}
		for j, trigger := range t.rules {
			if trigger.From == trigger.To || trigger.From == "" {
				continue
			}
			if strings.Contains(producer.To, trigger.From) {
				conflicts = append(conflicts, Conflict{
					ProducerIndex: i,
					TriggerIndex:  j,
					Producer:      producer,
					Trigger:       trigger,
				})
			}
		}
	}
	return conflicts
}

type tableFile struct {
	Rules []Rule `toml:"rule"`
}

// Load reads an ordered rule table from a TOML file of [[rule]] entries.
func Load(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}
	var f tableFile
	if err := toml.Unmarshal(b, &f); err != nil {
		return Table{}, fmt.Errorf("parse rule table %s: %w", path, err)
	}
	return NewTable(f.Rules), nil
}
