package safety

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	domainerr "github.com/adsops/adsops/domain/error"
)

// IDKind is the shape a concrete identifier must have
type IDKind string

const (
	// IDNumeric accepts digits, optionally grouped with dashes (123-456-7890).
	IDNumeric IDKind = "numeric"
	// IDURL accepts an absolute http(s) URL, or a sc-domain: property.
	IDURL IDKind = "url"
)

// Target lists the identifying parameters of one request
type Target struct {
	ResourceID   string
	ResourceKind IDKind

	// SecondaryIDs are other identifiers the operation needs, keyed by name.
	SecondaryIDs  map[string]string
	SecondaryKind IDKind

	// Items is the enumerated payload of a bulk operation.
	Items         []string
	ItemsRequired bool
}

var (
	numericIDPattern = regexp.MustCompile(`^\d+(-\d+)*$`)
	vagueWords       = regexp.MustCompile(`(?i)\b(all|every|any|some|several|many|main|best|worst|top|various|etc)\b`)
	unboundedPhrases = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(all|every)\s+(of\s+)?(my\s+|the\s+|our\s+)?(campaigns?|ad\s*groups?|keywords?|accounts?|labels?|sitemaps?|sites?)\b`),
		regexp.MustCompile(`(?i)\b(many|lots\s+of|a\s+bunch\s+of|a\s+few|several|some|more)\s+(negative\s+)?(keywords?|campaigns?|labels?)\b`),
		regexp.MustCompile(`(?i)\betc\.?\b|\band\s+so\s+on\b|\bwhatever\b`),
		regexp.MustCompile(`(?i)\b(similar|related)\s+(keywords?|terms)\b`),
	}
)

// VaguenessGuard rejects requests that identify resources by description
// rather than by concrete identifier. It errs on the side of rejection.
type VaguenessGuard struct{}

func NewVaguenessGuard() *VaguenessGuard {
	return &VaguenessGuard{}
}

// DetectAndEnforceVagueness returns a vagueness error naming the first missing
// piece of specificity, or nil when the request is concrete.
func (g *VaguenessGuard) DetectAndEnforceVagueness(operationName, inputText string, target Target) error {
	if msg := checkIdentifier("resource_id", target.ResourceID, target.ResourceKind); msg != "" {
		return withOperation(operationName, msg)
	}

	for _, name := range sortedKeys(target.SecondaryIDs) {
		kind := target.SecondaryKind
		if kind == "" {
			kind = IDNumeric
		}
		if msg := checkIdentifier(name, target.SecondaryIDs[name], kind); msg != "" {
			return withOperation(operationName, msg)
		}
	}

	if target.ItemsRequired && len(target.Items) == 0 {
		return withOperation(operationName, "an explicit, enumerated list of items is required")
	}
	for i, item := range target.Items {
		if strings.TrimSpace(item) == "" {
			return withOperation(operationName, fmt.Sprintf("item %d is blank", i))
		}
	}

	for _, pattern := range unboundedPhrases {
		if m := pattern.FindString(inputText); m != "" {
			return withOperation(operationName, fmt.Sprintf("request text %q describes an unbounded change; list each target explicitly", m))
		}
	}
	return nil
}

func checkIdentifier(name, value string, kind IDKind) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Sprintf("%s is required", name)
	}
	if kind == IDURL {
		if strings.HasPrefix(value, "sc-domain:") && len(value) > len("sc-domain:") && !strings.ContainsAny(value, " \t") {
			return ""
		}
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || strings.ContainsAny(value, " \t") {
			return fmt.Sprintf("%s %q must be an absolute http(s) URL", name, value)
		}
		return ""
	}

	if strings.ContainsAny(value, " \t\n") || vagueWords.MatchString(value) {
		return fmt.Sprintf("%s %q is a description, not an ID; provide the numeric ID", name, value)
	}
	if !numericIDPattern.MatchString(value) {
		return fmt.Sprintf("%s %q must be a numeric ID", name, value)
	}
	return ""
}

func withOperation(operationName, detail string) error {
	return domainerr.NewVaguenessError(fmt.Sprintf("%s: %s", operationName, detail))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
