package upstream

import (
	"regexp"
	"strings"
)

// extractRule names one candidate location of the workflow result field.
type extractRule struct {
	Name string
	Path []string
}

// Workflow replies vary slightly by deployment. Rules are evaluated in
// order; the first present, non-empty string wins.
var workflowResultRules = []extractRule{
	{Name: "data.outputs.result", Path: []string{"data", "outputs", "result"}},
	{Name: "outputs.result", Path: []string{"outputs", "result"}},
	{Name: "result", Path: []string{"result"}},
}

// ExtractWorkflowResult walks the known result locations in a workflow
// reply and returns the first match.
func ExtractWorkflowResult(body map[string]interface{}) (string, bool) {
	for _, rule := range workflowResultRules {
		if value, ok := lookupString(body, rule.Path); ok && value != "" {
			return value, true
		}
	}
	return "", false
}

// lookupString descends a nested map by path and returns the leaf if it
// is a string.
func lookupString(body map[string]interface{}, path []string) (string, bool) {
	var current interface{} = body
	for _, key := range path {
		node, ok := current.(map[string]interface{})
		if !ok {
			return "", false
		}
		current, ok = node[key]
		if !ok {
			return "", false
		}
	}
	value, ok := current.(string)
	return value, ok
}

// toolsMarkup matches the <tools>...</tools> blocks some agents leak
// into their answers, in any letter case. Sanitized out before display,
// never a parse error.
var toolsMarkup = regexp.MustCompile(`(?is)<tools>.*?</tools>`)

// StripTools removes tool-call markup from an answer.
func StripTools(answer string) string {
	return strings.TrimSpace(toolsMarkup.ReplaceAllString(answer, ""))
}
