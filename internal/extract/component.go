package extract

import (
	"regexp"
	"strings"
)

var (
	exportPattern      = regexp.MustCompile(`export\s+(?:default\s+)?(?:(?:async\s+)?function\s*\*?\s*|class\s+|const\s+|let\s+|var\s+)?(\w+)`)
	blockCommentRegexp = regexp.MustCompile(`(?s)/\*\*?(.*?)\*/`)
	docCommentPattern  = regexp.MustCompile(`(?s)/\*\*(.*?)\*/`)
	descriptionTag     = regexp.MustCompile(`@description\s+([^\n*]+)`)
	importPattern      = regexp.MustCompile(`import\s+(?:[\w*{}\s,$]+?\s+from\s+)?['"]([^'"]+)['"]`)
)

// Keywords that can follow "export" without naming anything useful.
var exportKeywords = map[string]bool{
	"default": true, "function": true, "class": true, "const": true, "let": true,
	"var": true, "async": true, "type": true, "interface": true, "enum": true,
	"abstract": true, "declare": true,
}

// ComponentTitle derives a display title for a component source file.
func ComponentTitle(content, filename string) string {
	for _, m := range exportPattern.FindAllStringSubmatch(content, -1) {
		if !exportKeywords[m[1]] {
			return FormatTitle(m[1])
		}
	}

	if m := blockCommentRegexp.FindStringSubmatch(content); m != nil {
		if lines := commentLines(m[1]); len(lines) > 0 {
			return lines[0]
		}
	}

	return FormatTitle(Stem(filename))
}

// ComponentDescription returns the @description tag of the source, or the
// second text line of its first doc comment. A non-empty @description takes
// precedence over the doc comment text.
func ComponentDescription(content string) string {
	if m := descriptionTag.FindStringSubmatch(content); m != nil {
		if d := strings.TrimSpace(m[1]); d != "" {
			return d
		}
	}

	m := docCommentPattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	// The first line of a doc comment is its summary (used as a title);
	// the description is the line that follows it.
	var text []string
	for _, line := range commentLines(m[1]) {
		if !strings.HasPrefix(line, "@") {
			text = append(text, line)
		}
	}
	if len(text) < 2 {
		return ""
	}
	return text[1]
}

// ComponentDependencies lists external module specifiers imported by the source.
func ComponentDependencies(content string) []string {
	deps := NewOrderedSet()
	for _, m := range importPattern.FindAllStringSubmatch(content, -1) {
		specifier := m[1]
		if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
			continue
		}
		deps.Add(specifier)
	}
	return deps.Items()
}

type contentRule struct {
	tag     string
	needles []string
}

var componentContentRules = []contentRule{
	{"state", []string{"useState"}},
	{"effect", []string{"useEffect"}},
	{"styled", []string{"className"}},
	{"interactive", []string{"onClick"}},
	{"form", []string{"form", "Form"}},
	{"chart", []string{"chart", "Chart"}},
	{"table", []string{"table", "Table"}},
	{"modal", []string{"modal", "Modal"}},
	{"card", []string{"card", "Card"}},
	{"button", []string{"button", "Button"}},
}

var componentFilenameKeywords = []string{"dashboard", "resume", "profile", "landing", "admin"}

// ComponentTags derives tags from content features and filename keywords.
// extra keywords are checked against the filename after the built-in ones.
func ComponentTags(content, filename string, extra ...string) []string {
	return tagsFor(content, filename, componentContentRules, componentFilenameKeywords, extra)
}

func tagsFor(content, filename string, rules []contentRule, keywords, extra []string) []string {
	tags := NewOrderedSet()
	for _, rule := range rules {
		for _, needle := range rule.needles {
			if strings.Contains(content, needle) {
				tags.Add(rule.tag)
				break
			}
		}
	}

	name := strings.ToLower(Stem(filename))
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			tags.Add(kw)
		}
	}
	for _, kw := range extra {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(name, kw) {
			tags.Add(kw)
		}
	}
	return tags.Items()
}

// commentLines strips comment decoration and returns the non-empty lines.
func commentLines(body string) []string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
