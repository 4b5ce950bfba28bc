package extract

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// markupDoc holds the parts of an HTML document the heuristics look at.
type markupDoc struct {
	title       string
	h1          string
	description string
	paragraph   string
	scripts     []string
	stylesheets []string
}

// scanMarkup walks the token stream once. It never fails: the tokenizer
// tolerates malformed input and stops at EOF.
func scanMarkup(content string) markupDoc {
	var doc markupDoc
	z := html.NewTokenizer(strings.NewReader(content))

	var (
		capture string // element whose text is being collected
		buf     strings.Builder
	)
	finish := func() {
		text := collapseSpace(buf.String())
		switch capture {
		case "title":
			if doc.title == "" {
				doc.title = text
			}
		case "h1":
			if doc.h1 == "" {
				doc.h1 = text
			}
		case "p":
			if doc.paragraph == "" {
				doc.paragraph = text
			}
		}
		capture = ""
		buf.Reset()
	}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if capture != "" {
				finish()
			}
			return doc
		}
		tok := z.Token()

		switch tt {
		case html.TextToken:
			if capture != "" {
				buf.WriteString(tok.Data)
				buf.WriteByte(' ')
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.Data {
			case "meta":
				if doc.description == "" && strings.EqualFold(attr(tok, "name"), "description") {
					doc.description = strings.TrimSpace(attr(tok, "content"))
				}
			case "script":
				if src := strings.TrimSpace(attr(tok, "src")); src != "" {
					doc.scripts = append(doc.scripts, src)
				}
			case "link":
				if hasToken(attr(tok, "rel"), "stylesheet") {
					if href := strings.TrimSpace(attr(tok, "href")); href != "" {
						doc.stylesheets = append(doc.stylesheets, href)
					}
				}
			}

			// An open p or h1 ends where the next block starts, even without
			// its end tag.
			if capture != "" && capture != "title" && blockElements[tok.Data] {
				finish()
			}
			if capture != "" {
				continue
			}
			switch tok.Data {
			case "title", "h1", "p":
				if tt == html.StartTagToken && wantsText(&doc, tok.Data) {
					capture = tok.Data
				}
			}

		case html.EndTagToken:
			if capture != "" && (tok.Data == capture || tok.Data == "body" || tok.Data == "html") {
				finish()
			}
		}
	}
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"body": true, "details": true, "div": true, "dl": true, "fieldset": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true,
	"script": true, "section": true, "style": true, "table": true, "ul": true,
}

func wantsText(doc *markupDoc, tag string) bool {
	switch tag {
	case "title":
		return doc.title == ""
	case "h1":
		return doc.h1 == ""
	case "p":
		return doc.paragraph == ""
	}
	return false
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasToken(list, want string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MarkupTitle returns the document title, the first h1, or a title built from the filename.
func MarkupTitle(content, filename string) string {
	doc := scanMarkup(content)
	if doc.title != "" {
		return doc.title
	}
	if doc.h1 != "" {
		return doc.h1
	}
	return FormatTitle(Stem(filename))
}

// MarkupDescription returns the meta description or the first paragraph's text.
func MarkupDescription(content string) string {
	doc := scanMarkup(content)
	if doc.description != "" {
		return doc.description
	}
	return doc.paragraph
}

// MarkupDependencies lists libraries loaded from CDNs by script tags, plus
// well-known CSS frameworks referenced by stylesheet links.
func MarkupDependencies(content string) []string {
	doc := scanMarkup(content)
	deps := NewOrderedSet()
	for _, src := range doc.scripts {
		deps.Add(LibraryFromScriptURL(src))
	}
	for _, href := range doc.stylesheets {
		for _, lib := range librariesFromStylesheet(href) {
			deps.Add(lib)
		}
	}
	return deps.Items()
}

var stylesheetLibraries = []struct {
	needles []string
	name    string
}{
	{[]string{"tailwind"}, "tailwindcss"},
	{[]string{"bootstrap"}, "bootstrap"},
	{[]string{"bulma"}, "bulma"},
	{[]string{"font-awesome", "fontawesome"}, "font-awesome"},
}

func librariesFromStylesheet(href string) []string {
	lower := strings.ToLower(href)
	var libs []string
	for _, lib := range stylesheetLibraries {
		for _, n := range lib.needles {
			if strings.Contains(lower, n) {
				libs = append(libs, lib.name)
				break
			}
		}
	}
	return libs
}

var (
	esmVersionSegment = regexp.MustCompile(`^v\d+$`)
	trailingVersion   = regexp.MustCompile(`[-.]v?\d+(\.\d+)*$`)
)

// LibraryFromScriptURL names the library a CDN script URL loads, following the
// path conventions of the common CDNs. Non-CDN URLs yield "".
func LibraryFromScriptURL(src string) string {
	lower := strings.ToLower(src)
	if !strings.Contains(lower, "cdn") && !strings.Contains(lower, "unpkg") && !strings.Contains(lower, "esm.sh") {
		return ""
	}

	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}

	switch {
	case strings.Contains(host, "tailwindcss"):
		return "tailwindcss"

	case strings.Contains(host, "jsdelivr"):
		if len(segs) >= 2 && segs[0] == "npm" {
			return packageFromSegments(segs[1:])
		}
		if len(segs) >= 3 && segs[0] == "gh" {
			return stripVersion(segs[2])
		}
		return ""

	case strings.Contains(host, "cdnjs"):
		if len(segs) >= 3 && segs[0] == "ajax" && segs[1] == "libs" {
			return segs[2]
		}
		return ""

	case strings.Contains(host, "unpkg"), strings.Contains(host, "esm.sh"), strings.Contains(host, "skypack"):
		if len(segs) > 0 && esmVersionSegment.MatchString(segs[0]) {
			segs = segs[1:]
		}
		return packageFromSegments(segs)
	}

	if len(segs) == 0 {
		return ""
	}
	name := stripVersion(segs[0])
	name = strings.TrimSuffix(name, ".js")
	name = strings.TrimSuffix(name, ".min")
	return trailingVersion.ReplaceAllString(name, "")
}

func packageFromSegments(segs []string) string {
	if len(segs) == 0 {
		return ""
	}
	if strings.HasPrefix(segs[0], "@") {
		if len(segs) < 2 {
			return ""
		}
		return segs[0] + "/" + stripVersion(segs[1])
	}
	return stripVersion(segs[0])
}

func stripVersion(s string) string {
	if i := strings.Index(s, "@"); i > 0 {
		return s[:i]
	}
	return s
}

var markupContentRules = []contentRule{
	{"chart", []string{"chart", "Chart"}},
	{"table", []string{"table", "Table"}},
	{"form", []string{"form", "Form"}},
	{"modal", []string{"modal", "Modal"}},
	{"carousel", []string{"carousel", "slider"}},
	{"infographic", []string{"infographic"}},
	{"dashboard", []string{"dashboard"}},
	{"landing", []string{"landing"}},
}

var markupFilenameKeywords = []string{"product", "comparison", "analysis", "report"}

// MarkupTags derives tags from content features and filename keywords.
func MarkupTags(content, filename string, extra ...string) []string {
	return tagsFor(content, filename, markupContentRules, markupFilenameKeywords, extra)
}
