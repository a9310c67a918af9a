package tutor

import (
	"regexp"
	"strings"
)

// Links to the computation engine the model sometimes emits on its own.
var computationLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[.*?\]\((https?://www\.wolframalpha\.com[^\s)]+)\)`),
	regexp.MustCompile(`WolframAlpha[:\-\w\s]*\((https?://www\.wolframalpha\.com[^\)]+)\)`),
	regexp.MustCompile(`\(https?://www\.wolframalpha\.com[^\)]+\)`),
}

var (
	inlineParenMath  = regexp.MustCompile(`\\\((.*?)\\\)`)
	displayMath      = regexp.MustCompile(`\\\[(.*?)\\\]`)
	bracketedMath    = regexp.MustCompile(`\[\s*([^\[\]]+?)\s*\]`)
	simpleParens     = regexp.MustCompile(`\(\s*([a-zA-Z0-9^]+)\s*\)`)
	functionCall     = regexp.MustCompile(`([a-zA-Z])\(([^)]+)\)`)
	doubledDelimiter = strings.NewReplacer(`\left\left`, `\left`, `\right\right`, `\right`)
)

// Sanitize cleans a model reply before it is shown: computation links are
// removed, then math delimiters are normalized to Markdown LaTeX.
func Sanitize(text string) string {
	return strings.TrimSpace(NormalizeMath(StripComputationLinks(text)))
}

// StripComputationLinks removes markdown, labelled and bare parenthesized
// links to wolframalpha.com.
func StripComputationLinks(text string) string {
	for _, re := range computationLinkPatterns {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

// NormalizeMath rewrites the delimiters models commonly produce into the
// $...$ and $$...$$ forms the chat client renders.
func NormalizeMath(text string) string {
	text = inlineParenMath.ReplaceAllString(text, "$$${1}$$")
	text = displayMath.ReplaceAllString(text, "$$$$${1}$$$$")
	text = bracketedMath.ReplaceAllString(text, "$$${1}$$")

	// (x) -> x, but f(x) is left for the function rules below.
	text = replaceGuarded(simpleParens, text,
		func(s string, start, _ int) bool {
			return start == 0 || !isLetter(s[start-1]) && s[start-1] != '\\'
		},
		func(sub []string) string { return sub[1] })

	// f(x) -> $f(x)$ unless already inside math delimiters.
	text = replaceGuarded(functionCall, text,
		func(s string, start, end int) bool {
			if start > 0 && (isWordChar(s[start-1]) || s[start-1] == '$') {
				return false
			}
			return end == len(s) || s[end] != '$'
		},
		func(sub []string) string { return "$" + sub[1] + "(" + sub[2] + ")$" })

	// f(x) -> f\left(x\right) for anything not already a command.
	text = replaceGuarded(functionCall, text,
		func(s string, start, _ int) bool {
			return start == 0 || s[start-1] != '\\'
		},
		func(sub []string) string { return sub[1] + `\left(` + sub[2] + `\right)` })

	return doubledDelimiter.Replace(text)
}

// replaceGuarded replaces leftmost non-overlapping matches of re for which
// keep returns true. A rejected candidate is retried one byte later, so a
// match may begin inside a rejected one. keep sees the whole string and the
// absolute bounds of the candidate. re must not match the empty string.
func replaceGuarded(re *regexp.Regexp, s string, keep func(s string, start, end int) bool, repl func(sub []string) string) string {
	var b strings.Builder
	pos := 0
	for pos < len(s) {
		loc := re.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if !keep(s, start, end) {
			b.WriteString(s[pos : start+1])
			pos = start + 1
			continue
		}
		sub := make([]string, len(loc)/2)
		for i := range sub {
			if loc[2*i] >= 0 {
				sub[i] = s[pos+loc[2*i] : pos+loc[2*i+1]]
			}
		}
		b.WriteString(s[pos:start])
		b.WriteString(repl(sub))
		pos = end
	}
	if pos < len(s) {
		b.WriteString(s[pos:])
	}
	return b.String()
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isWordChar(c byte) bool {
	return isLetter(c) || c >= '0' && c <= '9' || c == '_'
}
