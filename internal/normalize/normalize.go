package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRe      = regexp.MustCompile(`\s+`)
	stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	// 阿拉伯文字母折叠：同一地名常见多种拼写
	arabicFolds = strings.NewReplacer(
		"أ", "ا",
		"إ", "ا",
		"آ", "ا",
		"ة", "ه",
		"ى", "ي",
		"ؤ", "و",
		"ئ", "ي",
	)
)

// Clean 清理单元格文本：HTML 实体解码、Unicode 规范化、空白压缩
func Clean(s string) string {
	s = html.UnescapeString(s)
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fold 生成用于模糊匹配的比较键：小写、去重音、阿拉伯文折叠
func Fold(s string) string {
	s = Clean(s)
	s = strings.ToLower(s)
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	return arabicFolds.Replace(s)
}

// FoldContains 判断折叠后 s 是否包含 sub
func FoldContains(s, sub string) bool {
	return strings.Contains(Fold(s), Fold(sub))
}
