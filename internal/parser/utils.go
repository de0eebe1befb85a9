package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Mujanati13/eco-solutions-sub001/internal/normalize"
)

var (
	digitsRe        = regexp.MustCompile(`\D`)
	moneyRe         = regexp.MustCompile(`[^0-9.,]`)
	moneyTokenRe    = regexp.MustCompile(`\d[\d\s.,]*`)
	wilayaComposite = regexp.MustCompile(`^(\d{1,2})\s*[-\s]+(.+)$`)
	bareWilayaCode  = regexp.MustCompile(`^\d{1,2}$`)
	numericCellRe   = regexp.MustCompile(`^[0-9][0-9\s.,+-]*$`)
)

// NormalizeHeader 规范化表头单元格用于模式匹配
func NormalizeHeader(s string) string {
	return normalize.Fold(s)
}

// ParsePhone 提取电话号码：去掉非数字，不足 8 位视为空
func ParsePhone(s string) string {
	digits := digitsRe.ReplaceAllString(s, "")
	if len(digits) < 8 {
		return ""
	}
	return digits
}

// ParseMoney 提取金额：仅保留数字与分隔符，小数逗号转点，失败返回 0
func ParseMoney(s string) float64 {
	cleaned := moneyRe.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0
	}
	cleaned = normalizeDecimal(cleaned)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseWeight 提取重量
// 约定："0" 是合法重量；仅真正非数字的输入回退为 1.0
func ParseWeight(s string) float64 {
	cleaned := moneyRe.ReplaceAllString(s, "")
	if cleaned == "" {
		return 1.0
	}
	cleaned = normalizeDecimal(cleaned)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 1.0
	}
	return v
}

// ExtractMoneyToken 从自由文本中提取第一个金额片段（用于变体字符串兜底取价）
func ExtractMoneyToken(s string) float64 {
	for _, tok := range moneyTokenRe.FindAllString(s, -1) {
		if v := ParseMoney(tok); v > 0 {
			return v
		}
	}
	return 0
}

// SplitWilayaComposite 拆分 "NN - Name" 复合文本
// 匹配时返回补零到两位的编码与名称；纯数字单元格视为编码；否则整体视为名称
func SplitWilayaComposite(s string) (code, name string) {
	s = strings.TrimSpace(s)
	if m := wilayaComposite.FindStringSubmatch(s); m != nil {
		return padWilayaCode(m[1]), strings.TrimSpace(m[2])
	}
	if bareWilayaCode.MatchString(s) {
		return padWilayaCode(s), ""
	}
	return "", s
}

func padWilayaCode(code string) string {
	if len(code) == 1 {
		return "0" + code
	}
	return code
}

// IsAffirmative 判断单元格是否为肯定标记
func IsAffirmative(s string) bool {
	switch normalize.Fold(s) {
	case "1", "x", "✓", "✔", "oui", "yes", "ok", "true", "نعم", "y":
		return true
	}
	return false
}

// IsNumericCell 判断单元格内容是否是数值
func IsNumericCell(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && numericCellRe.MatchString(s)
}

// ContainsAny 检查字符串（折叠后）是否包含任意关键词
func ContainsAny(text string, keywords []string) bool {
	folded := normalize.Fold(text)
	for _, kw := range keywords {
		if strings.Contains(folded, normalize.Fold(kw)) {
			return true
		}
	}
	return false
}

// normalizeDecimal 处理小数逗号：最后一个分隔符视为小数点，其余去掉
func normalizeDecimal(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	sep := lastComma
	if lastDot > sep {
		sep = lastDot
	}
	if sep < 0 {
		return s
	}
	intPart := strings.Map(keepDigits, s[:sep])
	fracPart := strings.Map(keepDigits, s[sep+1:])
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

func keepDigits(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}
