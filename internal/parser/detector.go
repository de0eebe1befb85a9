package parser

import (
	"errors"
)

// ErrUnknownFormat 无法识别列布局
// 文件级错误：下游必须整体拒绝该表
var ErrUnknownFormat = errors.New("unknown sheet format")

const (
	scoreHeaderAtDefault = 3 // 表头在模板默认列命中
	scoreHeaderAnywhere  = 2 // 表头在任意列命中
	scoreValueValidator  = 1 // 数据行内容通过字段校验

	// 单个弱校验命中不足以定格式
	minDetectScore = 2
)

// Detector 格式识别器
// 先做签名短路检查，再对全部注册模板打分取最高
type Detector struct {
	templates []FormatTemplate
}

// NewDetector 创建识别器（使用注册模板）
func NewDetector() *Detector {
	return &Detector{templates: Templates()}
}

// Detect 识别二维表格的列布局
func (d *Detector) Detect(grid [][]string) (DetectionResult, error) {
	if len(grid) == 0 {
		return DetectionResult{FormatID: FormatUnknown}, ErrUnknownFormat
	}

	hasHeader := HasHeaderRow(grid)

	var header []string
	var dataRow []string
	if hasHeader {
		header = foldRow(grid[0])
		if len(grid) > 1 {
			dataRow = grid[1]
		}
	} else if len(grid) > 0 {
		dataRow = grid[0]
	}

	// 签名格式短路：区域文字标记组合直接命中专有布局
	if hasHeader && matchesSignature(header) {
		tpl := signatureTemplate()
		return DetectionResult{
			FormatID:   tpl.ID,
			Columns:    buildColumnMapping(tpl, header),
			Confidence: 1,
			HasHeader:  true,
		}, nil
	}

	best := DetectionResult{FormatID: FormatUnknown}
	bestScore := 0
	for _, tpl := range d.templates {
		score := scoreTemplate(tpl, header, dataRow)
		if score > bestScore { // 平局时先注册者保留
			bestScore = score
			best = DetectionResult{
				FormatID:   tpl.ID,
				Columns:    buildColumnMapping(tpl, header),
				Confidence: float64(score),
				HasHeader:  hasHeader,
			}
		}
	}

	if bestScore < minDetectScore {
		return DetectionResult{FormatID: FormatUnknown}, ErrUnknownFormat
	}
	return best, nil
}

// HasHeaderRow 表头存在性启发
// 第 0 行以文本为主且第 1 行含数值，或第 0 行包含已知表头关键词
func HasHeaderRow(grid [][]string) bool {
	if len(grid) == 0 {
		return false
	}
	row0 := grid[0]

	for _, cell := range row0 {
		if ContainsAny(cell, headerKeywords) {
			return true
		}
	}

	if len(grid) < 2 {
		return false
	}

	textCells, numericCells := 0, 0
	for _, cell := range row0 {
		if cell == "" {
			continue
		}
		if IsNumericCell(cell) {
			numericCells++
		} else {
			textCells++
		}
	}
	row1Numeric := 0
	for _, cell := range grid[1] {
		if IsNumericCell(cell) {
			row1Numeric++
		}
	}
	return textCells > numericCells && row1Numeric > 0
}

// matchesSignature 专有格式签名检查
// 条件：commune 标记 + wilaya 标记同现，且带 "变体价格/全名" 类标记
func matchesSignature(foldedHeader []string) bool {
	hasCommune, hasWilaya, hasExtra := false, false, false
	for _, cell := range foldedHeader {
		if ContainsAny(cell, signatureCommuneMarkers) {
			hasCommune = true
		}
		if ContainsAny(cell, signatureWilayaMarkers) {
			hasWilaya = true
		}
		if ContainsAny(cell, signatureExtraMarkers) {
			hasExtra = true
		}
	}
	return hasCommune && hasWilaya && hasExtra
}

// scoreTemplate 对单个模板打分
func scoreTemplate(tpl FormatTemplate, foldedHeader, dataRow []string) int {
	score := 0
	for _, rule := range tpl.Rules {
		if rule.HeaderPattern != nil && len(foldedHeader) > 0 {
			if rule.DefaultCol >= 0 && rule.DefaultCol < len(foldedHeader) &&
				rule.HeaderPattern.MatchString(foldedHeader[rule.DefaultCol]) {
				score += scoreHeaderAtDefault
				continue
			}
			matched := false
			for _, cell := range foldedHeader {
				if cell != "" && rule.HeaderPattern.MatchString(cell) {
					score += scoreHeaderAnywhere
					matched = true
					break
				}
			}
			if matched {
				continue
			}
		}
		if rule.Validator != nil && rule.DefaultCol >= 0 && rule.DefaultCol < len(dataRow) &&
			rule.Validator(dataRow[rule.DefaultCol]) {
			score += scoreValueValidator
		}
	}
	return score
}

// buildColumnMapping 构建字段列映射
// 优先表头正则命中的列；否则回退到模板默认列（需在界内）
func buildColumnMapping(tpl FormatTemplate, foldedHeader []string) map[Field]int {
	mapping := make(map[Field]int, len(tpl.Rules))
	for _, rule := range tpl.Rules {
		col := -1
		if rule.HeaderPattern != nil {
			for idx, cell := range foldedHeader {
				if cell != "" && rule.HeaderPattern.MatchString(cell) {
					col = idx
					break
				}
			}
		}
		if col < 0 && rule.DefaultCol >= 0 {
			if len(foldedHeader) == 0 || rule.DefaultCol < len(foldedHeader) {
				col = rule.DefaultCol
			}
		}
		if col >= 0 {
			mapping[rule.Field] = col
		}
	}
	return mapping
}

func foldRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = NormalizeHeader(cell)
	}
	return out
}
