package model

import "time"

// Zone 递送区域分类
type Zone string

const (
	ZoneUrban    Zone = "urban"
	ZoneSuburban Zone = "suburban"
	ZoneRural    Zone = "rural"
)

// Wilaya 省级行政区（顶层递送区域）
type Wilaya struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"` // 两位数字编码，唯一
	NameAr    string    `json:"nameAr"`
	NameFr    string    `json:"nameFr"`
	NameEn    string    `json:"nameEn"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Names 返回全部语言名称（跳过空值）
func (w *Wilaya) Names() []string {
	return nonEmpty(w.NameAr, w.NameFr, w.NameEn)
}

// Commune 市镇（隶属于唯一 Wilaya 的二级行政区）
type Commune struct {
	ID        int64     `json:"id"`
	WilayaID  int64     `json:"wilayaId"`
	Code      string    `json:"code"` // wilaya 编码 + 两位后缀，唯一
	NameAr    string    `json:"nameAr"`
	NameFr    string    `json:"nameFr"`
	NameEn    string    `json:"nameEn"`
	Zone      Zone      `json:"zone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Names 返回全部语言名称（跳过空值）
func (c *Commune) Names() []string {
	return nonEmpty(c.NameAr, c.NameFr, c.NameEn)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
