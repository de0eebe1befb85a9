package geo

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
	"github.com/Mujanati13/eco-solutions-sub001/internal/normalize"
	"github.com/Mujanati13/eco-solutions-sub001/internal/store"
)

// ReferenceStore 地理参考数据读写
type ReferenceStore interface {
	GetWilayaByCode(code string) (*model.Wilaya, error)
	ListWilayas() ([]*model.Wilaya, error)
	CreateWilaya(w *model.Wilaya) error
	ListCommunesByWilaya(wilayaID int64) ([]*model.Commune, error)
	CreateCommune(c *model.Commune) error
}

// 自动创建时编码冲突的重试上限
const maxCodeAttempts = 20

var digitsAndPunct = regexp.MustCompile(`[\d,;:/()\[\]°ـ-]+`)

// 地址套话词，派生 commune 名称前剔除
var addressNoise = map[string]struct{}{
	"rue": {}, "avenue": {}, "av": {}, "bd": {}, "boulevard": {},
	"cite": {}, "bloc": {}, "bt": {}, "batiment": {}, "immeuble": {},
	"apt": {}, "appartement": {}, "quartier": {}, "lot": {}, "lotissement": {},
	"villa": {}, "residence": {}, "num": {}, "no": {}, "n": {},
	"شارع": {}, "حي": {}, "عماره": {}, "رقم": {}, "طريق": {}, "نهج": {},
	"اقامه": {}, "تجزئه": {},
}

// Resolver 地理解析器
// 解析链：精确编码 → 模糊名称 → 自动创建（wilaya）；
// 精确 → 子串 → 分词 → 自动创建（commune）
type Resolver struct {
	store ReferenceStore
	rand  *rand.Rand
}

// NewResolver 创建解析器
func NewResolver(st ReferenceStore) *Resolver {
	return &Resolver{store: st, rand: rand.New(rand.NewSource(rand.Int63()))}
}

// ResolveWilaya 解析 wilaya
// 未命中且提供了编码或名称时自动创建；创建失败仅告警并返回 nil
func (r *Resolver) ResolveWilaya(code, name string) (*model.Wilaya, error) {
	if code != "" {
		w, err := r.store.GetWilayaByCode(code)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	if name != "" {
		w, err := r.matchWilayaByName(name)
		if err != nil {
			return nil, err
		}
		if w != nil {
			return w, nil
		}
	}

	if code == "" && name == "" {
		return nil, nil
	}

	w, err := r.createWilaya(code, name)
	if err != nil {
		slog.Warn("wilaya auto-create failed", "code", code, "name", name, "error", err)
		return nil, nil
	}
	return w, nil
}

// matchWilayaByName 模糊名称匹配：折叠后双向子串，任一语言字段命中即可
// 相等命中优先于子串命中
func (r *Resolver) matchWilayaByName(name string) (*model.Wilaya, error) {
	wilayas, err := r.store.ListWilayas()
	if err != nil {
		return nil, err
	}

	folded := normalize.Fold(name)
	var substringHit *model.Wilaya
	for _, w := range wilayas {
		for _, n := range w.Names() {
			fn := normalize.Fold(n)
			if fn == folded {
				return w, nil
			}
			if substringHit == nil && fn != "" && (strings.Contains(fn, folded) || strings.Contains(folded, fn)) {
				substringHit = w
			}
		}
	}
	return substringHit, nil
}

// createWilaya 自动创建 wilaya
// 无编码时随机取两位数并在冲突时重试；名称占位写入全部语言字段，
// 留待管理员后续修正
func (r *Resolver) createWilaya(code, name string) (*model.Wilaya, error) {
	if name == "" {
		name = code
	}

	if code != "" {
		w := &model.Wilaya{Code: code, NameAr: name, NameFr: name, NameEn: name, Active: true}
		if err := r.store.CreateWilaya(w); err != nil {
			return nil, err
		}
		slog.Info("auto-created wilaya", "code", w.Code, "name", name)
		return w, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		candidate := fmt.Sprintf("%02d", r.rand.Intn(99)+1)
		if _, err := r.store.GetWilayaByCode(candidate); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		w := &model.Wilaya{Code: candidate, NameAr: name, NameFr: name, NameEn: name, Active: true}
		if err := r.store.CreateWilaya(w); err != nil {
			continue // 并发插入撞码时换一个编码重试
		}
		slog.Info("auto-created wilaya", "code", w.Code, "name", name)
		return w, nil
	}
	return nil, fmt.Errorf("wilaya code generation exhausted after %d attempts", maxCodeAttempts)
}

// ResolveCommune 在已知 wilaya 范围内解析 commune
// 级联：精确 → 子串（相等优先）→ 分词 → 自动创建；每步命中即停
func (r *Resolver) ResolveCommune(wilaya *model.Wilaya, text string) (*model.Commune, error) {
	if wilaya == nil || text == "" {
		return nil, nil
	}

	communes, err := r.store.ListCommunesByWilaya(wilaya.ID)
	if err != nil {
		return nil, err
	}

	folded := normalize.Fold(text)

	// 1. 精确匹配（任一语言字段）
	for _, c := range communes {
		for _, n := range c.Names() {
			if normalize.Fold(n) == folded {
				return c, nil
			}
		}
	}

	// 2. 双向子串匹配
	for _, c := range communes {
		for _, n := range c.Names() {
			fn := normalize.Fold(n)
			if fn != "" && (strings.Contains(fn, folded) || strings.Contains(folded, fn)) {
				return c, nil
			}
		}
	}

	// 3. 分词匹配：取长度 ≥3 的词逐一与名称双向子串比对，首个命中生效
	for _, token := range strings.Fields(folded) {
		if len([]rune(token)) < 3 {
			continue
		}
		for _, c := range communes {
			for _, n := range c.Names() {
				fn := normalize.Fold(n)
				if fn != "" && (strings.Contains(fn, token) || strings.Contains(token, fn)) {
					return c, nil
				}
			}
		}
	}

	// 4. 自动创建
	c, err := r.createCommune(wilaya, text)
	if err != nil {
		slog.Warn("commune auto-create failed", "wilaya", wilaya.Code, "text", text, "error", err)
		return nil, nil
	}
	return c, nil
}

// createCommune 从自由文本派生名称并自动创建 commune
func (r *Resolver) createCommune(wilaya *model.Wilaya, text string) (*model.Commune, error) {
	name := cleanCommuneName(text)
	if len([]rune(name)) < 3 {
		return nil, fmt.Errorf("cleaned name %q too short", name)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := fmt.Sprintf("%s%02d", wilaya.Code, r.rand.Intn(100))
		c := &model.Commune{
			WilayaID: wilaya.ID,
			Code:     code,
			NameAr:   name,
			NameFr:   name,
			NameEn:   name,
			Zone:     model.ZoneUrban,
			Active:   true,
		}
		if err := r.store.CreateCommune(c); err != nil {
			continue // 编码冲突，换后缀重试
		}
		slog.Info("auto-created commune", "code", c.Code, "name", name, "wilaya", wilaya.Code)
		return c, nil
	}
	return nil, fmt.Errorf("commune code generation exhausted after %d attempts", maxCodeAttempts)
}

// cleanCommuneName 剔除数字与地址套话词，派生候选名称
func cleanCommuneName(text string) string {
	text = digitsAndPunct.ReplaceAllString(text, " ")
	var kept []string
	for _, tok := range strings.Fields(text) {
		if _, noise := addressNoise[normalize.Fold(tok)]; noise {
			continue
		}
		kept = append(kept, tok)
	}
	return normalize.Clean(strings.Join(kept, " "))
}
