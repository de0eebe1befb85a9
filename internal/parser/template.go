package parser

import "regexp"

// FieldRule 单字段匹配规则
type FieldRule struct {
	Field         Field
	HeaderPattern *regexp.Regexp    // 作用于折叠后的表头文本
	DefaultCol    int               // -1 表示无默认列
	Validator     func(string) bool // 数据行内容校验（低权重）
}

// FormatTemplate 列布局模板
// 注册顺序即得分平局时的优先顺序
type FormatTemplate struct {
	ID    string
	Rules []FieldRule
}

// SignatureFormatID 专有 17 列布局
// 该来源格式无法用通用模板可靠打分，通过表头标记组合直接命中
const SignatureFormatID = "signature17"

// 模式作用于 normalize.Fold 之后的表头：小写、去重音、阿拉伯文折叠
// （例如 "Téléphone" → "telephone"、"البلدية" → "البلديه"）
var (
	orderNoRe  = regexp.MustCompile(`(order|commande|tracking|suivi|رقم الطلب|n°)`)
	nameRe     = regexp.MustCompile(`(full name|name|nom|client|الاسم|الزبون)`)
	phoneRe    = regexp.MustCompile(`(phone|telephone|tel|mobile|هاتف)`)
	phone2Re   = regexp.MustCompile(`(phone ?2|telephone ?2|tel ?2|هاتف ?2)`)
	addressRe  = regexp.MustCompile(`(address|adresse|عنوان)`)
	communeRe  = regexp.MustCompile(`(commune|baladia|municipalit|بلديه)`)
	wilayaRe   = regexp.MustCompile(`(wilaya|region|province|ولايه)`)
	priceRe    = regexp.MustCompile(`(price|prix|montant|total|amount|سعر|مبلغ)`)
	productRe  = regexp.MustCompile(`(product|produit|article|منتج|سلعه)`)
	variantRe  = regexp.MustCompile(`(variant|variante|taille|couleur|متغير|مقاس)`)
	notesRe    = regexp.MustCompile(`(note|remarque|observation|ملاحظ)`)
	weightRe   = regexp.MustCompile(`(weight|poids|kg|وزن)`)
	pickupRe   = regexp.MustCompile(`(pick ?up|ramassage|استرجاع)`)
	exchangeRe = regexp.MustCompile(`(exchange|echange|استبدال|تبديل)`)
	stopdeskRe = regexp.MustCompile(`(stop ?desk|bureau|counter|guichet|مكتب|نقطه)`)
	openRe     = regexp.MustCompile(`(open|ouvrir|فتح)`)
	stationRe  = regexp.MustCompile(`(station|code bureau|centre|رمز المكتب|محطه)`)
)

// 表头存在性启发的关键词（语言无关）
var headerKeywords = []string{
	"order", "name", "phone", "address", "region", "product", "price",
	"weight", "notes", "date", "id", "tracking",
	"commande", "nom", "téléphone", "adresse", "wilaya", "commune",
	"produit", "prix", "poids", "client", "montant",
	"طلب", "اسم", "هاتف", "عنوان", "ولاية", "بلدية", "منتج", "سعر", "وزن",
}

// 专有格式签名标记：区域文字标记 + "变体价格/全名" 类标记同现
var (
	signatureCommuneMarkers = []string{"البلدية", "commune"}
	signatureWilayaMarkers  = []string{"الولاية", "wilaya"}
	signatureExtraMarkers   = []string{
		"سعر المتغير", "variant price", "prix variante",
		"الاسم الكامل", "full name", "nom complet",
	}
)

// Templates 返回已注册模板（声明顺序即注册顺序）
func Templates() []FormatTemplate {
	return []FormatTemplate{
		standardTemplate(),
		compactTemplate(),
	}
}

// standardTemplate 常见导出布局（法/英文表头）
func standardTemplate() FormatTemplate {
	return FormatTemplate{
		ID: "standard",
		Rules: []FieldRule{
			{Field: FieldOrderNo, HeaderPattern: orderNoRe, DefaultCol: 0},
			{Field: FieldFullName, HeaderPattern: nameRe, DefaultCol: 1, Validator: looksLikeName},
			{Field: FieldPhone, HeaderPattern: phoneRe, DefaultCol: 2, Validator: looksLikePhone},
			{Field: FieldAddress, HeaderPattern: addressRe, DefaultCol: 3},
			{Field: FieldCommune, HeaderPattern: communeRe, DefaultCol: 4},
			{Field: FieldWilaya, HeaderPattern: wilayaRe, DefaultCol: 5},
			{Field: FieldProduct, HeaderPattern: productRe, DefaultCol: 6},
			{Field: FieldPrice, HeaderPattern: priceRe, DefaultCol: 7, Validator: looksLikeMoney},
			{Field: FieldWeight, HeaderPattern: weightRe, DefaultCol: 8, Validator: looksLikeMoney},
			{Field: FieldNotes, HeaderPattern: notesRe, DefaultCol: 9},
			{Field: FieldStopDeskFlag, HeaderPattern: stopdeskRe, DefaultCol: -1},
			{Field: FieldStationCode, HeaderPattern: stationRe, DefaultCol: -1},
		},
	}
}

// compactTemplate 精简布局（仅姓名/电话/地理/金额）
func compactTemplate() FormatTemplate {
	return FormatTemplate{
		ID: "compact",
		Rules: []FieldRule{
			{Field: FieldFullName, HeaderPattern: nameRe, DefaultCol: 0, Validator: looksLikeName},
			{Field: FieldPhone, HeaderPattern: phoneRe, DefaultCol: 1, Validator: looksLikePhone},
			{Field: FieldWilaya, HeaderPattern: wilayaRe, DefaultCol: 2},
			{Field: FieldCommune, HeaderPattern: communeRe, DefaultCol: 3},
			{Field: FieldPrice, HeaderPattern: priceRe, DefaultCol: 4, Validator: looksLikeMoney},
			{Field: FieldProduct, HeaderPattern: productRe, DefaultCol: 5},
		},
	}
}

// signatureTemplate 专有 17 列布局（该来源列序固定）
func signatureTemplate() FormatTemplate {
	return FormatTemplate{
		ID: SignatureFormatID,
		Rules: []FieldRule{
			{Field: FieldOrderNo, HeaderPattern: orderNoRe, DefaultCol: 0},
			{Field: FieldFullName, HeaderPattern: nameRe, DefaultCol: 1},
			{Field: FieldPhone, HeaderPattern: phoneRe, DefaultCol: 2},
			{Field: FieldPhone2, HeaderPattern: phone2Re, DefaultCol: 3},
			{Field: FieldAddress, HeaderPattern: addressRe, DefaultCol: 4},
			{Field: FieldCommune, HeaderPattern: communeRe, DefaultCol: 5},
			{Field: FieldPrice, HeaderPattern: priceRe, DefaultCol: 6},
			{Field: FieldWilaya, HeaderPattern: wilayaRe, DefaultCol: 7},
			{Field: FieldProduct, HeaderPattern: productRe, DefaultCol: 8},
			{Field: FieldVariant, HeaderPattern: variantRe, DefaultCol: 9},
			{Field: FieldNotes, HeaderPattern: notesRe, DefaultCol: 10},
			{Field: FieldWeight, HeaderPattern: weightRe, DefaultCol: 11},
			{Field: FieldPickupFlag, HeaderPattern: pickupRe, DefaultCol: 12},
			{Field: FieldExchangeFlag, HeaderPattern: exchangeRe, DefaultCol: 13},
			{Field: FieldStopDeskFlag, HeaderPattern: stopdeskRe, DefaultCol: 14},
			{Field: FieldOpenFlag, HeaderPattern: openRe, DefaultCol: 15},
			{Field: FieldStationCode, HeaderPattern: stationRe, DefaultCol: 16},
		},
	}
}

func looksLikePhone(s string) bool {
	return ParsePhone(s) != ""
}

func looksLikeMoney(s string) bool {
	return IsNumericCell(s)
}

func looksLikeName(s string) bool {
	return s != "" && !IsNumericCell(s)
}
