package services

import "regexp"

// Destination category codes.
const (
	CategoryBeauty     = "320001100"
	CategorySupplement = "320002604"
	CategoryAppliance  = "320001476"
	CategoryDailyGoods = "320002130"

	BeautyUVCare      = "320001116"
	BeautyBaseMakeup  = "320001108"
	BeautyPointMakeup = "320001110"
	BeautyHairCare    = "320001118"
	BeautyNail        = "320001121"
	BeautyFragrance   = "320001123"
	BeautyBodyCare    = "320001114"
	BeautySkinCare    = "320001104"
)

// CategoryRule is one entry of a keyword cascade. Rules are evaluated
// top-to-bottom and the first rule with a matching keyword wins.
type CategoryRule struct {
	Name     string
	Code     string
	Keywords []string
}

var supplementKeywords = []string{
	"サプリ", "サプリメント", "プロテイン", "青汁", "栄養補助", "健康食品",
	"supplement", "protein",
}

// nutrientKeywords are common in skin care too, so they only mean supplement
// together with a dosage form.
var nutrientKeywords = []string{
	"ビタミン", "ミネラル", "酵素", "乳酸菌", "vitamin",
}

var dosageFormKeywords = []string{
	"錠", "カプセル", "タブレット", "日分", "粒入", "tablet", "capsule",
}

// dosageCountRegexp matches counts such as "90粒" or "60 粒".
var dosageCountRegexp = regexp.MustCompile(`\d+\s*粒`)

var applianceKeywords = []string{
	"ドライヤー", "ヘアアイロン", "アイロン", "美顔器", "スチーマー", "カールアイロン",
	"ストレートアイロン", "dryer", "hair iron", "steamer",
}

var razorKeywords = []string{
	"シェーバー", "髭剃り", "ひげそり", "ヒゲソリ", "カミソリ", "剃刀", "かみそり",
	"razor", "shaver",
}

var electricHintKeywords = []string{
	"電動", "充電", "充電式", "コードレス", "電池式", "usb", "ipx", "防水",
	"cordless", "rechargeable", "electric",
}

// disposableHintKeywords mark manual razors even when an electric hint is
// also present in the title.
var disposableHintKeywords = []string{
	"替刃", "替え刃", "刃付き", "ホルダー", "使い捨て", "t字", "一枚刃", "西洋剃刀",
	"日本剃刀", "straight razor", "replacement blade",
}

// beautySubRules is the beauty sub-category cascade. Skin care is last and is
// also the fallback when nothing matches.
var beautySubRules = []CategoryRule{
	{Name: "uv-care", Code: BeautyUVCare, Keywords: []string{
		"日焼け止め", "日やけ止め", "uvカット", "uv", "紫外線", "サンスクリーン", "spf", "sunscreen",
	}},
	{Name: "base-makeup", Code: BeautyBaseMakeup, Keywords: []string{
		"ファンデーション", "ファンデ", "化粧下地", "下地", "コンシーラー", "bbクリーム",
		"ccクリーム", "フェイスパウダー", "プライマー", "cushion", "foundation",
	}},
	{Name: "point-makeup", Code: BeautyPointMakeup, Keywords: []string{
		"口紅", "リップ", "ルージュ", "グロス", "アイシャドウ", "アイシャドー", "マスカラ",
		"アイライナー", "チーク", "アイブロウ", "眉", "lipstick", "mascara",
	}},
	{Name: "hair-care", Code: BeautyHairCare, Keywords: []string{
		"シャンプー", "コンディショナー", "トリートメント", "ヘアオイル", "ヘアマスク",
		"ヘアミスト", "ヘアワックス", "スタイリング", "育毛", "shampoo",
	}},
	{Name: "nail", Code: BeautyNail, Keywords: []string{
		"ネイル", "マニキュア", "ジェルネイル", "除光液", "トップコート", "nail",
	}},
	{Name: "fragrance", Code: BeautyFragrance, Keywords: []string{
		"香水", "フレグランス", "オードトワレ", "オードパルファム", "パルファム", "コロン",
		"perfume", "eau de",
	}},
	{Name: "body-care", Code: BeautyBodyCare, Keywords: []string{
		"ボディ", "ハンドクリーム", "ハンドケア", "フットケア", "かかと", "入浴剤",
		"デオドラント", "制汗", "body",
	}},
	{Name: "skin-care", Code: BeautySkinCare, Keywords: []string{
		"化粧水", "乳液", "美容液", "クリーム", "洗顔", "クレンジング", "パック",
		"シートマスク", "保湿", "オールインワン", "toner", "serum",
	}},
}
