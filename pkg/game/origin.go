package game

// Origin is a starting location the player picks before the first turn.
// The bonus text is narrated and applied by the generator through the
// ordinary first-turn delta; origins carry no mechanical state here.
type Origin struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"` // combat, alchemy, social, balanced, custom
	Description string `json:"description"`
	Bonus       string `json:"bonus"`
}

// OriginCustom is the origin ID that takes a free-form player prompt.
const OriginCustom = "custom"

var Origins = []Origin{
	{
		ID:          "sect",
		Name:        "青云宗 · 外门",
		Type:        "balanced",
		Description: "正道第一大宗。虽规矩森严，但胜在安稳。适合按部就班修行的正统修士。",
		Bonus:       "获《引气诀》、制式铁剑、身份腰牌。每月可领低保灵石。",
	},
	{
		ID:          "valley",
		Name:        "神农百草谷",
		Type:        "alchemy",
		Description: "隐世医仙的隐居地，遍地灵草，土质肥沃。适合种田、炼丹流派。",
		Bonus:       "获《神农本草经》残卷、破旧丹炉、灵谷种子*5、不知名灵药种子*1。",
	},
	{
		ID:          "tomb",
		Name:        "上古剑冢",
		Type:        "combat",
		Description: "杀伐之气极重，遍地残剑。煞气入体，修炼极快但容易走火入魔。适合炼器、剑修。",
		Bonus:       "根骨+5，获【断裂的玄铁剑】（可重铸）、洗剑池水。初始气血略低。",
	},
	{
		ID:          "city",
		Name:        "大晋皇都 · 坊市",
		Type:        "social",
		Description: "红尘滚滚，鱼龙混杂。只要有钱，什么都能买到。适合经商、符箓、阵法流派。",
		Bonus:       "灵石+200，悟性+5，获基础《符箓大全》、制符笔。",
	},
	{
		ID:          OriginCustom,
		Name:        "随机 / 自定义",
		Type:        "custom",
		Description: "天机难测，转世之地全凭道友一念之间。可随机生成，亦可自行构想。",
		Bonus:       "完全随机，充满未知与无限可能。",
	},
}

// GetOrigin looks up an origin by ID.
func GetOrigin(id string) (Origin, bool) {
	for _, o := range Origins {
		if o.ID == id {
			return o, true
		}
	}
	return Origin{}, false
}
