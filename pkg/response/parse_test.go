package response

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dao-engine/pkg/game"
)

func TestParse_StrictDecode(t *testing.T) {
	raw := `{"narrative":"山风吹过，灵气入体。","characterUpdate":{"cultivation":40,"health":95},"choices":["继续打坐","出关查看"],"gameOver":false,"eventArtKeyword":"mountain"}`

	res := Parse(raw)
	assert.Equal(t, "山风吹过，灵气入体。", res.Narrative)
	assert.Equal(t, []string{"继续打坐", "出关查看"}, res.Choices)
	assert.False(t, res.GameOver)
	assert.Equal(t, "mountain", res.EventArtKeyword)
	require.NotNil(t, res.CharacterUpdate)
	require.NotNil(t, res.CharacterUpdate.Cultivation)
	assert.Equal(t, 40, int(*res.CharacterUpdate.Cultivation))
	require.NotNil(t, res.CharacterUpdate.Health)
	assert.Equal(t, 95, int(*res.CharacterUpdate.Health))
}

func TestParse_CodeFence(t *testing.T) {
	raw := "```json\n{\"narrative\":\"你推开柴门。\",\"choices\":[\"入内\"],\"gameOver\":false}\n```"

	res := Parse(raw)
	assert.Equal(t, "你推开柴门。", res.Narrative)
	assert.Equal(t, []string{"入内"}, res.Choices)
	assert.Equal(t, DefaultArtKeyword, res.EventArtKeyword)
}

func TestParse_PreambleAndPostamble(t *testing.T) {
	// Models sometimes wrap the envelope in prose despite instructions.
	raw := "好的，这是剧情：\n{\"narrative\":\"夜色渐深。\",\"choices\":[\"歇息\"],\"gameOver\":false}\n希望你喜欢。"

	res := Parse(raw)
	assert.Equal(t, "夜色渐深。", res.Narrative)
	assert.Equal(t, []string{"歇息"}, res.Choices)
}

func TestParse_RoundTrip(t *testing.T) {
	cult := game.FlexInt(1200)
	stones := game.FlexInt(88)
	orig := &TurnResult{
		Narrative: "你在洞府中吐纳，丹田微热。\n一缕紫气自东而来。",
		CharacterUpdate: &game.CharacterDelta{
			Cultivation:  &cult,
			SpiritStones: &stones,
			Attributes:   map[string]game.FlexInt{"根骨": 12},
			Inventory:    []game.FlexName{"聚气丹", "铁剑"},
		},
		Choices:         []string{"继续吐纳", "出洞查看"},
		GameOver:        false,
		EventArtKeyword: "cave",
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	res := Parse(string(data))
	assert.Equal(t, orig.Narrative, res.Narrative)
	assert.Equal(t, orig.Choices, res.Choices)
	assert.Equal(t, orig.GameOver, res.GameOver)
	assert.Equal(t, orig.EventArtKeyword, res.EventArtKeyword)
	require.NotNil(t, res.CharacterUpdate)
	assert.Equal(t, orig.CharacterUpdate.Attributes, res.CharacterUpdate.Attributes)
	assert.Equal(t, orig.CharacterUpdate.Inventory, res.CharacterUpdate.Inventory)
	require.NotNil(t, res.CharacterUpdate.Cultivation)
	assert.Equal(t, 1200, int(*res.CharacterUpdate.Cultivation))
}

// A syntactically broken choices array must not take the narrative with it.
func TestParse_RegexRecovery_BrokenChoices(t *testing.T) {
	raw := `{"narrative":"前方山谷中隐有剑鸣。","choices":['拔剑而入', '绕道而行'],"gameOver":false}`

	res := Parse(raw)
	assert.Equal(t, "前方山谷中隐有剑鸣。", res.Narrative)
	assert.Equal(t, []string{"拔剑而入", "绕道而行"}, res.Choices)
	assert.False(t, res.GameOver)
}

func TestParse_RegexRecovery_UnescapedNewline(t *testing.T) {
	raw := "{\"narrative\":\"第一行\n第二行\",\"choices\":[\"继续\"],\"gameOver\":false}"

	res := Parse(raw)
	assert.Equal(t, "第一行\n第二行", res.Narrative)
}

func TestParse_RegexRecovery_EscapedSequences(t *testing.T) {
	raw := `{"narrative":"他说：\"走吧。\"\n你点头。","choices":[invalid}` // broken tail

	res := Parse(raw)
	assert.Equal(t, "他说：\"走吧。\"\n你点头。", res.Narrative)
}

// Turn result fields left outside a nested brace pair must still be
// recovered; a bare characterUpdate object is not the turn envelope.
func TestParse_OuterBracesMissing(t *testing.T) {
	raw := "```\n" + `"narrative":"你打坐修炼，气息渐涨。\nmeditation continues","characterUpdate":{"cultivation":40},"choices":["继续打坐","出关查看"],"gameOver":false` + "\n```"

	res := Parse(raw)
	assert.Equal(t, "你打坐修炼，气息渐涨。\nmeditation continues", res.Narrative)
	assert.Contains(t, res.Narrative, "\n")
	assert.Equal(t, []string{"继续打坐", "出关查看"}, res.Choices)
	assert.False(t, res.GameOver)
	require.NotNil(t, res.CharacterUpdate)
	require.NotNil(t, res.CharacterUpdate.Cultivation)
	assert.Equal(t, 40, int(*res.CharacterUpdate.Cultivation))
}

// Plain prose with no JSON at all is used verbatim as the narrative.
func TestParse_PlainProse(t *testing.T) {
	raw := "你缓缓睁开双眼，山中晨雾未散，远处传来钟声。"

	res := Parse(raw)
	assert.Equal(t, raw, res.Narrative)
	assert.Equal(t, []string{FallbackChoice}, res.Choices)
	assert.False(t, res.GameOver)
	assert.Equal(t, DefaultArtKeyword, res.EventArtKeyword)
}

func TestParse_GameOverDetection(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"compact true", `{"narrative":"陨落。","gameOver":true}`, true},
		{"spaced true", `{"narrative":"陨落。", "gameOver" : true }`, true},
		{"mixed case", `{"narrative":"陨落。","GameOver": True}`, true},
		{"false", `{"narrative":"侥幸逃生。","gameOver":false}`, false},
		{"absent", `{"narrative":"平安无事。"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw).GameOver)
		})
	}
}

func TestParse_NumericRecovery(t *testing.T) {
	raw := `{"narrative":"激战之后。","characterUpdate":{"health": 40, "maxHealth": 120, "spiritStones": 7, "根骨": 15},"choices":[broken`

	res := Parse(raw)
	require.NotNil(t, res.CharacterUpdate)
	cu := res.CharacterUpdate
	require.NotNil(t, cu.Health)
	assert.Equal(t, 40, int(*cu.Health))
	require.NotNil(t, cu.MaxHealth)
	assert.Equal(t, 120, int(*cu.MaxHealth))
	require.NotNil(t, cu.SpiritStones)
	assert.Equal(t, 7, int(*cu.SpiritStones))
	assert.Equal(t, game.FlexInt(15), cu.Attributes["根骨"])
	assert.Nil(t, cu.Cultivation, "absent fields stay nil")
}

func TestParse_FullwidthDigits(t *testing.T) {
	raw := `{"narrative":"突破！","characterUpdate":{"cultivation": １５０},"choices":[bad`

	res := Parse(raw)
	require.NotNil(t, res.CharacterUpdate)
	require.NotNil(t, res.CharacterUpdate.Cultivation)
	assert.Equal(t, 150, int(*res.CharacterUpdate.Cultivation))
}

func TestParse_UnknownAttributeNotRecovered(t *testing.T) {
	raw := `{"narrative":"无事发生。","characterUpdate":{"不存在属性": 99},"choices":[bad`

	res := Parse(raw)
	if res.CharacterUpdate != nil {
		_, ok := res.CharacterUpdate.Attributes["不存在属性"]
		assert.False(t, ok)
	}
}

func TestParse_DegradedNarrativeTruncation(t *testing.T) {
	long := strings.Repeat("废", 1500)
	raw := `{"broken": "` + long + `"}` // valid envelope, narrative never present

	res := Parse(raw)
	assert.NotEmpty(t, res.Narrative)
	assert.True(t, strings.HasSuffix(res.Narrative, "..."))
	assert.LessOrEqual(t, len([]rune(res.Narrative)), maxSalvagedNarrative+3)
	assert.NotContains(t, res.Narrative, `"broken":`)
}

// Parse must be total: no input may panic or yield a nil choices slice.
func TestParse_Totality(t *testing.T) {
	inputs := []string{
		"",
		"{",
		"}",
		"{}",
		"null",
		"```json\n```",
		`{"choices":}`,
		"{\"narrative\":\"\x00\"}",
		strings.Repeat("{", 1000),
		`{"narrative":123}`,
	}
	for _, in := range inputs {
		res := Parse(in)
		require.NotNil(t, res)
		assert.NotNil(t, res.Choices)
		assert.NotEmpty(t, res.EventArtKeyword)
	}
}

func TestParse_ObjectListElements(t *testing.T) {
	raw := `{"narrative":"你收起了战利品。","characterUpdate":{"inventory":[{"name":"妖丹","count":2},"铁剑"]},"choices":["离开"],"gameOver":false}`

	res := Parse(raw)
	require.NotNil(t, res.CharacterUpdate)
	assert.Equal(t, []game.FlexName{"妖丹", "铁剑"}, res.CharacterUpdate.Inventory)
}
