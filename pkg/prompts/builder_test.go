package prompts

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dao-engine/pkg/chat"
	"github.com/jwebster45206/dao-engine/pkg/game"
)

func testSession() *game.Session {
	s := game.NewSession()
	s.Character.Name = "李青山"
	return s
}

func TestBuilder_RequiresSessionAndAction(t *testing.T) {
	_, err := New().WithAction("打坐").Build()
	assert.Error(t, err)

	_, err = New().WithSession(testSession()).Build()
	assert.Error(t, err)
}

func TestBuilder_MessageShape(t *testing.T) {
	s := testSession()
	s.Append(game.RolePlayer, "前往深山")
	s.Append(game.RoleNarrator, "你踏入山门。")

	messages, err := New().WithSession(s).WithAction("继续前行").Build()
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, chat.ChatRoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "天道")

	assert.Equal(t, chat.ChatRoleUser, messages[1].Role)
	assert.Equal(t, "前往深山", messages[1].Content)
	assert.Equal(t, chat.ChatRoleAgent, messages[2].Role)

	// The final message carries the state snapshot and the action.
	last := messages[len(messages)-1]
	assert.Equal(t, chat.ChatRoleUser, last.Role)
	assert.Contains(t, last.Content, "继续前行")
	assert.Contains(t, last.Content, "灵道境界: 凡人")
	assert.Contains(t, last.Content, "气血(Health): 100/100")
}

func TestBuilder_SummaryInjection(t *testing.T) {
	s := testSession()
	s.Summary = "玩家已在青云宗修行三年。"

	messages, err := New().WithSession(s).WithAction("出关").Build()
	require.NoError(t, err)
	assert.Contains(t, messages[0].Content, "【长期记忆/前情提要】")
	assert.Contains(t, messages[0].Content, s.Summary)
}

func TestBuilder_NoSummaryNoHeader(t *testing.T) {
	messages, err := New().WithSession(testSession()).WithAction("打坐").Build()
	require.NoError(t, err)
	assert.NotContains(t, messages[0].Content, "【长期记忆/前情提要】")
}

func TestBuilder_NoticesExcluded(t *testing.T) {
	s := testSession()
	s.Append(game.RolePlayer, "查看四周")
	s.Append(game.RoleNotice, HintNotice)
	s.Append(game.RoleNarrator, "山谷寂静。")

	messages, err := New().WithSession(s).WithAction("继续").Build()
	require.NoError(t, err)
	for _, m := range messages {
		assert.NotContains(t, m.Content, HintNotice)
	}
	require.Len(t, messages, 4)
}

func TestBuilder_HistoryWindow(t *testing.T) {
	s := testSession()
	for i := 0; i < 50; i++ {
		s.Append(game.RolePlayer, fmt.Sprintf("行动%d", i))
		s.Append(game.RoleNarrator, fmt.Sprintf("剧情%d", i))
	}

	messages, err := New().WithSession(s).WithAction("继续").WithTokenBudget(0).Build()
	require.NoError(t, err)
	// system + 30 windowed entries + status context
	require.Len(t, messages, DefaultHistoryLimit+2)

	// The window keeps the most recent entries.
	assert.Equal(t, "剧情49", messages[len(messages)-2].Content)
	assert.Equal(t, "行动35", messages[1].Content)
}

func TestStartMessages(t *testing.T) {
	o, ok := game.GetOrigin("sect")
	require.True(t, ok)

	messages := StartMessages(o, "")
	require.Len(t, messages, 2)
	assert.Equal(t, chat.ChatRoleSystem, messages[0].Role)
	assert.Contains(t, messages[1].Content, o.Name)
	assert.Contains(t, messages[1].Content, o.Bonus)
}

func TestStartMessages_Custom(t *testing.T) {
	o, ok := game.GetOrigin(game.OriginCustom)
	require.True(t, ok)

	messages := StartMessages(o, "转世为一株柳树精")
	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Content, "转世为一株柳树精")
	assert.Contains(t, messages[1].Content, "自定义")
}

func TestSummaryPrompt(t *testing.T) {
	segment := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "拜入青云宗"},
		{Role: chat.ChatRoleAgent, Content: "长老点头应允。"},
		{Role: chat.ChatRoleSystem, Content: "不应出现"},
	}

	p := SummaryPrompt("", segment)
	assert.Contains(t, p, "玩家: 拜入青云宗")
	assert.Contains(t, p, "天道: 长老点头应允。")
	assert.Contains(t, p, "暂无")
	assert.NotContains(t, p, "不应出现")

	p2 := SummaryPrompt("已有记忆。", segment)
	assert.Contains(t, p2, "已有记忆。")
	assert.False(t, strings.Contains(p2, "暂无"))
}

func TestHintAndIdentifyActions(t *testing.T) {
	hint := HintAction("练气三层")
	assert.True(t, strings.HasPrefix(hint, "[SYSTEM:"))
	assert.Contains(t, hint, "练气三层")

	ident := IdentifyAction("不知名灵药")
	assert.True(t, strings.HasPrefix(ident, "[SYSTEM:"))
	assert.Contains(t, ident, "不知名灵药")
	assert.Contains(t, ident, "itemDetails")
}
