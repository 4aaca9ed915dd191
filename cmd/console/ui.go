package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/dao-engine/pkg/game"
)

const (
	AgentName       = "天道"
	PlayerName      = "你"
	PlaceHolderText = "输入行动，或 /hint 窥探天机、/jd 物品名 鉴定、/copy 复制剧情..."
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *game.Session
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	statusLine   string

	// Quit confirmation state
	showQuitModal bool
}

// turnMsg carries the updated session (or the failure) of any turn verb.
type turnMsg struct {
	session *game.Session
	err     error
}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")). // gold
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // jade green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, s *game.Session) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(26, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		session:      s,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
	)

	m.textarea, taCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.showQuitModal {
				return m, tea.Quit
			}
			m.showQuitModal = true
			return m, nil
		case tea.KeyEsc:
			m.showQuitModal = false
			return m, nil
		case tea.KeyEnter:
			if m.showQuitModal {
				return m, tea.Quit
			}
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			return m.dispatch(input)
		}

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.session = msg.session
		}
		m.refresh()
		m.chatViewport.GotoBottom()
	}

	return m, tea.Batch(taCmd, vpCmd)
}

// dispatch routes slash commands and plain actions.
func (m ConsoleUI) dispatch(input string) (tea.Model, tea.Cmd) {
	switch {
	case input == "/copy":
		m.statusLine = m.copyNarrative()
		m.refresh()
		return m, nil

	case input == "/hint":
		m.loading = true
		m.statusLine = ""
		m.refresh()
		return m, func() tea.Msg {
			s, err := sendHint(m.client, m.config.APIBaseURL, m.session.ID)
			return turnMsg{session: s, err: err}
		}

	case strings.HasPrefix(input, "/jd "):
		item := strings.TrimSpace(strings.TrimPrefix(input, "/jd "))
		m.loading = true
		m.statusLine = ""
		m.refresh()
		return m, func() tea.Msg {
			s, err := sendIdentify(m.client, m.config.APIBaseURL, m.session.ID, item)
			return turnMsg{session: s, err: err}
		}

	default:
		m.loading = true
		m.statusLine = ""
		m.refresh()
		return m, func() tea.Msg {
			s, err := sendAction(m.client, m.config.APIBaseURL, m.session.ID, input)
			return turnMsg{session: s, err: err}
		}
	}
}

// copyNarrative puts the latest narrator entry on the system clipboard.
func (m *ConsoleUI) copyNarrative() string {
	for i := len(m.session.TurnLog) - 1; i >= 0; i-- {
		if m.session.TurnLog[i].Role == game.RoleNarrator {
			if err := clipboard.WriteAll(m.session.TurnLog[i].Content); err != nil {
				return "复制失败: " + err.Error()
			}
			return "已复制最新剧情。"
		}
	}
	return "暂无剧情可复制。"
}

func (m *ConsoleUI) layout() {
	metaWidth := 28
	chatWidth := m.width - metaWidth
	inputHeight := 5

	m.chatViewport.Width = chatWidth
	m.chatViewport.Height = m.height - inputHeight
	m.metaViewport.Width = metaWidth
	m.metaViewport.Height = m.height - inputHeight
	m.textarea.SetWidth(m.width - 4)
	m.refresh()
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) refresh() {
	m.chatViewport.SetContent(m.chatContent())
	m.metaViewport.SetContent(m.metaContent())
}

func (m *ConsoleUI) chatContent() string {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("仙 路") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	for _, entry := range m.session.TurnLog {
		switch entry.Role {
		case game.RolePlayer:
			content.WriteString(speakerStyle.Render(PlayerName+": ") +
				userStyle.Render(wordwrap.String(entry.Content, chatWidth)) + "\n\n")
		case game.RoleNarrator:
			content.WriteString(speakerStyle.Render(AgentName+": ") + "\n" +
				narratorStyle.Render(wordwrap.String(entry.Content, chatWidth)) + "\n\n")
		case game.RoleNotice:
			content.WriteString(noticeStyle.Render(wordwrap.String(entry.Content, chatWidth)) + "\n\n")
		}
	}

	if len(m.session.Choices) > 0 && !m.session.IsEnded {
		content.WriteString(choiceStyle.Render("抉择:") + "\n")
		for i, c := range m.session.Choices {
			content.WriteString(choiceStyle.Render(fmt.Sprintf("  %d. %s", i+1, c)) + "\n")
		}
		content.WriteString("\n")
	}

	if m.session.IsEnded {
		content.WriteString(errorStyle.Render("—— 身死道消，此世尘缘已了 ——") + "\n")
	}
	if m.loading {
		content.WriteString(loadingStyle.Render("天机推演中...") + "\n")
	}
	if m.err != nil {
		content.WriteString(errorStyle.Render("错误: "+m.err.Error()) + "\n")
	}
	if m.statusLine != "" {
		content.WriteString(noticeStyle.Render(m.statusLine) + "\n")
	}

	return content.String()
}

func (m *ConsoleUI) metaContent() string {
	cs := m.session.Character
	var content strings.Builder
	content.WriteString(titleStyle.Render("状 态") + "\n\n")

	content.WriteString(fmt.Sprintf("灵道境界: %s\n", cs.Realm))
	content.WriteString(fmt.Sprintf("肉身境界: %s\n\n", cs.BodyRealm))

	content.WriteString(fmt.Sprintf("气血: %d/%d\n", cs.Health, cs.MaxHealth))
	content.WriteString(fmt.Sprintf("灵力: %d/%d\n", cs.Cultivation, cs.MaxCultivation))
	content.WriteString(fmt.Sprintf("神识: %d/%d\n", cs.Soul, cs.MaxSoul))
	content.WriteString(fmt.Sprintf("灵石: %d\n\n", cs.SpiritStones))

	for _, name := range game.AttributeNames {
		content.WriteString(fmt.Sprintf("%s: %d\n", name, cs.Attributes[name]))
	}
	content.WriteString("\n")

	content.WriteString(fmt.Sprintf("武器: %s\n", cs.Equipment.Weapon))
	content.WriteString(fmt.Sprintf("防具: %s\n", cs.Equipment.Armor))
	content.WriteString(fmt.Sprintf("法宝: %s\n\n", cs.Equipment.Relic))

	if len(cs.Inventory) > 0 {
		content.WriteString("背包:\n")
		for _, item := range cs.Inventory {
			content.WriteString("• " + item + "\n")
		}
		content.WriteString("\n")
	}
	if len(cs.Techniques) > 0 {
		content.WriteString("功法:\n")
		for _, t := range cs.Techniques {
			content.WriteString("• " + t + "\n")
		}
		content.WriteString("\n")
	}
	if len(cs.StatusEffects) > 0 {
		content.WriteString("状态:\n")
		for _, e := range cs.StatusEffects {
			content.WriteString("• " + e + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString(separatorStyle.Render("────────────") + "\n")
	content.WriteString("存档 ID:\n" + m.session.ID.String()[:8] + "...\n\n")
	content.WriteString("Ctrl+C: 退出\n")
	content.WriteString("Enter: 发送\n")

	return content.String()
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "加载中..."
	}

	if m.showQuitModal {
		modal := modalStyle.Render("确定要退出吗？进度已自动保存。\n\nEnter/Ctrl+C: 退出    Esc: 返回")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		chatPanelStyle.Render(m.chatViewport.View()),
		metaPanelStyle.Render(m.metaViewport.View()))

	return panels + "\n" + m.textarea.View()
}
