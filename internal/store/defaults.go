package store

import "github.com/zrl37/crystallize/internal/models"

// BuiltInRoles returns the personas every fresh store starts with.
func BuiltInRoles() []models.Role {
	return []models.Role{
		{
			ID:                "base-model",
			Name:              "基础模型",
			Description:       "无任何预设指令，体验原汁原味的 AI 回复。",
			Avatar:            "https://picsum.photos/seed/base/200/200",
			SystemInstruction: "",
			BuiltIn:           true,
		},
		{
			ID:                "official-writer",
			Name:              "公众号撰稿人",
			Description:       "擅长编写吸引人的推文，注重排版、金句与叙事节奏。",
			Avatar:            "https://images.unsplash.com/photo-1455390582262-044cdead277a?q=80&w=200&h=200&auto=format&fit=crop",
			SystemInstruction: "你是专业的公众号撰稿人。你擅长创作具有高度传播力的文章。你的特点是：1. 标题抓人眼球且不标题党；2. 开篇能迅速引起共鸣；3. 段落清晰，金句频出；4. 擅长引导读者关注和互动。请根据用户提供的主题或素材，撰写一篇排版优美、语言得体、逻辑清晰的公众号推文。请务必使用中文回答。",
			BuiltIn:           true,
		},
		{
			ID:                "creative-mate",
			Name:              "创意伙伴",
			Description:       "积极、热情，擅长头脑风暴。",
			Avatar:            "https://picsum.photos/seed/creative/200/200",
			SystemInstruction: "你是创意伙伴。你充满热情、积极向上，擅长扩展想法。始终鼓励用户，提供发散性思维，并以“是的，而且...”的思维模式在想法基础上进行构建。使用项目符号列出创意。请务必使用中文。",
			BuiltIn:           true,
		},
		{
			ID:                "critic",
			Name:              "批判者",
			Description:       "严谨、逻辑缜密，负责发现漏洞与风险。",
			Avatar:            "https://picsum.photos/seed/critic/200/200",
			SystemInstruction: "你是批判者。你严谨、怀疑且注重细节。你的工作是发现逻辑漏洞、潜在风险和事实错误。用编号列表结构化你的批判内容。请务必使用中文回答。",
			BuiltIn:           true,
		},
	}
}

// DefaultCommands returns the pinned notebook commands.
func DefaultCommands() []models.QuickPhrase {
	return []models.QuickPhrase{
		{
			ID:       "1",
			Label:    "统合笔记",
			Text:     "这段内容包含多处来自不同语境的剪藏，请将其统合成一篇逻辑严密的笔记，并为每个逻辑部分添加适合的小标题，确保整体表达连贯、结构清晰。",
			IsPinned: true,
		},
		{
			ID:       "2",
			Label:    "去 AI 味",
			Text:     "请改写这段内容。要求：不要过多使用比喻，不要用破折号，严禁滥用连接词如“首先、其次、再次、最后、此外、而且、并且、进一步、更进一步、更重要的是、值得注意的是、从某种程度上说、从某种意义上说”。严禁使用总结连接词如“因此、所以、因而、于是、由此可见、综上所述、总而言之、总的来说、简而言之、归根结底、总之、综上所述”。严禁使用转折或解释连接词如“然而、但是、可是、不过、尽管如此、虽然、尽管、相反地、相比之下、与此相反、另一方面、例如、比如、譬如、举例来说、具体来说、也就是说、换句话说、换言之、即、也就是说”。请保持表达直白、极简，像真人手书。",
			IsPinned: true,
		},
		{
			ID:       "3",
			Label:    "整理思绪",
			Text:     "这是我零散的发问、思考或困惑。请将其梳理得逻辑通顺、表达得体，确保清晰地记录下我此刻的思维出发点和核心关切，以便未来回顾时能迅速找回状态。",
			IsPinned: true,
		},
	}
}

// DefaultQuickPhrases returns the chat composer's starter phrases.
func DefaultQuickPhrases() []models.QuickPhrase {
	return []models.QuickPhrase{
		{ID: "1", Text: "请帮我总结一下这段话。", IsPinned: true},
		{ID: "2", Text: "你能从批判的角度看看我的观点吗？", IsPinned: true},
		{ID: "3", Text: "把这些内容整理成适合公众号发布的格式。", IsPinned: false},
		{ID: "4", Text: "请检查这段代码是否有安全隐患。", IsPinned: true},
	}
}
