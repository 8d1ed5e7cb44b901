package chat

// Agent enumerates the backend agents a message can be dispatched to.
// The set is closed: routing works off this enumeration and its dispatch
// table, never off raw strings from the wire.
type Agent string

const (
	AgentNone       Agent = ""
	AgentTBM        Agent = "tbm"
	AgentEnergyNews Agent = "energynews"
	AgentDesignRisk Agent = "designrisk"
)

// CallKind selects which upstream capability an agent uses.
type CallKind int

const (
	// CallChat posts to the chat completion endpoint. Supports multi-turn
	// conversations and file attachments.
	CallChat CallKind = iota

	// CallWorkflow posts to the workflow run endpoint. The complete result
	// is revealed to the client in paced chunks.
	CallWorkflow
)

// AgentSpec describes one agent's identity and calling convention.
type AgentSpec struct {
	Agent    Agent
	BotName  string
	Avatar   string
	Command  string // slash token, e.g. "/tbm"
	Usage    string // example shown in the empty-query validation error
	Call     CallKind
	Stream   bool // reveal the result incrementally
	Files    bool // accepts image attachments
	Greeting string
}

var agentSpecs = map[Agent]AgentSpec{
	AgentTBM: {
		Agent:    AgentTBM,
		BotName:  "안젠봇",
		Avatar:   "/assets/bot_anjen.png",
		Command:  "/tbm",
		Usage:    "/tbm 밀폐공간에서 작업을 위한 수칙",
		Call:     CallChat,
		Files:    true,
		Greeting: "안녕하세요! TBM(Tool Box Meeting) 문서 생성을 도와드리는 안젠봇입니다. /tbm 뒤에 작업 내용을 입력해주세요.",
	},
	AgentEnergyNews: {
		Agent:    AgentEnergyNews,
		BotName:  "에너지뉴스봇",
		Avatar:   "/assets/bot_energy.png",
		Command:  "/energynews",
		Usage:    "/energynews 오늘의 에너지 산업 동향",
		Call:     CallWorkflow,
		Stream:   true,
		Greeting: "안녕하세요! 에너지 산업 뉴스를 요약해드리는 에너지뉴스봇입니다.",
	},
	AgentDesignRisk: {
		Agent:    AgentDesignRisk,
		BotName:  "설계리스크봇",
		Avatar:   "/assets/bot_design.png",
		Command:  "/designrisk",
		Usage:    "/designrisk 고압 배관 설계 시 주의사항",
		Call:     CallChat,
		Greeting: "안녕하세요! 설계 리스크 검토를 도와드리는 설계리스크봇입니다.",
	},
}

// commandTable maps slash tokens to agents.
var commandTable = func() map[string]Agent {
	table := make(map[string]Agent, len(agentSpecs))
	for agent, spec := range agentSpecs {
		table[spec.Command] = agent
	}
	return table
}()

// Spec returns the dispatch table entry for an agent.
func Spec(agent Agent) (AgentSpec, bool) {
	spec, ok := agentSpecs[agent]
	return spec, ok
}

// AgentForCommand resolves a slash token ("/tbm") to its agent.
func AgentForCommand(token string) (Agent, bool) {
	agent, ok := commandTable[token]
	return agent, ok
}

// Agents returns all registered agents.
func Agents() []AgentSpec {
	specs := make([]AgentSpec, 0, len(agentSpecs))
	for _, spec := range agentSpecs {
		specs = append(specs, spec)
	}
	return specs
}
