package report

import (
	"context"
	"fmt"
	"log"
	"strings"

	"reportrag/internal/llm"
	"reportrag/internal/summary"
)

// DefaultSectionLimit bounds each proposal section when no explicit limit
// is configured.
const DefaultSectionLimit = 3000

// Context carries everything the section prompts draw on: the company
// profile, the financial summary from the metrics collaborator, and the
// RAG summaries of the securities report.
type Context struct {
	CompanyCode string
	Profile     string
	Financial   string
	Summaries   []summary.QuerySummary
}

// build renders the shared context block used by every section prompt.
func (c Context) build() string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("【企業コード】\n%s\n\n", c.CompanyCode))
	if c.Profile != "" {
		buf.WriteString(fmt.Sprintf("【企業基本情報】\n%s\n\n", c.Profile))
	}
	if c.Financial != "" {
		buf.WriteString(fmt.Sprintf("【財務分析サマリー】\n%s\n\n", c.Financial))
	}

	buf.WriteString("【有価証券報告書の要約】\n")
	for _, s := range c.Summaries {
		if s.Err != nil || s.Summary == summary.NoInformationFound {
			continue
		}
		buf.WriteString(fmt.Sprintf("◆ %s\n%s\n\n", s.Query, s.Summary))
	}

	return buf.String()
}

// Section is one generated proposal section.
type Section struct {
	Key  string
	Name string
	Text string
	Err  error
}

// sectionDef describes how to prompt for one section. Later sections may
// reference the text of earlier ones.
type sectionDef struct {
	key    string
	name   string
	prompt func(contextBlock string, prior map[string]string) string
}

// sections in generation order. The ordering is load-bearing: strategy
// builds on issues, effects and roadmap build on strategy.
var sections = []sectionDef{
	{
		key:  "overview",
		name: "企業概要・分析",
		prompt: func(contextBlock string, _ map[string]string) string {
			return consultantPrompt("企業概要・分析", contextBlock, `【作成するセクション】
1. 企業概要・分析
   1.1 企業概要（事業内容、沿革、強み）
   1.2 外部環境分析（業界動向、地域特性）
   1.3 財務情報分析（過去3年の推移と傾向）

【要件】
- 具体的な数値やデータを引用すること
- 地域特性と業種特性を踏まえた分析を含めること
- 官公庁/民間、元請/下請の販路構成にも言及すること`)
		},
	},
	{
		key:  "issues",
		name: "課題の抽出",
		prompt: func(contextBlock string, _ map[string]string) string {
			return consultantPrompt("課題の抽出", contextBlock, `【作成するセクション】
2. 課題の抽出
   2.1 財務面の課題（収益性、安定性、キャッシュフロー等）
   2.2 事業面の課題（市場環境、競争力、技術等）
   2.3 人材・組織面の課題（人手不足、働き方改革等）

【要件】
- 財務データとRAG情報から具体的な課題を特定すること
- 業界共通の課題（GX/DX、人材不足）と照らし合わせること
- 各課題の優先度・重要度も示すこと`)
		},
	},
	{
		key:  "strategy",
		name: "成長戦略・提案",
		prompt: func(contextBlock string, prior map[string]string) string {
			extra := fmt.Sprintf("\n【抽出された課題】\n%s\n", prior["issues"])
			return consultantPrompt("成長戦略・提案", contextBlock+extra, `【作成するセクション】
3. 成長戦略・提案
   3.1 短期施策（1年以内）：即効性のある改善策
   3.2 中期施策（1-3年）：競争力強化策
   3.3 長期施策（3-5年）：持続的成長に向けた投資

【要件】
- 抽出した課題に対応する具体的な施策を提案すること
- GX・DXへの対応策と人材確保・育成策を含めること
- 実現可能性の高い具体的な施策とすること`)
		},
	},
	{
		key:  "effects",
		name: "効果試算",
		prompt: func(contextBlock string, prior map[string]string) string {
			extra := fmt.Sprintf("\n【提案した成長戦略】\n%s\n", prior["strategy"])
			return consultantPrompt("効果試算", contextBlock+extra, `【作成するセクション】
4. 効果試算
   4.1 売上・利益への影響（定量効果）
   4.2 定性的効果（ブランド、人材、技術力等）

【要件】
- 提案した施策の効果を具体的な数値で試算すること
- 現在の財務データを基準に、改善率や成長率で示すこと
- 投資対効果（ROI）の観点も含めること`)
		},
	},
	{
		key:  "roadmap",
		name: "ロードマップ",
		prompt: func(contextBlock string, prior map[string]string) string {
			extra := fmt.Sprintf("\n【提案した成長戦略】\n%s\n", prior["strategy"])
			return consultantPrompt("ロードマップ", contextBlock+extra, `【作成するセクション】
5. ロードマップ
   5.1 実行計画（フェーズ別の取り組み内容）
   5.2 マイルストーン（重要な節目と達成目標）

【要件】
- 5年間の実行計画を示すこと
- 年度ごとの主要施策とKPIを明確にすること
- 推進体制や必要なリソースにも言及すること`)
		},
	},
}

func consultantPrompt(sectionName, contextBlock, body string) string {
	return fmt.Sprintf(`あなたは建設業界に詳しい経営コンサルタントです。
以下の情報に基づいて、提案書の「%s」セクションを作成してください。

%s

%s
- マークダウン形式は使わず、見出しは「■」「●」「・」で階層化すること
`, sectionName, contextBlock, body)
}

// Generator produces the five proposal sections, each passed through the
// budget enforcer so its length never exceeds the configured limit.
type Generator struct {
	completer llm.Completer
	enforcer  *summary.Enforcer
	log       *summary.Log
	limits    map[string]int
}

// NewGenerator creates a generator. limits maps section keys to character
// limits; missing keys fall back to DefaultSectionLimit.
func NewGenerator(completer llm.Completer, promptLog *summary.Log, limits map[string]int) *Generator {
	if promptLog == nil {
		promptLog = summary.NewLog()
	}
	return &Generator{
		completer: completer,
		enforcer:  summary.NewEnforcer(completer, promptLog),
		log:       promptLog,
		limits:    limits,
	}
}

func (g *Generator) limit(key string) int {
	if l, ok := g.limits[key]; ok && l > 0 {
		return l
	}
	return DefaultSectionLimit
}

// GenerateAll produces every section in order. A failed section is
// recorded and the remaining sections still run; prior-section references
// simply see an empty string.
func (g *Generator) GenerateAll(ctx context.Context, rctx Context) []Section {
	contextBlock := rctx.build()
	prior := make(map[string]string)

	results := make([]Section, 0, len(sections))
	for i, def := range sections {
		log.Printf("[%d/%d] セクション: %sを生成中...", i+1, len(sections), def.name)

		text, err := g.generate(ctx, rctx.CompanyCode, def, contextBlock, prior)
		if err != nil {
			log.Printf("❌ %s: %v", def.name, err)
			results = append(results, Section{Key: def.key, Name: def.name, Err: err})
			continue
		}

		prior[def.key] = text
		results = append(results, Section{Key: def.key, Name: def.name, Text: text})
	}
	return results
}

func (g *Generator) generate(ctx context.Context, companyCode string, def sectionDef, contextBlock string, prior map[string]string) (string, error) {
	limit := g.limit(def.key)
	prompt := def.prompt(contextBlock, prior)
	prompt += fmt.Sprintf("- 【厳守】必ず%d字以内で作成すること。超過は許容されません。\n", limit)

	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("section generation failed for %s: %w", def.name, err)
	}

	g.log.Append(summary.PromptLog{
		CompanyCode: companyCode,
		Label:       def.name,
		Prompt:      prompt,
		Response:    text,
	})

	log.Printf("  文字数: %d字 (上限: %d字)", len([]rune(text)), limit)
	return g.enforcer.Enforce(ctx, companyCode, text, limit, def.name)
}
