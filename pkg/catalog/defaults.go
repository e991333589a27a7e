package catalog

// Tool keys understood by the pipeline. The set is closed: a tenant can
// disable tools but cannot register new ones.
const (
	ToolSearch      = "search"
	ToolItemDetails = "item_details"
	ToolCompare     = "compare"
	ToolEnsemble    = "ensemble"
	ToolStatistics  = "statistics"
)

// Prompt template keys.
const (
	PromptRelevance       = "relevance"
	PromptDecontextualize = "decontextualize"
	PromptMemory          = "memory"
	PromptRequiredInfo    = "required_info"
	PromptToolSelection   = "tool_selection"
	PromptQueryRewrite    = "query_rewrite"
	PromptRanking         = "ranking"
	PromptStatistics      = "statistics"
)

type ToolDefault struct {
	Key         string
	Description string
}

// DefaultTools is the compiled-in tool set used when a tenant has no
// catalog rows. Order matters: it is the presentation order for the
// selection prompt.
var DefaultTools = []ToolDefault{
	{Key: ToolSearch, Description: "Find items matching a topic, keyword, or natural language description."},
	{Key: ToolItemDetails, Description: "Retrieve details about one specific, named item."},
	{Key: ToolCompare, Description: "Compare two specific, named items side by side."},
	{Key: ToolEnsemble, Description: "Assemble a set of complementary items that go together."},
	{Key: ToolStatistics, Description: "Answer aggregate or statistical questions about the collection."},
}

// DefaultPrompts are the compiled-in prompt templates. Placeholders use
// {{.Name}} and are filled with text/template.
var DefaultPrompts = map[string]string{
	PromptRelevance: `The site contains: {{.SiteDescription}}.
The user asked: "{{.Query}}".
Decide whether this question can be answered using content from this site.`,

	PromptDecontextualize: `Previous conversation turns:
{{.History}}
The latest user question is: "{{.Query}}".
Rewrite the question so it is fully self-contained, resolving pronouns and references to earlier turns. If it is already self-contained, return it unchanged.`,

	PromptMemory: `The user said: "{{.Query}}".
Determine whether the user is asking to remember a lasting preference or constraint for future questions.`,

	PromptRequiredInfo: `The user asked: "{{.Query}}".
Determine whether the question is missing information that is required before it can be answered, such as a location or a date.`,

	PromptToolSelection: `The user asked: "{{.Query}}".
Available tools:
{{.Tools}}
Pick the single tool best suited to answer the question and state your confidence from 0.0 to 1.0.`,

	PromptQueryRewrite: `The user asked: "{{.Query}}".
Produce up to 5 short keyword search queries that together cover the question. Include the original phrasing as one of them.`,

	PromptRanking: `The user asked: "{{.Query}}".
Here is a candidate result:
Name: {{.Name}}
Content: {{.Content}}
Score from 0 to 100 how well this candidate answers the question, and write a one sentence description of the candidate tailored to the question.`,

	PromptStatistics: `The user asked an aggregate question: "{{.Query}}".
These are the matching items from the collection:
{{.Items}}
Answer the question using only these items. State counts, totals, or ranges explicitly, and say so when the items cannot support an answer.`,
}
