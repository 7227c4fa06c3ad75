package ranking

import "strings"

// Template names accepted by BuildPrompt.
const (
	TemplateDefault    = "default"
	TemplateSimple     = "simple"
	TemplateStructured = "structured"
)

const defaultTemplate = `You are an experienced HR assessment consultant. Recommend the assessments from the catalogue below that best fit the hiring requirement.

Hiring Requirement:
{query}

Available Assessments:
{context}

Instructions:
1. Read the hiring requirement carefully
2. Pick the most relevant assessments from the list above
3. Give 3-5 recommendations, most relevant first
4. Explain why each one suits this particular hiring need
5. Take target roles, skills assessed and assessment type into account

Use exactly this format:

**Recommendation 1: [Assessment Name]**
- Relevance Score: [Score out of 10]
- Reasoning: [Why this assessment fits, referring to the hiring requirement]

**Recommendation 2: [Assessment Name]**
- Relevance Score: [Score out of 10]
- Reasoning: [Why this assessment fits]

[Continue for the remaining recommendations]

**Summary:**
[Short summary of the overall assessment strategy]

Keep the recommendations specific and actionable.`

const simpleTemplate = `As an HR assessment expert, recommend assessments for this hiring need.

Hiring Need: {query}

Available Assessments:
{context}

Give 3-5 recommendations. Format each one as:
- Assessment: [name]
- Score: [0-10]
- Reason: [why it fits]
`

const structuredTemplate = `You are a talent assessment specialist. Analyse the hiring requirement and recommend suitable assessments.

**Hiring Requirement:**
{query}

**Available Assessments:**
{context}

**Task:**
Recommend the 3-5 most suitable assessments. For each one provide:

1. **Assessment Name**: the exact name from the list above
2. **Relevance Score**: 0-10, how well the assessment matches the requirement
3. **Key Match Factors**: which aspects of the assessment align with the hiring need
4. **Expected Insights**: what the assessment will reveal about candidates
5. **Recommendation Priority**: High/Medium/Low

Refer to details from both the hiring requirement and the assessment descriptions.`

var templates = map[string]string{
	TemplateDefault:    defaultTemplate,
	TemplateSimple:     simpleTemplate,
	TemplateStructured: structuredTemplate,
}

// Templates lists the accepted template names.
func Templates() []string {
	return []string{TemplateDefault, TemplateSimple, TemplateStructured}
}

// BuildPrompt fills the named template with the query and the evidence
// block. Unknown names use the default template.
func BuildPrompt(query, context, template string) string {
	tmpl, ok := templates[template]
	if !ok {
		tmpl = defaultTemplate
	}
	return strings.NewReplacer("{query}", query, "{context}", context).Replace(tmpl)
}
