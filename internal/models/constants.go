package models

// Labels identifying which answer chain stage produced a response.
const (
	ModelGroq    = "Groq"
	ModelOllama  = "Ollama"
	ModelContext = "Context"

	ContextOnlyModelName = "RAG-only"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	AnswerSystemPrompt = `You are a code analysis expert. Answer questions about code concisely and clearly.`

	OllamaPromptTemplate = `Analyze this code and answer the question concisely.

Code:
%s

Question: %s

Answer:`

	NoContextAnswer = `I found no relevant code for your question. Try rephrasing or ask about a different part of the codebase.`

	ContextOnlyAnswerTemplate = "Both Groq and Ollama are unavailable, but here are the most relevant code sections I found:\n\n```\n%s\n```\n\nPlease configure Groq (set GROQ_API_KEY) or start Ollama (ollama serve) for AI-powered analysis."

	WorkflowPromptTemplate = `You are a software architecture expert. Analyze this real codebase and produce an ACCURATE workflow flowchart that reflects how this specific project actually works.

Repository: %s
Total files: %d | Total chunks: %d

Files in this repo:
%s

Real code/content samples from key files:
%s

Based on the ACTUAL files and code above, return ONLY a valid JSON object (no markdown, no explanation, no ` + "```" + `):
{
  "nodes": [
    {"id": "n1", "label": "Short Label", "description": "One sentence what this does.", "type": "entry"},
    ...
  ],
  "edges": [
    {"from": "n1", "to": "n2"},
    ...
  ]
}

Rules:
- 6 to 9 nodes total, ordered logically from start to finish
- Node types (pick exactly from): entry, process, decision, database, api, output
- First node MUST be type "entry", last node MUST be type "output"
- All edges must form one connected flow (no orphan nodes)
- Labels: max 4 words. Descriptions: max 14 words.
- MUST reflect the actual project — not a generic template. Use real module/feature names from the files.
- If it is a document/PDF/Office project, describe document processing flow.
- If it is a web app, describe frontend → backend → DB → response flow.
- If it is a data science project, describe data → model → output flow.
`
)
