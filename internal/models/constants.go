package models

const (
	PageMarkerRegex  = `(?i)Página\s+\d+|Page\s+\d+`
	SpecialCharRegex = `[^\p{L}\p{N}_\s.,!?-]`
	ThinkTag         = `(?s)<think>.*?</think>`
	ContextSeparator = "\n---\n"

	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ContextPromptTemplate = `<document>
%s
</document>
Here is the chunk we want to situate within the whole document
<chunk>
%s
</chunk>
Please give a short succinct context to situate this chunk within the overall document for the purposes of improving search retrieval of the chunk. Answer only with the succinct context and nothing else.
`

	// ClassificationPromptTemplate takes the user question.
	ClassificationPromptTemplate = `You are an advanced technical AI assistant specialized in industrial machinery, maintenance practices, and operational standards. Your primary task is to determine whether a question requires consulting technical documentation, manuals, or detailed records (referred to as RAG). Respond with "y" (yes) or "n" (no), strictly following the guidelines below.

### Guidelines:

#### Respond "y" if:
1. The question requires any form of technical, detailed, or specific information, including but not limited to:
   - Definitions of machinery components or their functions (e.g., "What are the parts of a lathe?").
   - Maintenance practices or guidelines (e.g., "How to perform preventive maintenance on a milling machine?").
   - Lubricants, fluids, or material specifications (e.g., "What oil should be used for a refrigerator?").
   - Operational, assembly, or disassembly instructions.
   - Any information about a specific machine model, brand, or type.
   - Descriptions or classifications of machines or their functions.

#### Respond "n" if:
1. The question involves superficial or conversational inputs (e.g., "Hello," "Who are you?").
2. It reflects a continuation or exploration of a symptom or issue without requiring documentation (e.g., "It is making noise," "The machine stopped working.").
3. It is explicitly not technical or specific enough to require reference materials.

### Examples:
- "What are the parts of a lathe?" → y
- "How to perform preventive maintenance on a milling machine?" → y
- "What oil should be used for a refrigerator?" → y
- "Hello, who are you?" → n
- "It is making noise." → n
- "What are the main types of lubrication?" → y
- "The machine stopped working." → n

### Rules for Output:
1. Respond **only** with "y" or "n".
2. Do not include any additional text, punctuation, or spaces.

Question: %s
Answer:`

	// RAGPromptTemplate takes chat history, retrieved context, the question
	// and the answer language.
	RAGPromptTemplate = `You are Instrit, an assistant specialized in industrial machinery. Use the documents below to answer the question. If the question is not related to the content of the documents, provide a generic response.

### Chat History
%s

### Context
%s

### Current Question
%s

### Response Instructions
1. Provide a **clear, concise, and technically sound answer** in %s.
2. Use natural, conversational language. Aim for the tone of a knowledgeable technician helping a colleague.
3. Keep the response brief, but include enough detail to be practically useful.
4. If the information is not in the provided documents, politely suggest checking a manual or consulting a specialist.
5. Maintain a professional, approachable, and safety-focused tone.`

	// ChatPromptTemplate takes chat history, the question and the answer
	// language.
	ChatPromptTemplate = `You are Instrit, an assistant specialized in industrial machinery. Answer the question directly, based on your general knowledge.

### Chat History
%s

### Current Question
%s

### Response Instructions
1. Answer **clearly, concisely, objectively, and briefly** in %s. Avoid over-explaining unless explicitly requested.
2. Use simple, conversational language, focusing on practical and actionable information.
3. Maintain consistency with previous responses to avoid conflicting information.
4. Be polite, maintain a professional tone, and prioritize safety.`

	StructurePrompt = `You are a professional assistant designed to structure textual input into a well-organized JSON format. Transform the given document page into separate JSON objects for each section. Each JSON object must represent a title and its corresponding paragraph as a single document.

### Output JSON Format:
The output must be in English and be a JSON array of objects with this exact structure:
{
    "metadata": {
        "id": "",
        "source": {"file_name": "", "page_number": ""},
        "title": "Title of the section",
        "tags": ["tag1", "tag2", "tag3"],
        "created_at": ""
    },
    "content": {
        "text": "Full text of the paragraph goes here.",
        "summary": "Short summary of the paragraph in one or two sentences."
    },
    "context": {
        "preceding_text": "Text preceding this section in the input, if any.",
        "following_text": "Text following this section in the input, if any."
    }
}

### Requirements:
1. Leave the fields id, file_name, page_number, and created_at blank.
2. Generate 3-5 meaningful tags based on the content.
3. Include preceding_text and following_text to preserve document flow.
4. Use the section titles as the title field with proper capitalization.
5. Output only the JSON array, nothing else.`

	SummaryPromptTemplate = `Summarize the following paragraph in one or two sentences. Answer only with the summary.

%s`

	TranslatePromptTemplate = `Translate the following text to %s. Answer only with the translation.

%s`
)
