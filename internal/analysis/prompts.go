package analysis

// Prompt templates for the analysis pipeline. Placeholders are filled
// with fmt.Sprintf; every template ends with a strict output-format
// directive so responses can be parsed mechanically.

const analysisSystem = `You are a historian's research assistant analyzing primary sources. Be precise, cite only what the text supports, and follow the output format exactly.`

const analysisPrompt = `Analyze the following primary source%s.

DOCUMENT METADATA:
%s
DOCUMENT TEXT:
%s

Respond using exactly this format, with these three labeled fields and nothing else:

SUMMARY: A 2-3 sentence summary of the document.

ANALYSIS: A detailed interpretive analysis of the document (content, context, authorship, significance).

FOLLOWUP QUESTIONS:
1. First follow-up research question
2. Second follow-up research question
3. Third follow-up research question`

const draftAssistSystem = `You are a writing assistant for historical research. Suggest concrete revisions grounded in the provided sources; never invent citations.`

const draftAssistPrompt = `A researcher needs help with a draft.

INSTRUCTIONS FROM THE RESEARCHER:
%s

RELEVANT SOURCE MATERIAL:
%s

DRAFT:
%s

Respond using exactly this format:

SUGGESTION: Your revised or continued text.

RATIONALE: A short explanation of the changes.`

const summarizeTextPrompt = `Summarize the following text for a research note.

TEXT:
%s

Respond with a JSON object only, no markdown fences, in this shape:
{"title": "a short descriptive title", "summary": "a 2-4 sentence summary"}`

const summarizeDraftPrompt = `Split the following draft into its logical sections and summarize each.

DRAFT TITLE: %s

DRAFT:
%s

Respond with a JSON object only, in this shape:
{"sections": [{"title": "section title", "summary": "2-3 sentence summary", "fullText": "the verbatim text of the section"}]}
Keep sections in document order and do not omit any text.`

const suggestExtractionPrompt = `A researcher wants to extract a structured data table from this source.

DOCUMENT METADATA:
%s
DOCUMENT TEXT:
%s

Suggest the columns such a table should have. Respond with a JSON object only, in this shape:
{"title": "suggested table title", "fields": [{"name": "column name", "description": "what this column captures"}]}
Suggest between 3 and 8 fields.`
