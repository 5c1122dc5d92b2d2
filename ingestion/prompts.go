package ingestion

import "fmt"

const metadataResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "title": {
      "type": "string"
    },
    "summary": {
      "type": "string"
    },
    "tags": {
      "type": "array",
      "items": {
        "type": "string"
      }
    }
  },
  "required": ["title", "summary", "tags"],
  "additionalProperties": false
}`

const refinePromptTemplate = `Rewrite the following text fragment so that it is clear and self-contained
while preserving every fact it states. Fix broken sentences at the fragment
boundaries, expand dangling pronouns where the referent is obvious from the
fragment itself, and keep the original tone. Do not add information that is
not present in the fragment. Do not summarize. Output ONLY the rewritten
text, with no preamble or commentary.

Text fragment:
%s`

const extractPromptTemplate = `Extract metadata from the given text and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The title is a short descriptive heading for the text, at most ten words.
- The summary is one or two sentences capturing what the text is about.
- Tags are lowercase keywords, at most five, drawn from the text itself.
- If no tags can be identified, return "tags": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Text:
%s`

func buildRefinePrompt(text string) string {
	return fmt.Sprintf(refinePromptTemplate, text)
}

func buildExtractPrompt(text string) string {
	return fmt.Sprintf(extractPromptTemplate, metadataResponseSchema, text)
}
