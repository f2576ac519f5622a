package ollama

// buildFactExtractionPrompt wraps a context-prefixed conversation
// transcript in the extraction instruction. The transcript already
// carries the pre-identified signal block, so the model is asked to
// confirm and complete rather than discover from scratch.
func buildFactExtractionPrompt(transcript string) string {
	const maxSnippet = 8000
	snippet := transcript
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return `You extract durable user facts from a conversation transcript.
The transcript may open with a "Pre-identified signals:" block listing
entities, relationships and preference patterns found by grammatical
analysis. Treat those as high-precision hints: keep them unless the
conversation contradicts them, and add facts they missed.

Return a strict JSON object with a single key "facts": an array of
objects with keys subject (string, "user" unless the fact is about
someone else), relation (one of: likes, dislikes, loves, hates, enjoys,
prefers, wants, avoids, knows, fears), object (string), negated
(boolean), confidence (number from 0 to 1).
Only include facts stated or strongly implied by the transcript.
No markdown, no extra keys.

Transcript:
` + snippet
}
