// File path: internal/extractor/chunk.go
package extractor

import "strings"

// ChunkDocument splits text into overlapping chunks sized for an LLM
// context window. Sizes are token estimates; one token is roughly 0.75
// words.
func ChunkDocument(text string, maxTokens, overlapTokens int) []string {
	maxWords := maxTokens * 3 / 4
	overlapWords := overlapTokens * 3 / 4
	if maxWords <= 0 {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) <= maxWords {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(words) {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end >= len(words) {
			break
		}
		start = end - overlapWords
	}
	return chunks
}
