package prompt

import "fmt"

// GetSystemPrompt directs the model to return the page transcript only.
func GetSystemPrompt() string {
	return `You are a content-extraction assistant for a copyright-protection service. Given the URL of a web page, produce a plain-text transcript of the page's primary textual content.

Requirements:
- Output the transcript text only: no markdown, no commentary, no code fences.
- Preserve the original wording and order; do not summarize or paraphrase.
- Skip navigation, ads, cookie banners and other boilerplate.
- If the page has no extractable textual content, output an empty string.`
}

// GetUserPrompt builds the user message around the suspect page URL and,
// when present, the creator's reference text to anchor extraction.
func GetUserPrompt(pageURL, referenceText string) string {
	if referenceText == "" {
		return fmt.Sprintf("Extract the transcript of the page at this URL. URL: %s", pageURL)
	}
	return fmt.Sprintf(
		"Extract the transcript of the page at this URL, focusing on passages resembling the reference text. URL: %s\n\nReference text:\n%s",
		pageURL, referenceText,
	)
}
