package apiclient

import (
	"strings"

	"github.com/dtnitsch/smart-browse/models"
)

const (
	summaryTextLimit = 8000
	chatTextLimit    = 6000
)

const summarySystemPrompt = "You are a helpful assistant that summarizes web pages. Provide concise, informative summaries."

const summaryFormat = `
Provide a concise summary with key points. Format your response as JSON:
{
  "summary": "A 2-3 sentence summary",
  "keyPoints": ["point 1", "point 2", "point 3"],
  "sentiment": "positive|negative|neutral",
  "topics": ["topic1", "topic2"]
}`

func pageHeader(sb *strings.Builder, content *models.PageContent) {
	sb.WriteString("Title: " + content.Title + "\n")
	sb.WriteString("URL: " + content.URL + "\n")
	sb.WriteString("Page Type: " + string(content.PageType) + "\n\n")
}

func buildSummaryPrompt(content *models.PageContent) string {
	var sb strings.Builder
	sb.WriteString("Please summarize the following web page:\n\n")
	pageHeader(&sb, content)
	sb.WriteString("Content:\n" + content.Excerpt(summaryTextLimit) + "\n\n")
	if content.Product != nil {
		sb.WriteString("Product Info:\n")
		sb.WriteString(content.Product.ProductSummary())
	}
	sb.WriteString(summaryFormat)
	return sb.String()
}

func buildChatSystemPrompt(content *models.PageContent) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant that helps users understand and interact with web pages. ")
	sb.WriteString("You have access to the following page content:\n\n")
	pageHeader(&sb, content)
	sb.WriteString("Content:\n" + content.Excerpt(chatTextLimit) + "\n\n")
	if content.Product != nil {
		sb.WriteString("This is a product page:\n")
		sb.WriteString(content.Product.ProductSummary())
		sb.WriteString("\n")
	}
	sb.WriteString("Answer questions about this page helpfully and accurately. ")
	sb.WriteString("If asked about something not on the page, say so clearly.")
	return sb.String()
}
