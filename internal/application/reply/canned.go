// Package reply selects the assistant's answer to a chat message.
package reply

import (
	"context"
	"strings"
)

// Greeting opens every conversation
const Greeting = "Hello! I'm FINTEL, your Financial Compliance Copilot. I can help you analyze invoices, review anomalies, and generate compliance reports. What would you like to know?"

// QuickQuestions are the suggested prompts shown under the input box
var QuickQuestions = []string{
	"Show me top 2 anomalies in duplicate invoices",
	"List invoices with invalid GST numbers",
	"What's the average extraction accuracy?",
	"Compare ABC Traders vs TechNova compliance",
}

const (
	AnomalySummary = "Based on recent analysis:\n\n1. **Duplicate Invoices**: 42 potential duplicates detected, primarily from ABC Traders and TechNova. Invoice INV-23109 shows 95% similarity with INV-23087.\n\n2. **Invalid GST Numbers**: 28 invoices with failed GST validation. TechNova Pvt Ltd has the highest count with 8 invalid GSTINs in the last 30 days."

	GSTSummary = "I found 28 invoices with invalid GST numbers:\n\n• TechNova Pvt Ltd: 8 invoices\n• Metro Logistics: 5 invoices\n• Office Supplies Co: 4 invoices\n• Others: 11 invoices\n\nThe most recent case is INV-23110 from TechNova (₹1,25,500) dated 15-Oct-2025. Would you like me to generate a detailed report?"

	AccuracySummary = "Current extraction accuracy metrics:\n\n• **Average Accuracy**: 87.2%\n• **Top Performer**: Global Supplies Inc (97%)\n• **Needs Improvement**: TechNova Pvt Ltd (89%)\n\nAccuracy has improved by 3.2% compared to last month. The AI model is continuously learning from corrections."

	Comparison = "Comparison of ABC Traders vs XYZ Ltd:\n\n**ABC Traders**:\n• GST Compliance: 92%\n• Anomaly Count: 8\n• Risk Score: 0.52\n\n**XYZ Ltd**:\n• GST Compliance: 96%\n• Anomaly Count: 3\n• Risk Score: 0.21\n\nXYZ Ltd shows better compliance metrics overall."

	CapabilityListing = "I understand your query. Here's what I found based on our database:\n\n" +
		"I can help you with:\n• Analyzing invoice anomalies\n• Reviewing vendor compliance\n• Checking extraction accuracy\n• Comparing vendor performance\n• Generating custom reports\n\nPlease ask me a specific question!"
)

// Topic is the keyword class a message was routed to
type Topic string

const (
	TopicAnomaly  Topic = "anomaly"
	TopicGST      Topic = "gst"
	TopicAccuracy Topic = "accuracy"
	TopicCompare  Topic = "compare"
	TopicGeneric  Topic = "generic"
)

type rule struct {
	topic    Topic
	keywords []string
	answer   string
}

// rules are checked in order; the first rule with any matching keyword wins
var rules = []rule{
	{TopicAnomaly, []string{"anomal"}, AnomalySummary},
	{TopicGST, []string{"gst", "invalid"}, GSTSummary},
	{TopicAccuracy, []string{"accuracy"}, AccuracySummary},
	{TopicCompare, []string{"compare"}, Comparison},
}

// Classify routes text to a topic by case-insensitive substring match
func Classify(text string) Topic {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.topic
			}
		}
	}
	return TopicGeneric
}

// Produce returns the canned answer for text. It is deterministic.
func Produce(text string) string {
	topic := Classify(text)
	for _, r := range rules {
		if r.topic == topic {
			return r.answer
		}
	}
	return CapabilityListing
}

// Responder produces the assistant's reply to a user message
type Responder interface {
	Reply(ctx context.Context, text string) (string, error)
	Name() string
}

// Canned answers from the fixed keyword table
type Canned struct{}

func (Canned) Reply(_ context.Context, text string) (string, error) {
	return Produce(text), nil
}

func (Canned) Name() string {
	return "canned"
}
