package pipeline

import (
	"fmt"
	"strings"

	"claimcheck/internal/model"
)

const classifySystem = `You classify short factual claims by topic. Answer with exactly one word.`

const sufficiencySystem = `You judge whether the provided evidence is enough to verify a claim. Answer yes or no only.`

const analyzeSystem = `You are a careful fact-checking analyst. Weigh the evidence, note conflicts, and end with a provisional verdict of true, false, or insufficient. When web results and archived documents conflict, prefer the web results as they are fresher.`

const verdictSystem = `You normalize a fact-check analysis into a final verdict. Answer with exactly one word: true, false, or insufficient.`

func classifyPrompt(claim model.Claim) string {
	return fmt.Sprintf("Classify this claim into one domain: politics, economics, or health.\n\nClaim: %s\n\nDomain:", claim.Text)
}

func sufficiencyPrompt(claim model.Claim, docs []model.RetrievedDocument) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Claim: %s\n\nEvidence:\n", claim.Text)
	for i, doc := range docs {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, doc.Text)
	}
	sb.WriteString("\nIs this evidence sufficient to verify the claim? Answer yes or no:")
	return sb.String()
}

// analyzePrompt lists web results before archived documents so the model
// reads the fresher evidence first.
func analyzePrompt(claim model.Claim, docs []model.RetrievedDocument, results []model.SearchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Claim: %s\n", claim.Text)

	if len(results) > 0 {
		sb.WriteString("\nWeb results (fresh):\n")
		for i, r := range results {
			fmt.Fprintf(&sb, "%d. %s — %s (%s)\n", i+1, r.Title, r.Snippet, r.URL)
		}
	}
	if len(docs) > 0 {
		sb.WriteString("\nArchived documents:\n")
		for i, doc := range docs {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, doc.Text)
		}
	}

	sb.WriteString("\nAnalyze whether the claim is supported, refuted, or undetermined by this evidence.")
	return sb.String()
}

func verdictPrompt(claim model.Claim, analysis *model.AnalysisResult) string {
	return fmt.Sprintf("Claim: %s\n\nAnalysis:\n%s\n\nFinal verdict (true, false, or insufficient):", claim.Text, analysis.Narrative)
}

// parseSufficiency interprets the quick-classify yes/no answer
func parseSufficiency(s string) bool {
	answer := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(answer, "yes") || strings.HasPrefix(answer, "true")
}
