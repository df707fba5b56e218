package inspector

import (
	"fmt"
	"strings"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/features"
)

func featureReportPrompt(symbol, address string, record *features.Record, isScam bool, probability float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Token *%s* (%s) has the following on-chain and market features:\n", symbol, address)
	for _, f := range record.Fields() {
		fmt.Fprintf(&b, "• `%s` = %s\n", f.Name, f.Value)
	}
	verdict := "NOT A SCAM"
	if isScam {
		verdict = "SCAM"
	}
	fmt.Fprintf(&b, "\nBoosting-classifier verdict: *%s*, probability = *%.1f%%*.\n\n", verdict, probability)
	b.WriteString(
		"Based on this data, produce a structured report with the sections:\n" +
			"• **Key facts**\n" +
			"• **Risks and red flags**\n" +
			"• **Final verdict and recommendations**\n\n" +
			"Use emoji and Markdown formatting.")
	return b.String()
}

func backgroundPrompt(symbol string) string {
	return fmt.Sprintf(
		"Analyze the token %s and cover:\n"+
			"1. The project, its purpose and usage\n"+
			"2. History of the project and the team\n"+
			"3. Technical properties and security\n"+
			"4. Potential scam risks and red flags\n"+
			"5. Market performance and liquidity",
		symbol)
}

func nativeTokenPrompt(symbol, chainID string) string {
	return fmt.Sprintf(
		"The token %s is the native asset of the %s blockchain. Native tokens "+
			"carry minimal scam risk: they are the foundation of their chain, have "+
			"a proven history, high liquidity and broad exchange support.\n\n"+
			"Write a short report for the user confirming the low risk, with a "+
			"clear verdict and recommendations. Use emoji and Markdown formatting.",
		symbol, chainID)
}
