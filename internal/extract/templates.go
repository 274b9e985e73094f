package extract

import "strings"

// typeTemplate pins the output shape for a detected document type so that
// identical documents produce near-identical extractions.
type typeTemplate struct {
	summary      string
	keyPoints    []string
	plainEnglish string
}

var typeTemplates = map[string]typeTemplate{
	"Insurance Card": {
		summary: "This is a [ORGANIZATION] [PLAN NAME] insurance card for [SUBSCRIBER NAME], effective [DATE]. It shows copay amounts for different types of medical services. This is an HMO-style plan requiring referrals with PCP [DOCTOR NAME].",
		keyPoints: []string{
			"Subscriber/Account holder name and ID: [VALUE]",
			"Policy/Group/Account numbers: [VALUE]",
			"Coverage/Effective dates: [VALUE]",
			"Key service costs or terms: [VALUE]",
			"Special requirements or restrictions: [VALUE]",
		},
		plainEnglish: "This is a managed care health plan where you pay set copay amounts for different medical services. You must choose a primary care doctor who coordinates your care and provides referrals to specialists. Emergency room visits cost $[AMOUNT], encouraging you to use urgent care ($[AMOUNT]) or your primary doctor ($[AMOUNT]) instead. Virtual visits are free to promote telehealth usage.",
	},
	"Utility Bill": {
		summary: "This is a [UTILITY TYPE] bill from [PROVIDER] for [CUSTOMER NAME], billing period [START DATE] to [END DATE]. The total amount due is $[AMOUNT] by [DUE DATE]. Usage for this period was [USAGE AMOUNT].",
		keyPoints: []string{
			"Account holder name and account number: [VALUE]",
			"Billing period and due date: [VALUE]",
			"Current charges and total amount due: [VALUE]",
			"Usage/consumption amount: [VALUE]",
			"Payment methods available: [VALUE]",
		},
		plainEnglish: "This is a utility bill showing charges for [SERVICE TYPE] service. Your current balance is $[AMOUNT], which includes charges of $[AMOUNT] for this billing period. Payment is due by [DATE], and you can pay online, by phone, by mail, or in person. Late payments may result in service disconnection or late fees.",
	},
	defaultTemplateKey: {
		summary: "[DOCUMENT TYPE] for [ENTITY/PERSON], [KEY IDENTIFIER]. [MAIN PURPOSE]. [KEY DETAIL].",
		keyPoints: []string{
			"Primary entity/person: [VALUE]",
			"Key identifiers: [VALUE]",
			"Important dates: [VALUE]",
			"Main terms or amounts: [VALUE]",
			"Special conditions: [VALUE]",
		},
		plainEnglish: "This document [DESCRIBES WHAT IT IS]. [EXPLAINS KEY TERMS]. [IMPORTANT IMPLICATIONS]. [WHAT USER SHOULD KNOW].",
	},
}

const defaultTemplateKey = "Default"

const detectionPrompt = `Analyze this document image and determine its type.

Common types include:
- Insurance Card (health insurance, medical card, HMO/PPO card)
- Utility Bill (electricity, water, gas, internet bill)
- Privacy Policy (terms of service, privacy agreement)
- Employment Contract (job offer, work agreement)
- Other (specify what it is)

Respond with ONLY the document type, nothing else. Be specific but concise.`

func extractionPrompt(documentType string) string {
	template, ok := typeTemplates[documentType]
	if !ok {
		template = typeTemplates[defaultTemplateKey]
	}

	var b strings.Builder
	b.WriteString("You are a document analyzer that produces CONSISTENT, STRUCTURED output for a ")
	b.WriteString(documentType)
	b.WriteString(`. Extract information following these EXACT rules:

IMPORTANT: Use the following template structure for this document type:

Summary Template: `)
	b.WriteString(template.summary)
	b.WriteString("\nKey Points Template: ")
	b.WriteString(strings.Join(template.keyPoints, "; "))
	b.WriteString("\nPlain English Template: ")
	b.WriteString(template.plainEnglish)
	b.WriteString(`

Respond ONLY with a valid JSON object in this exact format:

{
  "documentType": "`)
	b.WriteString(documentType)
	b.WriteString(`",
  "summary": "string (follow template exactly)",
  "keyPoints": ["array of 3-5 items following template format"],
  "criticalDates": [{"date": "YYYY-MM-DD or 'Ongoing'", "description": "string"}],
  "financialDetails": [{"label": "string", "value": "string", "note": "string (optional)"}],
  "importantClauses": [{"title": "string", "description": "string", "significance": "string"}],
  "redFlags": [{"issue": "string", "explanation": "string", "severity": "low|medium|high"}],
  "plainEnglish": "string (follow template exactly, 3-4 sentences)"
}`)
	return b.String()
}
