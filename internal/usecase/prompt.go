package usecase

import (
	"fmt"

	"cibil-store/internal/domain/entity"
	"cibil-store/internal/domain/repository"
)

// PredictionParams are the fixed sampling settings for score prediction.
var PredictionParams = repository.GenerationParams{
	Temperature:     0.4,
	TopK:            32,
	TopP:            1,
	MaxOutputTokens: 2048,
}

const predictionTemplate = `You are a CIBIL score prediction expert. Based on the following financial information, predict a realistic CIBIL score and provide detailed analysis.

User Financial Data:
- Monthly Income: ₹%s
- Existing Loans: %s
- Payment History: %s
- Credit Utilization: %s%%
- Recent Credit Inquiries: %s

Provide your response STRICTLY in this JSON format (no markdown, no code blocks):
{
  "predicted_score": <number between 300-900>,
  "factors": [
    {"name": "Payment History", "impact": <number 0-100>, "positive": <true/false>},
    {"name": "Credit Utilization", "impact": <number 0-100>, "positive": <true/false>},
    {"name": "Credit Age", "impact": <number 0-100>, "positive": <true/false>},
    {"name": "Recent Inquiries", "impact": <number 0-100>, "positive": <true/false>}
  ],
  "suggestions": [
    "<actionable suggestion 1>",
    "<actionable suggestion 2>",
    "<actionable suggestion 3>",
    "<actionable suggestion 4>"
  ]
}`

// BuildPredictionPrompt embeds the inputs verbatim.
// TODO: inputs are not escaped, so a crafted field can steer the model; constrain paymentHistory to its enum once the client sends only enum values.
func BuildPredictionPrompt(req entity.PredictionRequest) string {
	return fmt.Sprintf(predictionTemplate,
		req.Income.String(),
		req.ExistingLoans.String(),
		req.PaymentHistory.String(),
		req.CreditUtilization.String(),
		req.RecentInquiries.String(),
	)
}
