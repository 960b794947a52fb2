package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"cibil-store/internal/domain/entity"
)

const fence = "```"

// StripFence removes a leading ``` marker (with or without a language tag)
// and a trailing ``` marker. Unfenced text is returned trimmed.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, fence) {
		return s
	}
	s = strings.TrimPrefix(s, fence)
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		tag := strings.TrimSpace(s[:nl])
		if !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	} else if strings.HasPrefix(s, "json") {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

type wirePrediction struct {
	PredictedScore *float64      `json:"predicted_score"`
	Factors        *[]wireFactor `json:"factors"`
	Suggestions    *[]string     `json:"suggestions"`
}

type wireFactor struct {
	Name     *string  `json:"name"`
	Impact   *float64 `json:"impact"`
	Positive *bool    `json:"positive"`
}

// ParsePrediction strips fencing, decodes the model output and checks it
// against the prediction schema.
func ParsePrediction(text string) (*entity.Prediction, error) {
	var w wirePrediction
	if err := json.Unmarshal([]byte(StripFence(text)), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedResponse, err)
	}

	if w.PredictedScore == nil {
		return nil, malformed("predicted_score is missing")
	}
	score := *w.PredictedScore
	if score != math.Trunc(score) || score < entity.MinScore || score > entity.MaxScore {
		return nil, malformed("predicted_score %v is not an integer in [%d,%d]", score, entity.MinScore, entity.MaxScore)
	}

	if w.Factors == nil || len(*w.Factors) == 0 {
		return nil, malformed("factors are missing")
	}
	factors := make([]entity.Factor, 0, len(*w.Factors))
	for i, f := range *w.Factors {
		switch {
		case f.Name == nil || strings.TrimSpace(*f.Name) == "":
			return nil, malformed("factor %d has no name", i)
		case f.Impact == nil || *f.Impact != math.Trunc(*f.Impact) || *f.Impact < 0 || *f.Impact > 100:
			return nil, malformed("factor %q impact is not an integer in [0,100]", *f.Name)
		case f.Positive == nil:
			return nil, malformed("factor %q has no positive flag", *f.Name)
		}
		factors = append(factors, entity.Factor{Name: *f.Name, Impact: int(*f.Impact), Positive: *f.Positive})
	}

	if w.Suggestions == nil || len(*w.Suggestions) == 0 {
		return nil, malformed("suggestions are missing")
	}
	for i, s := range *w.Suggestions {
		if strings.TrimSpace(s) == "" {
			return nil, malformed("suggestion %d is empty", i)
		}
	}

	return &entity.Prediction{
		PredictedScore: int(score),
		Factors:        factors,
		Suggestions:    *w.Suggestions,
	}, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", entity.ErrMalformedResponse, fmt.Sprintf(format, args...))
}
