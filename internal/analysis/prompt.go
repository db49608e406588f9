package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/career-quiz/internal/ai"
	"github.com/spigell/career-quiz/internal/quiz"
	"github.com/spigell/career-quiz/internal/utils"
)

// DefaultProfessions is the profession vocabulary used when none is configured.
var DefaultProfessions = []string{
	"software_engineer",
	"data_scientist",
	"product_manager",
	"ux_designer",
	"graphic_designer",
	"artist",
	"writer",
	"teacher",
	"nurse",
	"doctor",
	"veterinarian",
	"psychologist",
	"accountant",
	"financial_analyst",
	"marketing_specialist",
	"sales_manager",
	"entrepreneur",
	"lawyer",
	"civil_engineer",
	"mechanical_engineer",
	"electrician",
	"chef",
	"journalist",
	"researcher",
}

const promptPreamble = `You are a career advisor. A user answered a career quiz.
Each answer below shows the question, the selected option with its numeric value and,
when present, the career impact scores of the question per profession identifier.
Weigh both the option values and the career impact scores.

Task:
1. Recommend a career path for the user in at most 50 words.
2. List the profession identifiers relevant to the user, most relevant first.
   Use only identifiers from this vocabulary: %s.
`

const promptSchemaDescription = `Respond with a single JSON object with exactly these properties, in this order:
- "%s": string, the recommendation.
- "%s": array of strings, the profession identifiers.
`

// BuildPrompt renders resolved answers into the model prompt. Identical input
// always produces a byte-identical prompt.
func BuildPrompt(fragments []quiz.Fragment, vocabulary []string) string {
	if len(vocabulary) == 0 {
		vocabulary = DefaultProfessions
	}

	var b strings.Builder
	fmt.Fprintf(&b, promptPreamble, strings.Join(vocabulary, ", "))
	b.WriteString("\nAnswers:\n")

	for i, fragment := range fragments {
		fmt.Fprintf(&b, "\n%d. ", i+1)
		writeFragment(&b, fragment)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, promptSchemaDescription, ai.FieldCareerRecommendation, ai.FieldProfessionIDs)

	return b.String()
}

func writeFragment(b *strings.Builder, f quiz.Fragment) {
	if f.Question == nil {
		b.WriteString("Note: ")
		b.WriteString(f.Diagnostic)
		b.WriteString("\n")
		return
	}

	fmt.Fprintf(b, "Question: %s\n", strings.TrimSpace(f.Question.QuestionText))

	if f.Option == nil {
		fmt.Fprintf(b, "   Note: %s\n", f.Diagnostic)
		return
	}

	fmt.Fprintf(b, "   Answer: %s (value: %s)\n", strings.TrimSpace(f.Option.Text), formatNumber(f.Option.Value))

	if len(f.Question.CareerImpact) == 0 {
		return
	}

	keys := utils.SortedKeys(f.Question.CareerImpact)
	scores := make([]string, 0, len(keys))
	for _, key := range keys {
		scores = append(scores, key+"="+formatNumber(f.Question.CareerImpact[key]))
	}
	fmt.Fprintf(b, "   Career impact: %s\n", strings.Join(scores, ", "))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
