package sharescore

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"cpn-workers/internal/common/aws"
	"cpn-workers/internal/models"
)

var htmlSummary = template.Must(template.New("summary").Parse(`<html><body>
{{if .Message}}<p>{{.Message}}</p>{{end}}
<h2>{{.Sender}} scored {{printf "%.1f" .Score.Score}} on CPN</h2>
<table>
<tr><td>Cost efficiency</td><td>{{printf "%.1f" .Score.CategoryScores.CostEfficiency}}</td></tr>
<tr><td>Time management</td><td>{{printf "%.1f" .Score.CategoryScores.TimeManagement}}</td></tr>
<tr><td>Success rate</td><td>{{printf "%.1f" .Score.CategoryScores.SuccessRate}}</td></tr>
<tr><td>Peer percentile</td><td>{{.Score.PeerPercentile}}</td></tr>
</table>
</body></html>`))

type summary struct {
	Sender  string
	Message string
	Score   *models.CpnScore
}

func buildEmail(input *Input, score *models.CpnScore) (aws.Email, error) {
	sender := input.SenderName
	if sender == "" {
		sender = "A friend"
	}
	data := summary{Sender: sender, Message: input.Message, Score: score}

	var text strings.Builder
	if input.Message != "" {
		text.WriteString(input.Message)
		text.WriteString("\n\n")
	}
	text.WriteString(fmt.Sprintf("%s scored %.1f on CPN.\n\n", sender, score.Score))
	text.WriteString(fmt.Sprintf("Cost efficiency: %.1f\n", score.CategoryScores.CostEfficiency))
	text.WriteString(fmt.Sprintf("Time management: %.1f\n", score.CategoryScores.TimeManagement))
	text.WriteString(fmt.Sprintf("Success rate: %.1f\n", score.CategoryScores.SuccessRate))
	text.WriteString(fmt.Sprintf("Peer percentile: %d\n", score.PeerPercentile))

	var html bytes.Buffer
	if err := htmlSummary.Execute(&html, data); err != nil {
		return aws.Email{}, fmt.Errorf("render summary: %w", err)
	}

	return aws.Email{
		To:      input.RecipientEmail,
		Subject: fmt.Sprintf("%s shared a CPN score of %.0f", sender, score.Score),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
