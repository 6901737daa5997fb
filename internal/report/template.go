package report

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/didyoudo/didyoudo/internal/models"
	"github.com/didyoudo/didyoudo/internal/stats"
)

var priorityLabels = map[models.Priority]string{
	models.PriorityHigh:   "🔴 Haute",
	models.PriorityMedium: "🟡 Moyenne",
	models.PriorityLow:    "🟢 Basse",
}

type emailData struct {
	Stats     stats.WeeklyStats
	Completed []*models.Task
	Remaining []*models.Task
	IsTest    bool
	Now       time.Time
}

type taskRow struct {
	Title string
	Meta  string
	Date  string
}

type emailView struct {
	HeaderSubtitle string
	Congrats       string
	CompletedCount int
	RemainingCount int
	CompletionRate int
	AvgDelay       string
	TopCategory    string
	OverdueLabel   string
	Completed      []taskRow
	Remaining      []taskRow
	Overflow       string
}

// renderEmail builds the weekly report HTML body.
func renderEmail(data emailData) (string, error) {
	view := emailView{
		HeaderSubtitle: "📊 Votre Bilan Hebdomadaire",
		Congrats:       stats.CongratulationsMessage(data.Stats.CompletedCount),
		CompletedCount: data.Stats.CompletedCount,
		RemainingCount: data.Stats.RemainingCount,
		CompletionRate: data.Stats.CompletionRate,
		AvgDelay:       strconv.FormatFloat(data.Stats.AverageDelayDays, 'f', -1, 64),
		TopCategory:    "N/A",
	}
	if data.IsTest {
		view.HeaderSubtitle = "📧 Email de Test"
	}
	if data.Stats.TopCategory != nil {
		view.TopCategory = string(*data.Stats.TopCategory)
	}
	if n := data.Stats.OverdueCount; n > 0 {
		if n == 1 {
			view.OverdueLabel = "⚠️ 1 tâche en retard"
		} else {
			view.OverdueLabel = fmt.Sprintf("⚠️ %d tâches en retard", n)
		}
	}

	for _, t := range data.Completed {
		view.Completed = append(view.Completed, taskRow{
			Title: t.Title,
			Meta:  taskMeta(t),
			Date:  frDate(*t.CompletedAt),
		})
	}

	shown := data.Remaining
	if len(shown) > MaxRemainingInReport {
		shown = shown[:MaxRemainingInReport]
		overflow := len(data.Remaining) - MaxRemainingInReport
		if overflow == 1 {
			view.Overflow = "... et 1 autre tâche"
		} else {
			view.Overflow = fmt.Sprintf("... et %d autres tâches", overflow)
		}
	}
	for _, t := range shown {
		due := "Pas de date"
		if t.DueDate != nil {
			due = frDate(*t.DueDate)
		}
		view.Remaining = append(view.Remaining, taskRow{
			Title: t.Title,
			Meta:  taskMeta(t),
			Date:  due,
		})
	}

	var b strings.Builder
	if err := emailTemplate.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}

func taskMeta(t *models.Task) string {
	cats := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		cats[i] = string(c)
	}
	return priorityLabels[t.Priority] + " • " + strings.Join(cats, ", ")
}

// frDate formats a timestamp the way the product shows dates, day first.
func frDate(t time.Time) string {
	return t.Format("02/01/2006")
}

var emailTemplate = template.Must(template.New("weekly_report").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Bilan Hebdomadaire DidYouDo</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background-color: #FFFDF7;">
  <table width="100%" cellpadding="0" cellspacing="0" style="background-color: #FFFDF7;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table width="600" cellpadding="0" cellspacing="0" style="background-color: white; border-radius: 12px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">

          <tr>
            <td style="background: linear-gradient(135deg, #FF6B35 0%, #E85A2B 100%); padding: 40px; text-align: center; border-radius: 12px 12px 0 0;">
              <h1 style="margin: 0; color: white; font-size: 32px; font-weight: bold;">DidYouDo</h1>
              <p style="margin: 10px 0 0; color: rgba(255,255,255,0.9); font-size: 16px;">{{.HeaderSubtitle}}</p>
            </td>
          </tr>

          <tr>
            <td style="padding: 40px; text-align: center; background-color: #FFF7ED; border-bottom: 1px solid #FFEDD5;">
              <h2 style="margin: 0; color: #2D3142; font-size: 24px;">{{.Congrats}}</h2>
            </td>
          </tr>

          <tr>
            <td style="padding: 30px;">
              <table width="100%" cellpadding="0" cellspacing="0">
                <tr>
                  <td width="50%" style="padding: 20px; text-align: center; background-color: #F9FAFB; border-radius: 8px;">
                    <div style="font-size: 36px; font-weight: bold; color: #FF6B35;">{{.CompletedCount}}</div>
                    <div style="color: #6B7280; margin-top: 5px;">Tâches complétées</div>
                  </td>
                  <td width="10"></td>
                  <td width="50%" style="padding: 20px; text-align: center; background-color: #F9FAFB; border-radius: 8px;">
                    <div style="font-size: 36px; font-weight: bold; color: #FF6B35;">{{.RemainingCount}}</div>
                    <div style="color: #6B7280; margin-top: 5px;">Tâches restantes</div>
                  </td>
                </tr>
              </table>

              <table width="100%" cellpadding="0" cellspacing="0" style="margin-top: 15px;">
                <tr>
                  <td width="33%" style="padding: 15px; text-align: center;">
                    <div style="font-size: 24px; font-weight: bold; color: #2D3142;">{{.CompletionRate}}%</div>
                    <div style="color: #6B7280; font-size: 12px; margin-top: 3px;">Taux complétion</div>
                  </td>
                  <td width="33%" style="padding: 15px; text-align: center; border-left: 1px solid #E5E7EB; border-right: 1px solid #E5E7EB;">
                    <div style="font-size: 24px; font-weight: bold; color: #2D3142;">{{.AvgDelay}}j</div>
                    <div style="color: #6B7280; font-size: 12px; margin-top: 3px;">Délai moyen</div>
                  </td>
                  <td width="33%" style="padding: 15px; text-align: center;">
                    <div style="font-size: 24px; font-weight: bold; color: #2D3142;">{{.TopCategory}}</div>
                    <div style="color: #6B7280; font-size: 12px; margin-top: 3px;">Top catégorie</div>
                  </td>
                </tr>
              </table>
{{if .OverdueLabel}}
              <div style="margin-top: 15px; padding: 12px; background-color: #FEF2F2; border-left: 4px solid #EF4444; border-radius: 4px;">
                <span style="color: #991B1B; font-weight: 600;">{{.OverdueLabel}}</span>
              </div>
{{end}}
            </td>
          </tr>

          <tr>
            <td style="padding: 0 30px 30px;">
              <h3 style="color: #2D3142; margin: 0 0 15px;">✅ Tâches complétées cette semaine</h3>
              <table width="100%" cellpadding="0" cellspacing="0" style="border: 1px solid #E5E7EB; border-radius: 8px; overflow: hidden;">
{{if .Completed}}{{range .Completed}}
                <tr>
                  <td style="padding: 12px; border-bottom: 1px solid #E5E7EB;">
                    <strong>{{.Title}}</strong><br>
                    <small style="color: #6B7280;">{{.Meta}}</small>
                  </td>
                  <td style="padding: 12px; border-bottom: 1px solid #E5E7EB; text-align: right; color: #6B7280;">{{.Date}}</td>
                </tr>
{{end}}{{else}}
                <tr><td colspan="2" style="padding: 20px; text-align: center; color: #6B7280;">Aucune tâche complétée cette semaine</td></tr>
{{end}}
              </table>
            </td>
          </tr>

          <tr>
            <td style="padding: 0 30px 30px;">
              <h3 style="color: #2D3142; margin: 0 0 15px;">📋 Tâches restantes</h3>
              <table width="100%" cellpadding="0" cellspacing="0" style="border: 1px solid #E5E7EB; border-radius: 8px; overflow: hidden;">
{{if .Remaining}}{{range .Remaining}}
                <tr>
                  <td style="padding: 12px; border-bottom: 1px solid #E5E7EB;">
                    <strong>{{.Title}}</strong><br>
                    <small style="color: #6B7280;">{{.Meta}}</small>
                  </td>
                  <td style="padding: 12px; border-bottom: 1px solid #E5E7EB; text-align: right; color: #6B7280;">{{.Date}}</td>
                </tr>
{{end}}{{else}}
                <tr><td colspan="2" style="padding: 20px; text-align: center; color: #6B7280;">Aucune tâche restante ! 🎉</td></tr>
{{end}}
              </table>
{{if .Overflow}}
              <p style="text-align: center; color: #6B7280; margin-top: 10px;">{{.Overflow}}</p>
{{end}}
            </td>
          </tr>

          <tr>
            <td style="padding: 30px; text-align: center; background-color: #F9FAFB; border-radius: 0 0 12px 12px;">
              <p style="margin: 0; color: #6B7280; font-size: 14px;">
                Continuez comme ça ! 💪<br>
                <strong style="color: #FF6B35;">DidYouDo</strong> - Ne plus jamais oublier vos tâches
              </p>
            </td>
          </tr>

        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))
