package service

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ralovishna/money-manager-api/internal/domain"
)

const mailSignature = `<br><br>Best regards,<br>Money Manager Team`

var (
	activationTmpl = template.Must(template.New("activation").Parse(
		`Hi {{.FullName}},<br><br>Click on the following link to activate your account: ` +
			`<a href="{{.Link}}">{{.Link}}</a>` + mailSignature))

	reminderTmpl = template.Must(template.New("reminder").Parse(
		`Hi {{.FullName}},<br><br>This is a friendly reminder to add your income and expenses for today in Money Manager.<br><br>` +
			`<a href="{{.FrontendURL}}" style="background-color:#4CAF50;color:#fff;padding:10px 20px;text-decoration:none;border-radius:5px;font-weight:bold;">Go to Money Manager</a>` +
			mailSignature))

	summaryTmpl = template.Must(template.New("summary").Parse(
		`Hi {{.FullName}},<br><br>Here is a summary of your expenses for today:<br><br>` +
			`<table style="border-collapse:collapse;width:100%">` +
			`<tr style="background-color:#f2f2f2;">` +
			`<th style="border:1px solid #ddd;padding:8px;">S.No</th>` +
			`<th style="border:1px solid #ddd;padding:8px;">Name</th>` +
			`<th style="border:1px solid #ddd;padding:8px;">Amount</th>` +
			`<th style="border:1px solid #ddd;padding:8px;">Category</th></tr>` +
			`{{range .Rows}}<tr>` +
			`<td style="border:1px solid #ddd;padding:8px;">{{.Index}}</td>` +
			`<td style="border:1px solid #ddd;padding:8px;">{{.Name}}</td>` +
			`<td style="border:1px solid #ddd;padding:8px;">{{.Amount}}</td>` +
			`<td style="border:1px solid #ddd;padding:8px;">{{.Category}}</td>` +
			`</tr>{{end}}</table>` + mailSignature))

	reportTmpl = template.Must(template.New("report").Parse(
		`Dear User,<br><br>Please find your {{.Kind}} details attached.<br><br>Generated on: {{.GeneratedAt}}` +
			mailSignature))
)

type activationMailData struct {
	FullName string
	Link     string
}

type reminderMailData struct {
	FullName    string
	FrontendURL string
}

type summaryRow struct {
	Index    int
	Name     string
	Amount   string
	Category string
}

type summaryMailData struct {
	FullName string
	Rows     []summaryRow
}

type reportMailData struct {
	Kind        string
	GeneratedAt string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s mail: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func renderReportMail(data reportMailData) (string, error) {
	return render(reportTmpl, data)
}

func reportSubject(kind domain.TransactionKind) string {
	if kind == domain.KindIncome {
		return "Income Details Report"
	}
	return "Expense Details Report"
}

// FormatAmount renders cents as a decimal string with two places.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func summaryRows(txs []domain.Transaction) []summaryRow {
	rows := make([]summaryRow, 0, len(txs))
	for i, tx := range txs {
		category := tx.CategoryName
		if tx.CategoryID == nil || category == "" {
			category = "N/A"
		}
		rows = append(rows, summaryRow{
			Index:    i + 1,
			Name:     tx.Name,
			Amount:   FormatAmount(tx.AmountCents),
			Category: category,
		})
	}
	return rows
}
