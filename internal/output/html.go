package output

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

type htmlReportData struct {
	Report
	GeneratedAt string
	TotalCalls  int64
}

// GenerateHTMLReport renders r as a standalone HTML page.
func GenerateHTMLReport(w io.Writer, r Report) error {
	data := htmlReportData{
		Report:      r,
		GeneratedAt: r.GeneratedAt.Format(time.RFC3339),
	}
	for _, row := range r.Rows {
		data.TotalCalls += row.Calls
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.4f", f)
		},
		"formatPercent": func(part, total int64) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>calltrack report {{.ID}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 40px; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card { background: #f8f9fa; border-radius: 8px; padding: 20px; border-left: 4px solid #667eea; }
        .card h3 { font-size: 0.9rem; color: #6c757d; text-transform: uppercase; margin-bottom: 10px; }
        .card .value { font-size: 2rem; font-weight: bold; }
        .card.error { border-left-color: #ef4444; }
        table { width: 100%; border-collapse: collapse; }
        th, td { padding: 10px 12px; border-bottom: 1px solid #e9ecef; text-align: right; }
        th:first-child, td:first-child { text-align: left; font-family: monospace; }
        th { background: #f8f9fa; font-size: 0.85rem; text-transform: uppercase; color: #6c757d; }
    </style>
</head>
<body>
<div class="container">
    <header>
        <h1>calltrack report</h1>
        <div class="meta">{{.ID}} &middot; generated {{.GeneratedAt}} &middot; sorted by {{.SortKey}}{{if .Reverse}} (reversed){{end}}</div>
    </header>
    <div class="content">
        <div class="grid">
            <div class="card"><h3>Functions</h3><div class="value">{{len .Rows}}</div></div>
            <div class="card"><h3>Calls</h3><div class="value">{{.TotalCalls}}</div></div>
            {{with .Workload}}
            <div class="card"><h3>Iterations</h3><div class="value">{{.Iterations}}</div></div>
            <div class="card error"><h3>Failed iterations</h3><div class="value">{{.Errors}}</div></div>
            {{end}}
        </div>
        <table>
            <thead>
                <tr><th>Function</th><th>Calls</th><th>Share</th><th>Unit</th><th>Avg</th><th>Max</th><th>Min</th><th>Total</th></tr>
            </thead>
            <tbody>
            {{$total := .TotalCalls}}
            {{range .Rows}}
                <tr>
                    <td>{{.Function}}</td>
                    <td>{{.Calls}}</td>
                    <td>{{formatPercent .Calls $total}}%</td>
                    <td>{{.Unit}}</td>
                    <td>{{formatFloat .Avg}}</td>
                    <td>{{formatFloat .Max}}</td>
                    <td>{{formatFloat .Min}}</td>
                    <td>{{formatFloat .Total}}</td>
                </tr>
            {{else}}
                <tr><td colspan="8">No calls recorded.</td></tr>
            {{end}}
            </tbody>
        </table>
    </div>
</div>
</body>
</html>
`
