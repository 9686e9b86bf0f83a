// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepagg

import (
	"io"

	"github.com/google/safehtml/template"
)

const reportTemplateSrc = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>sweep report</title>
<style>
body { font-family: sans-serif; }
table { border-collapse: collapse; }
th, td { padding: 0.2em 0.6em; border: 1px solid #ccc; }
th { background: #eee; text-align: left; }
td.num { text-align: right; }
</style>
</head>
<body>
<h1>sweep report</h1>
<table>
<thead>
<tr>
{{- range .Params}}<th>{{.}}</th>{{end}}
{{- range .Stats}}<th>{{.}}</th>{{end}}
</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(reportTemplateSrc))

// WriteHTML writes the report as a single HTML table with the same
// columns as WriteCSV.
func (r *Report) WriteHTML(w io.Writer) error {
	stats := scalarKeys(r.Records)
	data := struct {
		Params []string
		Stats  []string
		Rows   [][]string
	}{Stats: stats}

	if len(r.Records) > 0 {
		for _, p := range r.Records[0].Params {
			data.Params = append(data.Params, p.Name)
		}
	}
	for _, rec := range r.Records {
		row := make([]string, 0, len(data.Params)+len(stats))
		for _, p := range rec.Params {
			row = append(row, p.Value)
		}
		for _, k := range stats {
			v, _ := scalar(rec.Stats[k])
			row = append(row, v)
		}
		data.Rows = append(data.Rows, row)
	}
	return reportTemplate.Execute(w, data)
}
