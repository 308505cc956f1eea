package ginserver

import "html/template"

const indexTemplate = "index"

var pageTemplates = template.Must(template.New(indexTemplate).Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif}
table{border-collapse:collapse;margin-bottom:2em}
td{padding:2px 8px}
.bar{background:#4a90d9;height:12px}
</style>
</head><body>
<h1>{{.Title}}</h1>
{{range .Series}}<h2>{{.Title}}</h2>
<table>
{{range .Entries}}<tr><td>{{.Name}}</td><td>{{printf "%.3f" .Avg}}</td><td style="width:400px"><div class="bar" style="width:{{.Percentage}}%"></div></td></tr>
{{end}}</table>
{{end}}</body></html>
`))
