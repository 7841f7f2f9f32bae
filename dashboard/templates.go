package dashboard

import (
	"html/template"

	"github.com/pkg/errors"
)

func parseTemplates() (*template.Template, error) {
	t, err := template.New("dashboard").Parse(pageTemplate + sectionTemplate + tablesTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "parse dashboard templates")
	}
	return t, nil
}

const pageTemplate = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; display: flex; font-family: Helvetica, Arial, sans-serif; color: #262730; }
aside { width: 240px; min-height: 100vh; padding: 1.5rem 1rem; background: #f0f2f6; box-sizing: border-box; }
aside h3 { font-size: 1rem; margin: 1.2rem 0 .4rem; }
main { flex: 1; max-width: 960px; padding: 1.5rem 2.5rem; }
.title { color: #4CAF50; font-size: 30px; text-align: center; }
details { border: 1px solid #e6e9ef; border-radius: 6px; margin: .8rem 0; }
summary { padding: .7rem 1rem; cursor: pointer; font-weight: 600; }
details > .body { padding: 0 1rem 1rem; }
.chart img { max-width: 100%; }
.chart iframe { width: 100%; height: 520px; border: 0; }
.error { padding: .6rem 1rem; color: #7d353b; background: #ffe9e9; border-radius: 4px; }
.success { padding: .6rem 1rem; color: #176639; background: #dcf5e4; border-radius: 4px; }
table { border-collapse: collapse; font-size: .85rem; margin: .5rem 0 1rem; }
th, td { padding: .25rem .6rem; border-bottom: 1px solid #e6e9ef; }
td.number { text-align: right; font-variant-numeric: tabular-nums; }
.note { color: #808495; font-size: .85rem; }
</style>
</head>
<body>
<aside>
  <h3>Dataset Preview</h3>
  <label><input type="checkbox" data-target="dataset-panel" data-src="/dataset"{{if .ShowDataset}} checked{{end}}> Show Dataset</label>
  <h3>Basic Statistics</h3>
  <label><input type="checkbox" data-target="stats-panel" data-src="/statistics"{{if .ShowStats}} checked{{end}}> Show Statistics</label>
</aside>
<main>
  <h1 class="title">{{.Title}}</h1>
  <div id="dataset-panel" hidden></div>
  <div id="stats-panel" hidden></div>

  <h3>{{.Title}}</h3>
  <p><strong>Introduction:</strong></p>
  <p>This dashboard provides an interactive exploratory data analysis (EDA) for the {{.Name}} dataset. {{.Summary}} Every sample has measurements for:</p>
  <ul>{{range .Measures}}<li>{{.}}</li>{{end}}</ul>
  <p>Each sample is classified into one {{.LabelName}}:</p>
  <ol>{{range .Labels}}<li><strong>{{.}}</strong></li>{{end}}</ol>
  <p><strong>Objective:</strong></p>
  <ul>
    <li>Visualize relationships between variables through interactive plots.</li>
    <li>Identify potential patterns, trends, or clusters in the data.</li>
    <li>Handle outliers (if any) and understand the distribution of features.</li>
    <li>Compute and visualize correlations to assess linear relationships.</li>
  </ul>

  {{range .Sections}}{{if .HasCharts}}
  <details id="section-{{.ID}}" data-src="/sections/{{.ID}}"{{if .Open}} open{{end}}>
    <summary>{{.Title}}</summary>
    <div class="body"></div>
  </details>
  {{end}}{{end}}

  <div class="success">{{.Banner}}</div>
</main>
<script>
function load(src, el) {
  el.innerHTML = '<p class="note">Loading...</p>';
  fetch(src).then(function (r) { return r.text(); }).then(function (html) { el.innerHTML = html; bindFilter(el); });
}
function bindFilter(el) {
  var sel = el.querySelector('select[data-filter]');
  if (sel) sel.addEventListener('change', function () { load('/dataset?species=' + encodeURIComponent(sel.value), el); });
}
document.querySelectorAll('details[data-src]').forEach(function (d) {
  d.addEventListener('toggle', function () { if (d.open) load(d.dataset.src, d.querySelector('.body')); });
});
document.querySelectorAll('aside input[data-src]').forEach(function (box) {
  var panel = document.getElementById(box.dataset.target);
  function sync() { panel.hidden = !box.checked; if (box.checked) load(box.dataset.src, panel); else panel.innerHTML = ''; }
  box.addEventListener('change', sync);
  if (box.checked) sync();
});
</script>
</body>
</html>{{end}}`

const sectionTemplate = `{{define "section"}}
{{with .Section}}{{if .Heading}}<h3>{{.Heading}}</h3>{{end}}{{if .Caption}}<p>{{.Caption}}</p>{{end}}{{end}}
{{range .Charts}}
<div class="chart" id="chart-{{.Section}}-{{.Index}}">
  <h4>{{.Title}}</h4>
  {{if .Caption}}<p>{{.Caption}}</p>{{end}}
  {{if .Error}}<div class="error">{{.Error}}</div>
  {{else if .Frame}}<iframe src="{{.Href}}" title="{{.Title}}"></iframe>
  {{else}}<a href="{{.Href}}"><img src="{{.Image}}" alt="{{.Title}}"></a>{{end}}
  {{with .Table}}{{template "table" .}}{{end}}
</div>
{{end}}
<p class="note">Rendered in {{.Elapsed}}.</p>
{{end}}`

const tablesTemplate = `{{define "table"}}
<table>
  <thead><tr>{{range .Columns}}<th>{{.Label}}</th>{{end}}</tr></thead>
  <tbody>{{range .Rows}}<tr>{{range .}}<td class="number">{{.}}</td>{{end}}</tr>{{end}}</tbody>
</table>
{{end}}
{{define "tables"}}
<h3>{{.Heading}}</h3>
{{if .Labels}}<label>Filter: <select data-filter>
  <option value="">All</option>{{range .Labels}}<option value="{{.}}"{{if eq . $.Current}} selected{{end}}>{{.}}</option>{{end}}
</select></label>{{end}}
{{if .Note}}<p class="note">{{.Note}}</p>{{end}}
{{range .Tables}}{{if .Title}}<h4>{{.Title}}</h4>{{end}}{{template "table" .}}{{end}}
{{end}}`
