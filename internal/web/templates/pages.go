// Package templates renders the HTML views of the web UI as templ
// components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// IndexData feeds the upload page.
type IndexData struct {
	ValidYears  []string
	Extensions  []string
	MaxFileSize int64
}

// Index renders the upload page. The form posts both files to
// /api/process and lists the generated reports as download links.
func Index(data IndexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var options strings.Builder
		for _, y := range data.ValidYears {
			fmt.Fprintf(&options, `<option value="%[1]s">%[1]s</option>`, templ.EscapeString(y))
		}

		accept := make([]string, len(data.Extensions))
		for i, ext := range data.Extensions {
			accept[i] = "." + ext
		}

		_, err := fmt.Fprintf(w, indexHTML,
			templ.EscapeString(strings.Join(accept, ",")),
			options.String(),
			data.MaxFileSize/(1024*1024),
		)
		return err
	})
}

// ErrorAlert renders an error box with the user message, the suggested
// action and the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		if code != "" {
			fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>FCTC Exam Automation</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; color: #1f2937; }
label { display: block; margin-top: 1rem; font-weight: 600; }
button { margin-top: 1.5rem; padding: .6rem 1.4rem; }
.alert-error { border: 1px solid #dc2626; background: #fef2f2; padding: .75rem; margin-top: 1rem; }
.alert-code { font-size: .8rem; color: #6b7280; }
table { border-collapse: collapse; margin-top: 1rem; }
td { padding: .25rem .75rem; border-bottom: 1px solid #e5e7eb; }
</style>
</head>
<body>
<h1>FCTC Exam Automation</h1>
<p>Upload the FCTC exam export and the Roll Call roster to build the attendance reports.</p>
<form id="process-form">
<label for="fctc_file">FCTC file</label>
<input type="file" id="fctc_file" name="fctc_file" accept="%[1]s" required>
<label for="roll_call_file">Roll Call file</label>
<input type="file" id="roll_call_file" name="roll_call_file" accept="%[1]s" required>
<label for="year">Year</label>
<select id="year" name="year" required>%[2]s</select>
<p><small>Maximum %[3]d MB per file.</small></p>
<button type="submit">Process</button>
</form>
<div id="results"></div>
<script>
document.getElementById('process-form').addEventListener('submit', async function (e) {
  e.preventDefault();
  const out = document.getElementById('results');
  out.textContent = 'Processing...';
  const res = await fetch('/api/process', { method: 'POST', body: new FormData(this), headers: { 'Accept': 'application/json' } });
  const body = await res.json();
  out.textContent = '';
  if (!body.success) {
    const box = document.createElement('div');
    box.className = 'alert alert-error';
    box.textContent = body.message + (body.action ? ' ' + body.action : '') + (body.code ? ' (Code: ' + body.code + ')' : '');
    out.appendChild(box);
    return;
  }
  const d = body.data, s = d.summary;
  const table = document.createElement('table');
  [['Total Students', s.total_students], ['Present', s.present_count], ['Absent', s.absent_count],
   ['Attendance %%', s.attendance_percentage.toFixed(1) + '%%'], ['Duplicate Attempts', s.duplicate_attempts]]
    .forEach(function (r) { const tr = table.insertRow(); tr.insertCell().textContent = r[0]; tr.insertCell().textContent = r[1]; });
  out.appendChild(table);
  const list = document.createElement('ul');
  d.generated_files.forEach(function (f) {
    const a = document.createElement('a');
    a.href = '/api/download/' + d.run_id + '/' + f;
    a.textContent = f;
    list.appendChild(document.createElement('li')).appendChild(a);
  });
  out.appendChild(list);
});
</script>
</body>
</html>
`
