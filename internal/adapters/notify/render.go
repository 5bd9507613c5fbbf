package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/expanders360/vendormatch/internal/domain/model"
)

const slaWarningSubject = "SLA Warning - Response Time Exceeded"

var matchBody = template.Must(template.New("match").Parse(`<h2>New Vendor Match Generated</h2>
<p>A new vendor match has been found for your project:</p>

<h3>Project Details:</h3>
<ul>
  <li><strong>Project:</strong> {{.Project.Name}}</li>
  <li><strong>Country:</strong> {{.Project.Country}}</li>
  <li><strong>Budget:</strong> ${{.Project.Budget.StringFixed 2}}</li>
</ul>

<h3>Matched Vendor:</h3>
<ul>
  <li><strong>Vendor:</strong> {{.Vendor.Name}}</li>
  <li><strong>Rating:</strong> {{.Vendor.Rating.StringFixed 2}}/5</li>
  <li><strong>Response SLA:</strong> {{.Vendor.ResponseSLAHours}} hours</li>
  <li><strong>Match Score:</strong> {{.Score.StringFixed 2}}</li>
</ul>

<p>Contact the vendor at: {{with .Vendor.ContactEmail}}{{.}}{{else}}Not provided{{end}}</p>

<p>Best regards,<br>Expanders360 Team</p>
`))

var slaBody = template.Must(template.New("sla").Parse(`<h2>SLA Warning Notification</h2>
<p>The following vendor has exceeded their SLA response time:</p>

<h3>Vendor Details:</h3>
<ul>
  <li><strong>Vendor:</strong> {{.Vendor.Name}}</li>
  <li><strong>SLA:</strong> {{.Vendor.ResponseSLAHours}} hours</li>
  <li><strong>Contact:</strong> {{with .Vendor.ContactEmail}}{{.}}{{else}}Not provided{{end}}</li>
  <li><strong>Expired matches:</strong> {{.ExpiredMatches}}</li>
</ul>

<h3>Affected Projects:</h3>
<pre>{{range $i, $p := .Projects}}{{if $i}}
{{end}}- {{$p.Name}} ({{$p.Country}}){{end}}</pre>

<p>Please follow up with the vendor to ensure timely responses.</p>

<p>Best regards,<br>Expanders360 System</p>
`))

func matchSubject(d *model.MatchDetail) string {
	return "New Vendor Match Found - " + d.Project.Name
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
