package handlers

import "html/template"

// Templates returns the server-rendered pages for the confirmation flow.
// They are compiled in so the binary carries no asset directory.
func Templates() *template.Template {
	return template.Must(template.New("").Parse(confirmTemplates))
}

const confirmTemplates = `
{{define "review.html"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Review reminder</title>
</head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 640px; margin: 0 auto; padding: 24px;">
  <h1>{{.Title}}</h1>
  <p>
    <strong>When:</strong> {{.When}} ({{.Timezone}})<br>
    {{if .Location}}<strong>Where:</strong> {{.Location}}<br>{{end}}
    {{if .GroupName}}<strong>Group:</strong> {{.GroupName}}<br>{{end}}
    <strong>Attendees:</strong> {{.AttendeeCount}} invited or accepted
  </p>
  <form method="post" action="/confirm-reminder?token={{.Token}}">
    <p>
      <label for="description"><strong>Description</strong> (sent to attendees)</label><br>
      <textarea id="description" name="description" rows="6" style="width: 100%;">{{.Description}}</textarea>
    </p>
    <p>
      <label for="message"><strong>Personal message</strong> (optional)</label><br>
      <textarea id="message" name="message" rows="3" style="width: 100%;"></textarea>
    </p>
    <p>
      <button type="submit" style="padding: 12px 30px; background-color: #4a6fa5; color: white; border: none; border-radius: 5px;">Send reminder to attendees</button>
    </p>
  </form>
</body>
</html>{{end}}

{{define "sent.html"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Reminder sent</title>
</head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 640px; margin: 0 auto; padding: 24px;">
  <h1>Reminder sent</h1>
  {{if .AttendeeCount}}
  <p>The reminder was emailed to {{.AttendeeCount}} attendee{{if ne .AttendeeCount 1}}s{{end}}.</p>
  {{else}}
  <p>The reminder was confirmed. No attendees had an email address on file, so nothing was sent.</p>
  {{end}}
  <p>You can close this page.</p>
</body>
</html>{{end}}

{{define "error.html"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Reminder</title>
</head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 640px; margin: 0 auto; padding: 24px;">
  <h1>Something is not right</h1>
  <p>{{.Message}}</p>
</body>
</html>{{end}}
`
