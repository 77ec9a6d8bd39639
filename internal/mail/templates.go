package mail

import "html/template"

var templates = template.Must(template.New("mail").Parse(`
{{define "code"}}<!doctype html>
<html><body style="font-family:sans-serif">
<h2>{{.Title}}</h2>
<p>{{.Intro}}</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{.Code}}</p>
<p>This code expires in {{.TTL}}. If you did not request it, you can ignore this email.</p>
</body></html>{{end}}

{{define "reset"}}<!doctype html>
<html><body style="font-family:sans-serif">
<h2>Reset your password</h2>
<p>Hello {{.Name}},</p>
<p>Click the link below to choose a new password. The link expires in {{.TTL}}.</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>If you did not ask for a reset, no action is needed.</p>
</body></html>{{end}}

{{define "changed"}}<!doctype html>
<html><body style="font-family:sans-serif">
<h2>Your password was changed</h2>
<p>Hello {{.Name}},</p>
<p>The password for your account was just reset. If this was not you, reset it again right away.</p>
</body></html>{{end}}
`))
