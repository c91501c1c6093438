package email

type source struct {
	Subject  string
	HTMLBody string
	TextBody string
}

const htmlHead = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; padding: 12px 24px; background-color: #3c8d5a; color: white; text-decoration: none; border-radius: 5px; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 14px; color: #666; }
    </style>
</head>`

var sources = map[string]source{
	KindTaskClaimed: {
		Subject: `{{.Helper}} offered to help with "{{.Task.Overview}}"`,
		HTMLBody: htmlHead + `
<body>
    <div class="container">
        <p>Hi {{.Recipient.Nickname}},</p>
        <p><strong>{{.Helper}}</strong> has claimed your task <em>{{.Task.Overview}}</em>.</p>
        <p>You can chat with them from the task page.</p>
        <p style="text-align: center; margin: 30px 0;"><a href="{{.TaskURL}}" class="button">Open task</a></p>
        <div class="footer"><p>The {{.AppName}} Team</p></div>
    </div>
</body>
</html>`,
		TextBody: `Hi {{.Recipient.Nickname}},

{{.Helper}} has claimed your task "{{.Task.Overview}}".
You can chat with them from the task page: {{.TaskURL}}

The {{.AppName}} Team`,
	},

	KindAwaitingVerification: {
		Subject: `Please verify "{{.Task.Overview}}"`,
		HTMLBody: htmlHead + `
<body>
    <div class="container">
        <p>Hi {{.Recipient.Nickname}},</p>
        <p><strong>{{.Helper}}</strong> marked <em>{{.Task.Overview}}</em> as complete.</p>
        <p>Verify it to award {{.Task.Reward}} points, or send it back if something is missing.</p>
        <p style="text-align: center; margin: 30px 0;"><a href="{{.TaskURL}}" class="button">Review task</a></p>
        <div class="footer"><p>The {{.AppName}} Team</p></div>
    </div>
</body>
</html>`,
		TextBody: `Hi {{.Recipient.Nickname}},

{{.Helper}} marked "{{.Task.Overview}}" as complete.
Verify it to award {{.Task.Reward}} points, or send it back if something is missing: {{.TaskURL}}

The {{.AppName}} Team`,
	},

	KindTaskVerified: {
		Subject: `You earned {{.Task.Reward}} points`,
		HTMLBody: htmlHead + `
<body>
    <div class="container">
        <p>Hi {{.Recipient.Nickname}},</p>
        <p>Your help with <em>{{.Task.Overview}}</em> was verified. <strong>{{.Task.Reward}} points</strong> were added to your account.</p>
        <p style="text-align: center; margin: 30px 0;"><a href="{{.BaseURL}}" class="button">Find more tasks</a></p>
        <div class="footer"><p>Thank you for helping out!<br>The {{.AppName}} Team</p></div>
    </div>
</body>
</html>`,
		TextBody: `Hi {{.Recipient.Nickname}},

Your help with "{{.Task.Overview}}" was verified. {{.Task.Reward}} points were added to your account.

Find more tasks: {{.BaseURL}}

Thank you for helping out!
The {{.AppName}} Team`,
	},
}
