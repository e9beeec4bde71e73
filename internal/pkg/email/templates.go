package email

// Email templates in HTML format

// BaseTemplate is the base layout for all emails
const BaseTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body {
            margin: 0;
            padding: 0;
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background-color: #f4f4f0;
            color: #1f2937;
        }
        .container {
            max-width: 600px;
            margin: 0 auto;
            padding: 40px 20px;
        }
        .card {
            background: #ffffff;
            border-radius: 12px;
            padding: 32px;
            border: 1px solid #e5e7eb;
        }
        .logo h1 {
            font-size: 26px;
            color: #b45309;
            margin: 0 0 24px;
            text-align: center;
        }
        p {
            font-size: 16px;
            line-height: 1.6;
            margin: 0 0 16px;
        }
        .code {
            font-size: 32px;
            font-weight: 700;
            letter-spacing: 8px;
            color: #b45309;
            text-align: center;
        }
        .footer {
            text-align: center;
            margin-top: 32px;
            color: #6b7280;
            font-size: 12px;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="card">
            <div class="logo">
                <h1>MineWatch</h1>
            </div>
            {{.Content}}
        </div>
        <div class="footer">
            <p>You received this email because someone used this address to sign in to MineWatch.</p>
        </div>
    </div>
</body>
</html>
`

// SignInCodeTemplate - one-time sign-in code
const SignInCodeTemplate = `
<h2>Your sign-in code</h2>
<p>Enter this code to finish signing in:</p>
<p class="code">{{.Code}}</p>
<p>The code expires in {{.ExpiresInMinutes}} minutes.</p>
<p style="color: #6b7280;">If you did not try to sign in, you can ignore this email.</p>
`

// ReportStatusTemplate - sent to a reporter when their report changes status
const ReportStatusTemplate = `
<h2>Your report was updated</h2>
<p>The report <strong>{{.Title}}</strong> is now <strong>{{.Status}}</strong>.</p>
<p>Thank you for helping keep your community safe.</p>
`
