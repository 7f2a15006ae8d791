package services

const passwordResetEmailSubject = "Reset your password"

const passwordResetEmailPlain = `Hi %s,

Someone asked to reset the password for your %s account.
Open the link below within %d minutes to choose a new one:

%s

If it wasn't you, ignore this email; your password stays the same.`

const passwordResetEmailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Reset your password</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #1f2937; background-color: #eff6ff; margin: 0; padding: 20px; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background-color: #ffffff; border: 1px solid #bfdbfe; border-radius: 8px; }
.header { font-size: 24px; font-weight: bold; color: #3b82f6; margin-bottom: 15px; }
.content { padding: 20px; text-align: center; }
.button { background-color: #3b82f6; color: white !important; padding: 12px 25px; text-decoration: none; border-radius: 5px; font-weight: bold; display: inline-block; margin: 20px 0; }
.footer { margin-top: 20px; font-size: 12px; color: #6b7280; text-align: center; }
p { margin-bottom: 1em; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Password reset</h1>
    </div>
    <div class="content">
      <p>Hi %s, someone asked to reset the password for your account. The link expires in %d minutes.</p>
      <a class="button" href="%s">Choose a new password</a>
      <p>If it wasn't you, ignore this email; your password stays the same.</p>
    </div>
    <div class="footer">
      © %d %s. All rights reserved.
    </div>
  </div>
</body>
</html>`
