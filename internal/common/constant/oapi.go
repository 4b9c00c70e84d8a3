package constant

const (
	OAPI_SECURITY_SCHEME  = "SidecarKey"
	OAPI_TAG_FUNCTIONS    = "Spreadsheet Functions"
	OAPI_TAG_AUTH         = "Authentication"
	OAPI_TAG_SERVER       = "Seeq Server"
	OAPI_TAG_MISC         = "Miscellaneous"
	OAPI_SPEC_UI          = `<!doctypehtml><title>API Reference</title><meta charset=utf-8><meta content="width=device-width,initial-scale=1"name=viewport><body><script data-url=/openapi.json id=api-reference></script><script src=https://cdn.jsdelivr.net/npm/@scalar/api-reference></script>`
	OAPI_SPEC_DESCRIPTION = `
Local backend for the TSFlow Excel add-in. Spreadsheet functions call this
sidecar over loopback; it keeps the Seeq sign-in between calls, talks to the
Python runner bridge for SPy queries, and reshapes pulled sensor data into
blocks the sheet can spill.

Function-level failures never surface as HTTP errors: /functions responses
are always 200 and carry either a result or rows of explanatory cell text.
`
)
