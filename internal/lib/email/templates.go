package email

// Template is a string-based enum naming email templates.
type Template string

const (
	// TemplateDigest corresponds to templates/emails/digest.html
	TemplateDigest Template = "digest"
)
