package pii

// Severity ranks how sensitive a detected value is.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a config string to a Severity. Empty means high.
func ParseSeverity(value string) (Severity, bool) {
	switch value {
	case "low":
		return SeverityLow, true
	case "medium":
		return SeverityMedium, true
	case "", "high":
		return SeverityHigh, true
	case "critical":
		return SeverityCritical, true
	default:
		return 0, false
	}
}

// Pattern is one named detector.
type Pattern struct {
	Name        string
	Description string
	Severity    Severity
	Expr        string
}

// DefaultPatterns are the built-in detectors. Several rely on negative
// look-ahead, which the standard regexp package does not support.
var DefaultPatterns = []Pattern{
	{
		Name:        "email",
		Description: "Email address",
		Severity:    SeverityHigh,
		Expr:        `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
	},
	{
		Name:        "phone_us",
		Description: "US phone number",
		Severity:    SeverityHigh,
		Expr:        `(?<![\d-])(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.][0-9]{4}\b`,
	},
	{
		Name:        "ssn",
		Description: "Social Security Number",
		Severity:    SeverityCritical,
		Expr:        `\b(?!000|666|9\d{2})\d{3}-(?!00)\d{2}-(?!0000)\d{4}\b`,
	},
	{
		Name:        "credit_card",
		Description: "Credit card number",
		Severity:    SeverityCritical,
		Expr:        `\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|3(?:0[0-5]|[68][0-9])[0-9]{11}|6(?:011|5[0-9]{2})[0-9]{12})\b`,
	},
	{
		Name:        "ip_address",
		Description: "IP address",
		Severity:    SeverityMedium,
		Expr:        `\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`,
	},
	{
		Name:        "api_key",
		Description: "API key or token",
		Severity:    SeverityCritical,
		Expr:        `\b(?:api[_-]?key|apikey|api[_-]?token|access[_-]?token)["']?\s*[:=]\s*["']?[A-Za-z0-9_\-]{20,}["']?`,
	},
	{
		Name:        "password",
		Description: "Password",
		Severity:    SeverityCritical,
		Expr:        `\b(?:password|passwd|pwd)["']?\s*[:=]\s*["']?[^\s"']{8,}["']?`,
	},
	{
		Name:        "aws_key",
		Description: "AWS access key",
		Severity:    SeverityCritical,
		Expr:        `\b(?:AKIA|A3T|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[0-9A-Z]{16}\b`,
	},
	{
		Name:        "private_key",
		Description: "Private key",
		Severity:    SeverityCritical,
		Expr:        `-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`,
	},
	{
		Name:        "jwt",
		Description: "JWT token",
		Severity:    SeverityHigh,
		Expr:        `\beyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`,
	},
}
