package notify

import (
	"bytes"
	"html/template"

	"github.com/okian/skilltier/internal/domain/tier"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<h2>Welcome, {{.FirstName}}!</h2>
<p>Thank you for registering with the Candidate Categorization Platform.</p>
<p>We're excited to assess your skills and find the perfect fit for you.</p>
<p>Please add your skills to your profile to get started with the assessment process.</p>
<p>Best regards,<br>The Assessment Team</p>
`))

var tierTmpl = template.Must(template.New("tier").Parse(`<h2>Your Skill Assessment Results</h2>
<p>Hi {{.FirstName}},</p>
<p>We've completed the assessment of your skills. Based on your self-declared proficiency and experience, you have been categorized as:</p>
<h3>{{.TierName}} (Tier {{.Tier}})</h3>
<p>{{.TierName}} - {{.Description}}</p>
<p>This tier placement reflects your current skill level and will help us match you with suitable opportunities.</p>
<p>You can update your profile anytime to reflect any new skills or experience you've gained.</p>
<p>Best regards,<br>The Assessment Team</p>
`))

// WelcomeMessage renders the registration message.
func WelcomeMessage(to Recipient) (Message, error) {
	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, to); err != nil {
		return Message{}, err
	}
	return Message{
		To:      to.Email,
		Subject: "Welcome to the Candidate Portal",
		HTML:    buf.String(),
	}, nil
}

// TierAssignedMessage renders the assessment result message.
func TierAssignedMessage(to Recipient, t int, tierName string) (Message, error) {
	var desc string
	if b, ok := tier.Lookup(t); ok {
		desc = b.Description
	}
	var buf bytes.Buffer
	err := tierTmpl.Execute(&buf, struct {
		FirstName   string
		Tier        int
		TierName    string
		Description string
	}{to.FirstName, t, tierName, desc})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to.Email,
		Subject: "Your Skill Assessment Results - " + tierName,
		HTML:    buf.String(),
	}, nil
}
