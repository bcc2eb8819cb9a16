package notify

import (
	"fmt"

	"github.com/osteele/liquid"
)

const (
	welcomeSubject = "Welcome to Our Customer Management System"
	welcomeHTML    = `<h1>Welcome, {{ firstName | escape }}!</h1>
<p>Thank you for registering with our Customer Management System.</p>
<p>We're excited to have you on board!</p>
`
)

// Renderer turns a WelcomeJob into the subject and HTML body of the email.
type Renderer struct {
	subject *liquid.Template
	html    *liquid.Template
}

// NewRenderer compiles the welcome templates.
func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()
	subject, err := engine.ParseString(welcomeSubject)
	if err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}
	html, err := engine.ParseString(welcomeHTML)
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return &Renderer{subject: subject, html: html}, nil
}

// Render returns the subject and HTML body for job.
func (r *Renderer) Render(job WelcomeJob) (string, string, error) {
	bindings := map[string]any{
		"firstName":  job.FirstName,
		"email":      job.Email,
		"customerId": job.CustomerID,
	}
	subject, err := r.subject.RenderString(bindings)
	if err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	body, err := r.html.RenderString(bindings)
	if err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subject, body, nil
}
