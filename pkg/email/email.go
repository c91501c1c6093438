// Package email sends task lifecycle notifications to owners and helpers.
package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// Notifier defines the lifecycle emails the service sends.
type Notifier interface {
	SendTaskClaimed(ctx context.Context, owner Recipient, task TaskSummary, helperNickname string) error
	SendAwaitingVerification(ctx context.Context, owner Recipient, task TaskSummary, helperNickname string) error
	SendTaskVerified(ctx context.Context, helper Recipient, task TaskSummary) error
}

type Recipient struct {
	Email    string
	Nickname string
}

type TaskSummary struct {
	Key      string
	Overview string
	Reward   int64
}

// Config holds email service configuration
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	BaseURL      string
	AppName      string
}

// Message is a rendered email.
type Message struct {
	To       string
	Kind     string
	Subject  string
	TextBody string
	HTMLBody string
}

const (
	KindTaskClaimed          = "task_claimed"
	KindAwaitingVerification = "awaiting_verification"
	KindTaskVerified         = "task_verified"
)

// templateData is what every template renders from.
type templateData struct {
	AppName   string
	BaseURL   string
	Recipient Recipient
	Task      TaskSummary
	Helper    string
	TaskURL   string
}

type compiled struct {
	subject *template.Template
	text    *template.Template
	html    *htmltemplate.Template
}

// renderer turns a kind and its data into a Message.
type renderer struct {
	config    Config
	templates map[string]compiled
}

func newRenderer(config Config) (*renderer, error) {
	if config.AppName == "" {
		config.AppName = "NeighborHelp"
	}
	r := &renderer{config: config, templates: make(map[string]compiled, len(sources))}
	for kind, src := range sources {
		c, err := compile(kind, src)
		if err != nil {
			return nil, err
		}
		r.templates[kind] = c
	}
	return r, nil
}

func compile(kind string, src source) (compiled, error) {
	subject, err := template.New(kind + "_subject").Parse(src.Subject)
	if err != nil {
		return compiled{}, fmt.Errorf("parse %s subject: %w", kind, err)
	}
	text, err := template.New(kind + "_text").Parse(src.TextBody)
	if err != nil {
		return compiled{}, fmt.Errorf("parse %s text: %w", kind, err)
	}
	html, err := htmltemplate.New(kind + "_html").Parse(src.HTMLBody)
	if err != nil {
		return compiled{}, fmt.Errorf("parse %s html: %w", kind, err)
	}
	return compiled{subject: subject, text: text, html: html}, nil
}

func (r *renderer) render(kind string, to Recipient, task TaskSummary, helper string) (*Message, error) {
	c, ok := r.templates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown email kind %q", kind)
	}
	if to.Nickname == "" {
		to.Nickname = "Neighbor"
	}
	data := templateData{
		AppName:   r.config.AppName,
		BaseURL:   r.config.BaseURL,
		Recipient: to,
		Task:      task,
		Helper:    helper,
		TaskURL:   fmt.Sprintf("%s/tasks/info?key=%s", r.config.BaseURL, task.Key),
	}

	var subject, text, html bytes.Buffer
	if err := c.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("execute subject template: %w", err)
	}
	if err := c.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("execute text template: %w", err)
	}
	if err := c.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return &Message{
		To:       to.Email,
		Kind:     kind,
		Subject:  subject.String(),
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
