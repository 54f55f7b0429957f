package runner

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"text/template"
	"time"

	"github.com/google/uuid"

	"crudload/internal/client"
)

const (
	DefaultNameTemplate  = "{{.Prefix}}{{.Worker}}_{{.Attempt}}_{{.Token}}"
	DefaultEmailTemplate = "{{.EmailPrefix}}{{.Worker}}_{{.Attempt}}_{{.Token}}@test.com"
)

// PayloadData is passed to the name and email templates.
type PayloadData struct {
	Prefix      string
	EmailPrefix string
	Worker      int
	Attempt     int

	// Token is unique per generated payload within the process.
	Token string
	UUID  string
}

// PayloadGenerator renders the name/email pair sent by create and update.
type PayloadGenerator struct {
	name  *template.Template
	email *template.Template

	prefix      string
	emailPrefix string

	start time.Time
	seq   atomic.Uint64
}

func NewPayloadGenerator(op Operation, nameTmpl, emailTmpl string) (*PayloadGenerator, error) {
	if nameTmpl == "" {
		nameTmpl = DefaultNameTemplate
	}
	if emailTmpl == "" {
		emailTmpl = DefaultEmailTemplate
	}

	funcs := template.FuncMap{
		"randomInt":    randomInt,
		"randomChoice": randomChoice,
		"uuid":         func() string { return uuid.New().String() },
		"lower":        strings.ToLower,
	}

	name, err := template.New("name").Funcs(funcs).Parse(nameTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse name template: %w", err)
	}
	email, err := template.New("email").Funcs(funcs).Parse(emailTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}

	g := &PayloadGenerator{
		name:        name,
		email:       email,
		prefix:      "User",
		emailPrefix: "user",
		start:       time.Now(),
	}
	if op == OpUpdate {
		g.prefix, g.emailPrefix = "UpdatedUser", "updated"
	}
	return g, nil
}

// Next renders the payload for one attempt. Safe for concurrent use.
func (g *PayloadGenerator) Next(worker, attempt int) (client.UserInput, error) {
	seq := g.seq.Add(1)
	// time.Since reads the monotonic clock, so the stamp never goes backwards.
	stamp := g.start.UnixNano() + time.Since(g.start).Nanoseconds()

	data := PayloadData{
		Prefix:      g.prefix,
		EmailPrefix: g.emailPrefix,
		Worker:      worker,
		Attempt:     attempt,
		Token:       fmt.Sprintf("%d%03d", stamp/int64(time.Millisecond), seq),
		UUID:        uuid.New().String(),
	}

	name, err := render(g.name, data)
	if err != nil {
		return client.UserInput{}, err
	}
	email, err := render(g.email, data)
	if err != nil {
		return client.UserInput{}, err
	}
	return client.UserInput{Name: name, Email: email}, nil
}

func render(t *template.Template, data PayloadData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func randomInt(min, max int) int {
	if max <= min {
		return min
	}
	return rand.Intn(max-min) + min
}

func randomChoice(choices ...string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[rand.Intn(len(choices))]
}
