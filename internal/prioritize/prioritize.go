// Package prioritize ranks tasks by asking a language model to weigh their
// deadlines against their estimated effort.
package prioritize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrBadResponse = errors.New("model returned an unusable ranking")

type Task struct {
	Name            string `json:"name" yaml:"name" validate:"required,max=200"`
	Deadline        string `json:"deadline" yaml:"deadline" validate:"omitempty,deadline"`
	EstimatedEffort string `json:"estimatedEffort" yaml:"estimatedEffort" validate:"max=50"`
}

type Request struct {
	Tasks []Task `json:"tasks" yaml:"tasks" validate:"required,min=1,max=50,dive"`
}

type Ranked struct {
	Name     string `json:"name" validate:"required"`
	Priority int    `json:"priority" validate:"gte=1"`
	Reason   string `json:"reason" validate:"required"`
}

type Result struct {
	PrioritizedTasks []Ranked `json:"prioritizedTasks" validate:"required,min=1,dive"`
}

// InputError lists the request fields that failed validation.
type InputError struct {
	Fields map[string]string
}

func (e *InputError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, rule := range e.Fields {
		parts = append(parts, field+": "+rule)
	}
	sort.Strings(parts)
	return "invalid tasks: " + strings.Join(parts, ", ")
}

const systemPrompt = "You are an AI task prioritization assistant. Reply with JSON only."

var promptTemplate = template.Must(template.New("prioritize").Parse(
	`Given a list of tasks with their deadlines and estimated effort, prioritize them.

Prioritize the following tasks:
{{range .Tasks}}- Task: {{.Name}}, Deadline: {{if .Deadline}}{{.Deadline}}{{else}}none{{end}}, Effort: {{if .EstimatedEffort}}{{.EstimatedEffort}}{{else}}unknown{{end}} hours
{{end}}
Return a list of prioritized tasks with a priority (1 being the highest) and a reason for the assigned priority.
Return ONLY valid JSON in this shape:
{"prioritizedTasks": [{"name": "...", "priority": 1, "reason": "..."}]}
`))

type Prioritizer struct {
	model    Completer
	validate *validator.Validate
}

// New builds a Prioritizer around model. It panics if the validator rules
// cannot be registered.
func New(model Completer) *Prioritizer {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	return &Prioritizer{model: model, validate: v}
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("deadline", func(fl validator.FieldLevel) bool {
		_, err := ParseDeadline(fl.Field().String())
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("register deadline validation: %w", err)
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v, nil
}

// Prioritize validates req, asks the model for a ranking and returns it ordered
// by priority. Every returned name is one of the submitted task names.
func (p *Prioritizer) Prioritize(ctx context.Context, req Request) (*Result, error) {
	if err := p.checkRequest(req); err != nil {
		return nil, err
	}
	if p.model == nil {
		return nil, ErrUnavailable
	}

	prompt, err := RenderPrompt(req)
	if err != nil {
		return nil, err
	}

	reply, err := p.model.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	result, err := ParseResult(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if err := p.checkResult(req, result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	sort.SliceStable(result.PrioritizedTasks, func(i, j int) bool {
		return result.PrioritizedTasks[i].Priority < result.PrioritizedTasks[j].Priority
	})
	return result, nil
}

func (p *Prioritizer) checkRequest(req Request) error {
	err := p.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.TrimPrefix(fe.Namespace(), "Request.")] = fe.Tag()
	}
	return &InputError{Fields: fields}
}

func (p *Prioritizer) checkResult(req Request, result *Result) error {
	if err := p.validate.Struct(result); err != nil {
		return err
	}
	known := make(map[string]struct{}, len(req.Tasks))
	for _, task := range req.Tasks {
		known[strings.TrimSpace(task.Name)] = struct{}{}
	}
	for _, ranked := range result.PrioritizedTasks {
		if _, ok := known[strings.TrimSpace(ranked.Name)]; !ok {
			return fmt.Errorf("unknown task %q in ranking", ranked.Name)
		}
	}
	return nil
}

func RenderPrompt(req Request) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, req); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// ParseResult extracts the ranking JSON from a model reply, tolerating a
// surrounding markdown code fence.
func ParseResult(text string) (*Result, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned, "\n"); idx >= 0 {
			cleaned = cleaned[idx+1:]
		}
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("parse ranking JSON: %w", err)
	}
	return &result, nil
}

// ParseDeadline accepts an ISO date or an RFC 3339 timestamp.
func ParseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
