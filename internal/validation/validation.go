// Package validation runs declarative, per-operation field checks.
//
// A RuleSet lists fields in order; each field lists checks in order. Every
// failing check is reported: checks on one field do not stop at the first
// failure and failures accumulate across fields in declaration order.
// The checks themselves are go-playground/validator tags, including the
// custom tags registered by New.
package validation

import (
	"encoding/json"
	"regexp"
	"strconv"

	"taskmanager/internal/domain/messages"

	"github.com/go-playground/validator/v10"
)

const (
	TagObjectID       = "objectid"
	TagEmailAddress   = "emailaddr"
	TagStrongPassword = "strongpassword"
	TagMaxBytes       = "maxbytes"
)

var (
	objectIDChars = regexp.MustCompile(`^[0-9a-f]+$`)
	emailAddress  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

type Check struct {
	Tag    string
	Reason messages.Reason
}

type Field struct {
	Name     string
	Optional bool
	Checks   []Check
}

type RuleSet struct {
	Name   string
	Fields []Field
}

// Payload is the flattened request input: field name to its string form.
// A missing key means the field was absent.
type Payload map[string]string

func (p Payload) Get(name string) string { return p[name] }

type Failure struct {
	Field  string
	Reason messages.Reason
}

type Result struct {
	Failures []Failure
}

func (r Result) OK() bool { return len(r.Failures) == 0 }

func (r Result) Reasons() []messages.Reason {
	reasons := make([]messages.Reason, 0, len(r.Failures))
	for _, f := range r.Failures {
		reasons = append(reasons, f.Reason)
	}
	return reasons
}

func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Reason.Message())
	}
	return out
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation(TagObjectID, func(fl validator.FieldLevel) bool {
		return objectIDChars.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(TagEmailAddress, func(fl validator.FieldLevel) bool {
		return emailAddress.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(TagStrongPassword, func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation(TagMaxBytes, func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return &Validator{validate: v}
}

var std = New()

// Run validates p against rs with the shared validator.
func Run(rs RuleSet, p Payload) Result {
	return std.Run(rs, p)
}

func (v *Validator) Run(rs RuleSet, p Payload) Result {
	var res Result
	for _, field := range rs.Fields {
		value, present := p[field.Name]
		if field.Optional && (!present || value == "") {
			continue
		}
		for _, check := range field.Checks {
			if err := v.validate.Var(value, check.Tag); err != nil {
				res.Failures = append(res.Failures, Failure{Field: field.Name, Reason: check.Reason})
			}
		}
	}
	return res
}

// strongPassword requires an ASCII lowercase letter, an ASCII uppercase
// letter, a digit and a symbol, where a symbol is anything outside
// [A-Za-z0-9] (underscore included).
func strongPassword(s string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// PayloadFromJSON flattens a decoded JSON object. Null values count as absent.
func PayloadFromJSON(raw map[string]any) Payload {
	p := make(Payload, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			p[k] = val
		case float64:
			p[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			p[k] = strconv.FormatBool(val)
		default:
			b, err := json.Marshal(val)
			if err == nil {
				p[k] = string(b)
			}
		}
	}
	return p
}
