package logs

import (
	"regexp"

	"go.uber.org/zap/zapcore"
)

// SecretSanitizer wraps a zapcore.Core to mask sensitive values before they
// reach any output. Console tokens travel in URLs and log lines, so masking
// happens centrally here rather than at each call site.
type SecretSanitizer struct {
	zapcore.Core
	patterns []*secretPattern
}

type secretPattern struct {
	name     string
	regex    *regexp.Regexp
	maskFunc func(string) string
}

func maskEdges(v string) string {
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "***" + v[len(v)-2:]
}

// NewSecretSanitizer creates a sanitizing core that wraps the provided core
func NewSecretSanitizer(core zapcore.Core) *SecretSanitizer {
	s := &SecretSanitizer{Core: core}

	// JWTs (console tokens are HS256 JWTs)
	s.patterns = append(s.patterns, &secretPattern{
		name:     "jwt",
		regex:    regexp.MustCompile(`\b(eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+)\b`),
		maskFunc: maskEdges,
	})

	// token= query parameters in websocket URLs
	s.patterns = append(s.patterns, &secretPattern{
		name:  "token_param",
		regex: regexp.MustCompile(`(token=)([^&\s"]+)`),
		maskFunc: func(string) string {
			return "token=****"
		},
	})

	// panel API keys (cpk_ prefix)
	s.patterns = append(s.patterns, &secretPattern{
		name:     "api_key",
		regex:    regexp.MustCompile(`\b(cpk_[A-Za-z0-9]{16,})\b`),
		maskFunc: maskEdges,
	})

	return s
}

// Check implements zapcore.Core
func (s *SecretSanitizer) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if s.Enabled(ent.Level) {
		return ce.AddCore(ent, s)
	}
	return ce
}

// Write sanitizes the entry message and string fields before delegating
func (s *SecretSanitizer) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = s.sanitize(ent.Message)

	sanitized := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if f.Type == zapcore.StringType {
			f.String = s.sanitize(f.String)
		}
		sanitized[i] = f
	}

	return s.Core.Write(ent, sanitized)
}

// With implements zapcore.Core
func (s *SecretSanitizer) With(fields []zapcore.Field) zapcore.Core {
	sanitized := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if f.Type == zapcore.StringType {
			f.String = s.sanitize(f.String)
		}
		sanitized[i] = f
	}
	return &SecretSanitizer{
		Core:     s.Core.With(sanitized),
		patterns: s.patterns,
	}
}

func (s *SecretSanitizer) sanitize(msg string) string {
	for _, p := range s.patterns {
		msg = p.regex.ReplaceAllStringFunc(msg, p.maskFunc)
	}
	return msg
}
