package rules

import (
	"fmt"
	"strings"

	"github.com/rlange/anneal/report"
	"github.com/rlange/anneal/syntax"
)

// Rule ids of the built-in families.
const (
	RuleInjection  = "sql-injection"
	RuleCredential = "hardcoded-credential"
	RuleTransport  = "cleartext-transport"
	RuleWeakCrypto = "weak-crypto"
)

// injectionRule flags string-built queries reaching a data-access call.
type injectionRule struct {
	sinks map[string]bool
}

// Injection returns the unsafe-sink detection rule with the default sink
// set (database query/exec entry points).
func Injection() Rule {
	return &injectionRule{sinks: map[string]bool{
		"Query":        true,
		"QueryRow":     true,
		"QueryContext": true,
		"Exec":         true,
		"ExecContext":  true,
		"Prepare":      true,
		"Raw":          true,
	}}
}

func (r *injectionRule) ID() string { return RuleInjection }

func (r *injectionRule) Describe() string {
	return "string concatenation flowing into a data-access call"
}

func (r *injectionRule) Evaluate(n *syntax.Node) []report.Diagnostic {
	if n.Kind != syntax.KindCall || !r.sinks[baseName(n.Name)] {
		return nil
	}
	for _, arg := range n.Kids {
		if !taintedConcat(arg) {
			continue
		}
		// One finding per call site, however many arguments look tainted.
		return []report.Diagnostic{{
			Rule:     RuleInjection,
			Severity: report.Critical,
			Message:  fmt.Sprintf("query built by string concatenation reaches %s", n.Name),
			Pos:      n.Pos,
			Fix:      "bind untrusted input with query parameters",
		}}
	}
	return nil
}

// taintedConcat reports whether n is a string concatenation mixing literal
// and non-literal parts.
func taintedConcat(n *syntax.Node) bool {
	if n == nil || n.Kind != syntax.KindBinaryOp || n.Value != "+" {
		return false
	}
	hasLiteral, hasDynamic := false, false
	syntax.Walk(n, func(m *syntax.Node) bool {
		switch m.Kind {
		case syntax.KindStringLit:
			hasLiteral = true
		case syntax.KindIdent, syntax.KindCall:
			hasDynamic = true
		}
		return true
	})
	return hasLiteral && hasDynamic
}

// credentialRule flags string literals that look like embedded secrets.
type credentialRule struct {
	minLen     int
	minEntropy float64
	keywords   []string
}

// Credential returns the literal-credential detection rule with default
// thresholds: literals shorter than 16 bytes are never flagged, and the
// entropy heuristic fires at 3.8 bits per byte.
func Credential() Rule {
	return &credentialRule{
		minLen:     16,
		minEntropy: 3.8,
		keywords: []string{
			"password", "passwd", "pwd", "secret", "token",
			"apikey", "api_key", "credential", "privatekey", "private_key",
		},
	}
}

func (r *credentialRule) ID() string { return RuleCredential }

func (r *credentialRule) Describe() string {
	return "string literal that appears to embed a credential"
}

func (r *credentialRule) Evaluate(n *syntax.Node) []report.Diagnostic {
	switch n.Kind {
	case syntax.KindAssign:
		// name = "literal" with a credential-suggesting name.
		if len(n.Kids) != 2 {
			return nil
		}
		dst, val := n.Kids[0], n.Kids[1]
		if dst.Kind != syntax.KindIdent || val.Kind != syntax.KindStringLit {
			return nil
		}
		if !r.keywordName(dst.Name) || len(val.Value) < r.minLen {
			return nil
		}
		return []report.Diagnostic{{
			Rule:     RuleCredential,
			Severity: report.Error,
			Message:  fmt.Sprintf("credential assigned to %q as a string literal", dst.Name),
			Pos:      val.Pos,
			Fix:      "read the secret from the environment or a secret store",
		}}
	case syntax.KindStringLit:
		if len(n.Value) < r.minLen || shannon(n.Value) < r.minEntropy {
			return nil
		}
		return []report.Diagnostic{{
			Rule:     RuleCredential,
			Severity: report.Error,
			Message:  "high-entropy string literal may be an embedded credential",
			Pos:      n.Pos,
			Fix:      "read the secret from the environment or a secret store",
		}}
	}
	return nil
}

func (r *credentialRule) keywordName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// transportRule flags URLs using plaintext network schemes.
type transportRule struct {
	upgrades map[string]string // scheme -> suggested replacement
}

// Transport returns the unauthenticated-transport detection rule.
// Loopback hosts are exempt: local listeners are a normal development
// setup and drown real findings.
func Transport() Rule {
	return &transportRule{upgrades: map[string]string{
		"http://":   "https://",
		"ws://":     "wss://",
		"ftp://":    "sftp://",
		"telnet://": "ssh://",
	}}
}

func (r *transportRule) ID() string { return RuleTransport }

func (r *transportRule) Describe() string {
	return "URL literal using a plaintext network scheme"
}

func (r *transportRule) Evaluate(n *syntax.Node) []report.Diagnostic {
	if n.Kind != syntax.KindStringLit {
		return nil
	}
	lower := strings.ToLower(n.Value)
	for scheme, upgrade := range r.upgrades {
		if !strings.HasPrefix(lower, scheme) {
			continue
		}
		if loopbackHost(strings.TrimPrefix(lower, scheme)) {
			return nil
		}
		return []report.Diagnostic{{
			Rule:     RuleTransport,
			Severity: report.Warning,
			Message:  fmt.Sprintf("%q uses a cleartext %s scheme", n.Value, strings.TrimSuffix(scheme, "://")),
			Pos:      n.Pos,
			Fix:      fmt.Sprintf("use %s", upgrade),
		}}
	}
	return nil
}

func loopbackHost(hostport string) bool {
	for _, local := range []string{"localhost", "127.0.0.1", "[::1]"} {
		if strings.HasPrefix(hostport, local) {
			return true
		}
	}
	return false
}

// weakCryptoRule flags identifiers naming deny-listed algorithms.
type weakCryptoRule struct {
	deny map[string]bool
}

// WeakCrypto returns the weak-primitive detection rule with the default
// deny-list of broken or deprecated algorithm names.
func WeakCrypto() Rule {
	return &weakCryptoRule{deny: map[string]bool{
		"md5":  true,
		"sha1": true,
		"des":  true,
		"3des": true,
		"rc4":  true,
		"ecb":  true,
	}}
}

func (r *weakCryptoRule) ID() string { return RuleWeakCrypto }

func (r *weakCryptoRule) Describe() string {
	return "use of a deny-listed cryptographic primitive"
}

func (r *weakCryptoRule) Evaluate(n *syntax.Node) []report.Diagnostic {
	if n.Kind != syntax.KindCall && n.Kind != syntax.KindIdent {
		return nil
	}
	for _, seg := range strings.Split(n.Name, ".") {
		if !r.deny[strings.ToLower(seg)] {
			continue
		}
		return []report.Diagnostic{{
			Rule:     RuleWeakCrypto,
			Severity: report.Error,
			Message:  fmt.Sprintf("%s is a weak cryptographic primitive", n.Name),
			Pos:      n.Pos,
			Fix:      "use SHA-256 or a modern AEAD cipher",
		}}
	}
	return nil
}

// baseName returns the last dot-separated segment of a qualified name.
func baseName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
