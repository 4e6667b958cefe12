package diag

// Code identifies a diagnostic kind from the stable wire contract (§6.2).
type Code string

// Parse/IO errors. Never suppressible.
const (
	CodeParseError Code = "T100"
	CodeIOError    Code = "T900"
	CodeConfigErr  Code = "T901"
)

// Structural (block tree) diagnostics. Never suppressible.
const (
	CodeUnclosedTag        Code = "S100"
	CodeUnbalancedStruct   Code = "S101"
	CodeOrphanedTag        Code = "S102"
	CodeUnmatchedBlockName Code = "S103"
)

// Load-scope diagnostics. Suppressed entirely when the inspector inventory
// is absent (degraded mode, §4.6).
const (
	CodeUnknownTag          Code = "S108"
	CodeUnloadedTag         Code = "S109"
	CodeAmbiguousUnloadTag  Code = "S110"
	CodeUnknownFilter       Code = "S111"
	CodeUnloadedFilter      Code = "S112"
	CodeAmbiguousUnloadFltr Code = "S113"
)

// Expression and rule diagnostics.
const (
	CodeExpressionSyntax  Code = "S114"
	CodeFilterMissingArg  Code = "S115"
	CodeFilterUnexpectArg Code = "S116"
	CodeExtractedRule     Code = "S117"
)

// requiresInventory reports whether the code is suppressed outright when
// project.inspector_inventory == nil (§6.2, "Suppressed when" column).
func (c Code) requiresInventory() bool {
	switch c {
	case CodeUnknownTag, CodeUnloadedTag, CodeAmbiguousUnloadTag,
		CodeUnknownFilter, CodeUnloadedFilter, CodeAmbiguousUnloadFltr,
		CodeFilterMissingArg, CodeFilterUnexpectArg:
		return true
	default:
		return false
	}
}

// RequiresInventory reports whether this code is unconditionally suppressed
// in degraded mode (no healthy inspector inventory).
func RequiresInventory(c Code) bool { return c.requiresInventory() }

// DefaultSeverity returns the severity a code carries absent any override.
func DefaultSeverity(c Code) Severity {
	switch c {
	case CodeParseError, CodeIOError, CodeConfigErr,
		CodeUnclosedTag, CodeUnbalancedStruct, CodeUnmatchedBlockName,
		CodeExpressionSyntax:
		return SeverityError
	case CodeOrphanedTag, CodeUnknownTag, CodeUnloadedTag, CodeAmbiguousUnloadTag,
		CodeUnknownFilter, CodeUnloadedFilter, CodeAmbiguousUnloadFltr,
		CodeExtractedRule:
		return SeverityWarning
	case CodeFilterMissingArg, CodeFilterUnexpectArg:
		return SeverityWarning
	default:
		return SeverityWarning
	}
}

// Prefix returns the "S"/"T" series prefix used for prefix-level severity
// overrides (§6.3: "prefix S applies to all S-series if exact match not found").
func (c Code) Prefix() string {
	if len(c) == 0 {
		return ""
	}
	return string(c[0])
}
