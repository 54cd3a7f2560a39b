package errors

import (
	"fmt"
	"regexp"
	"strings"
)

// Code represents a validated error code with a "package.name" shape.
type Code struct {
	value string
}

// Common error codes shared across the engine's error taxonomy.
var (
	CommonInternal              = MustNewCode("common.internal")
	CommonNotFound              = MustNewCode("common.not_found")
	CommonAlreadyExists         = MustNewCode("common.already_exists")
	CommonNotEmpty              = MustNewCode("common.not_empty")
	CommonConflict              = MustNewCode("common.conflict")
	CommonInvalidInput          = MustNewCode("common.invalid_input")
	CommonIncompatibleType      = MustNewCode("common.incompatible_type")
	CommonIdentifierProtected   = MustNewCode("common.identifier_protected")
	CommonRetryExhausted        = MustNewCode("common.retry_exhausted")
	CommonTransactionFailed     = MustNewCode("common.transaction_failed")
	CommonUnsupportedVersion    = MustNewCode("common.unsupported_version")
)

var codeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// NewCode validates and creates a Code.
func NewCode(s string) (Code, error) {
	if !codeRegex.MatchString(s) {
		return Code{}, fmt.Errorf("invalid code format %q: must be 'package.name' (lowercase, underscores, dots only)", s)
	}
	if strings.Contains(s, "error") || strings.Contains(s, "err") {
		return Code{}, fmt.Errorf("invalid code %q: should not contain 'error' or 'err'", s)
	}
	return Code{value: s}, nil
}

// MustNewCode creates a Code or panics if invalid. Intended for package-level
// var declarations where the input is a literal.
func MustNewCode(s string) Code {
	code, err := NewCode(s)
	if err != nil {
		panic(err)
	}
	return code
}

func (c Code) String() string { return c.value }

// Package returns the prefix before the dot.
func (c Code) Package() string {
	if idx := strings.Index(c.value, "."); idx != -1 {
		return c.value[:idx]
	}
	return ""
}

// Name returns the suffix after the dot.
func (c Code) Name() string {
	if idx := strings.Index(c.value, "."); idx != -1 {
		return c.value[idx+1:]
	}
	return c.value
}

func (c Code) IsValid() bool { return codeRegex.MatchString(c.value) }

func (c Code) Equals(other Code) bool { return c.value == other.value }

// PackageCode builds a "pkg.name" code, panicking on malformed input —
// a convenience for package-specific constructor functions below.
func PackageCode(pkg, name string) Code {
	return MustNewCode(pkg + "." + name)
}

func TypesCode(name string) Code       { return PackageCode("types", name) }
func AvroCode(name string) Code        { return PackageCode("avro", name) }
func StatsCode(name string) Code       { return PackageCode("stats", name) }
func ManifestCode(name string) Code    { return PackageCode("manifest", name) }
func DeleteCode(name string) Code      { return PackageCode("deletes", name) }
func EvolutionCode(name string) Code   { return PackageCode("evolution", name) }
func MetadataCode(name string) Code    { return PackageCode("metadata", name) }
func CommitCode(name string) Code      { return PackageCode("commit", name) }
func CatalogCode(name string) Code     { return PackageCode("catalog", name) }
func ObjectStoreCode(name string) Code { return PackageCode("objectstore", name) }
