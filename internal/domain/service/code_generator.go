package service

// CodeGenerator issues human-enterable redemption codes. Codes act as bearer tokens,
// so implementations must draw from a cryptographically secure source.
type CodeGenerator interface {
	// Generate returns a new uppercase alphanumeric code.
	Generate() (string, error)
}
