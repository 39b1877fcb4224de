package domain

// Principal is the authenticated caller, built from a validated bearer token.
type Principal struct {
	UID   string
	Email string
}
