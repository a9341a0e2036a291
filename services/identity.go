package services

// IdentityProvider resolves the opaque identifier of the user answering the questionnaire.
type IdentityProvider interface {
	CurrentUserIdentifier() string
}

// StaticIdentity always reports the same user.
type StaticIdentity string

func (s StaticIdentity) CurrentUserIdentifier() string {
	return string(s)
}

// IdentityFunc adapts a plain function to IdentityProvider.
type IdentityFunc func() string

func (f IdentityFunc) CurrentUserIdentifier() string {
	return f()
}
