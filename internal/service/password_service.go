package service

type PasswordService interface {
	Hash(password string) (encoded string, err error)
	// Verify reports whether password matches the encoded hash and whether the
	// hash should be upgraded to the current policy.
	Verify(password, encoded string) (rehashNeeded bool, ok bool)
}
