package models

const UsernameMaxLength = 100

type User struct {
	ID       int64
	Username string
	// Password holds the argon2id encoded hash, never the plain text.
	Password string
}
