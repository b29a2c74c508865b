// Package password hashes user passwords with Argon2id.
//
// Hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.NeedsRehash] reports hashes made with weaker parameters so the
// caller can re-hash after the next successful check.
//
// # What this package must NOT do
//
//   - Store passwords. Callers supply plaintext and keep the hash.
//   - Log plaintext passwords.
package password
