// Package rate counts failed login credentials in Redis fixed windows.
//
// # Window semantics
//
// INCR plus EXPIRE on the first hit. A key blocks once its count reaches
// the limit and stays blocked until the window expires. Keys:
//   - <prefix>:lf:<login>  failures per login name
//   - <prefix>:lfi:<ip>    failures per client IP
//
// # What this package must NOT do
//
//   - Decide what a failure is. Callers report failures explicitly.
//   - Store the submitted password or any part of it.
package rate
