// Package gateway delivers SMS codes and administrator notices through
// shoutrrr service URLs.
//
// An SMS URL is a template: {number} is replaced by the normalized digits
// and {e164} by the number with a leading "+", both query escaped. For
// example
//
//	generic://sms.example.com/send?to={e164}&key=SECRET
package gateway
