// Package sanitizer normalizes user supplied text before it is validated and
// stored: names, room types, email addresses, phone numbers and photo URLs.
package sanitizer
