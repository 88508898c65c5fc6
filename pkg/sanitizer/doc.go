// Package sanitizer normalizes customer-facing input before validation and
// storage.
//
// All normalization functions are idempotent: applying them multiple times
// produces the same result. Invalid input yields an empty string rather than
// an error, leaving the decision to the validator.
//
// Normalization includes:
//   - Phone numbers: E.164 format, local numbers parsed in the business region ("0912 345 678" becomes "+886912345678")
//   - Names: collapsed whitespace, trimmed
//   - Emails: trimmed and lowercased
//   - Search terms: collapsed whitespace, lowercased
package sanitizer
