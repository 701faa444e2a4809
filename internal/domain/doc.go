// Package domain contains the core review entities, value objects, and
// domain logic of the application: cards, their spaced-repetition
// schedule state, and the read-only views handed to reviewers. It is
// independent of any specific infrastructure or delivery mechanism.
package domain
