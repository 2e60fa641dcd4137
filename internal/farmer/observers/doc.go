// Package observers attaches structured logging to workflow graph runs.
package observers
