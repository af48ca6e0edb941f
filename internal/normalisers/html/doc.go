// Package html provides a Normaliser for HTML documents.
// It extracts readable text content from HTML, stripping tags, scripts
// and styles and decoding entities before the text is cleaned.
package html
