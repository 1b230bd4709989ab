// Package normalisers provides page loaders that turn source documents
// into per-page text. Each loader knows how to extract text from one
// document format.
package normalisers
