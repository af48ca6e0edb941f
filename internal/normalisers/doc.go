// Package normalisers turns extracted file text into documents. Each
// sub-package handles one family of formats; the Registry picks one by
// file extension.
package normalisers
