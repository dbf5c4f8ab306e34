// Package filters implements the PDF stream and string encodings used when
// writing overlay revisions.
//
// FlateEncode compresses content and cross-reference streams at a fixed
// level, so identical input always produces identical bytes. ASCIIHexEncode
// renders binary text operands as PDF hex strings.
package filters
